package origin

import (
	"fmt"
	"regexp"
	"strconv"
)

const defaultPageSize = 5000

// RowPage is a run of rows, 0-based and inclusive.
type RowPage struct {
	First int
	Last  int
}

// String renders the page 1-based, as Origin shows row numbers.
func (p RowPage) String() string {
	return fmt.Sprintf("%d:%d", p.First+1, p.Last+1)
}

var rowPageRegexp = regexp.MustCompile(`^(\d+):(\d+)$`)

// ParseRowPage parses the form produced by RowPage.String.
func ParseRowPage(s string) (RowPage, error) {
	m := rowPageRegexp.FindStringSubmatch(s)
	if m == nil {
		return RowPage{}, fmt.Errorf("%w: row range %q", ErrInvalidArgument, s)
	}
	first, _ := strconv.Atoi(m[1])
	last, _ := strconv.Atoi(m[2])
	if first < 1 || last < first {
		return RowPage{}, fmt.Errorf("%w: row range %q", ErrInvalidArgument, s)
	}
	return RowPage{First: first - 1, Last: last - 1}, nil
}

// RowPages splits rows x cols cells into pages of at most pageSize cells,
// never fewer than one row per page.
func RowPages(rows, cols, pageSize int) []RowPage {
	if rows <= 0 || cols <= 0 {
		return []RowPage{}
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	rowsPerPage := pageSize / cols
	if rowsPerPage < 1 {
		rowsPerPage = 1
	}

	var pages []RowPage
	for current := 0; current < rows; current += rowsPerPage {
		last := current + rowsPerPage - 1
		if last > rows-1 {
			last = rows - 1
		}
		pages = append(pages, RowPage{First: current, Last: last})
	}
	return pages
}

// NextPage returns the page after current, and false when current is the
// last or unknown.
func NextPage(all []RowPage, current RowPage) (RowPage, bool) {
	for i, p := range all {
		if p == current && i+1 < len(all) {
			return all[i+1], true
		}
	}
	return RowPage{}, false
}

// RemainingPages returns the pages not in known.
func RemainingPages(all []RowPage, known []RowPage) []RowPage {
	if len(known) == 0 {
		return all
	}
	seen := make(map[RowPage]bool, len(known))
	for _, p := range known {
		seen[p] = true
	}
	remaining := make([]RowPage, 0)
	for _, p := range all {
		if !seen[p] {
			remaining = append(remaining, p)
		}
	}
	return remaining
}
