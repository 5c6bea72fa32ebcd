package origin

import (
	"fmt"
	"strconv"
	"strings"
)

// Worksheet is a worksheet of a workbook.
type Worksheet struct {
	*Sheet
}

// ColIndex returns the column reference for a 0-based column index.
func ColIndex(i int) string {
	return strconv.Itoa(i + 1)
}

// ColRange returns the range string of one column. col is a short name such
// as "B" or a 1-based index produced by ColIndex.
func (w *Worksheet) ColRange(col string) string {
	return w.LTRange(true) + "!" + col
}

// XYRange returns an XY range with optional Y error and X error columns.
func (w *Worksheet) XYRange(x, y, yerr, xerr string) string {
	cols := []string{x, y}
	switch {
	case xerr != "":
		cols = append(cols, yerr, xerr)
	case yerr != "":
		cols = append(cols, yerr)
	}
	return w.LTRange(true) + "!(" + strings.Join(cols, ",") + ")"
}

// XYZRange returns an XYZ range.
func (w *Worksheet) XYZRange(x, y, z string) string {
	return w.LTRange(true) + "!(" + x + "," + y + "," + z + ")"
}

// ColumnData reads rows r1..r2 (0-based, r2 < 0 for the last row) of a
// 0-based column as a typed slice such as []float64.
func (w *Worksheet) ColumnData(col, r1, r2 int) (any, error) {
	values, df, err := w.sheet.ColumnData(col, r1, r2)
	if err != nil {
		return nil, fmt.Errorf("failed to read column %d of %s: %w", col+1, w, err)
	}
	if df == DFText || df == DFMixed {
		out := make([]string, len(values))
		for i, v := range values {
			if v != nil {
				out[i] = fmt.Sprint(v)
			}
		}
		return out, nil
	}
	return MakeSlice(values, df)
}

// SetColumnData writes a typed slice into a 0-based column starting at row
// r1. []string is written as text.
func (w *Worksheet) SetColumnData(col int, data any, r1 int) error {
	if ss, ok := data.([]string); ok {
		values := make([]any, len(ss))
		for i, s := range ss {
			values[i] = s
		}
		return w.sheet.SetColumnData(col, values, DFText, r1)
	}
	values, df, err := ToAnySlice(data)
	if err != nil {
		return err
	}
	return w.sheet.SetColumnData(col, values, df, r1)
}
