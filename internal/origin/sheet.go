package origin

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Sheet is a data sheet: a worksheet or a matrix sheet.
type Sheet struct {
	*Layer
	sheet  SheetHandle
	matrix bool
}

func newSheet(ctx context.Context, conn *Connection, h SheetHandle, matrix bool) (*Sheet, error) {
	if isNil(h) {
		return nil, ErrInvalidHandle
	}
	layer, err := newLayer(ctx, conn, h)
	if err != nil {
		return nil, err
	}
	return &Sheet{Layer: layer, sheet: h, matrix: matrix}, nil
}

// IsMatrix reports whether the sheet is a matrix sheet.
func (s *Sheet) IsMatrix() bool {
	return s.matrix
}

// Worksheet returns the sheet as a worksheet. It fails for matrix sheets.
func (s *Sheet) Worksheet() (*Worksheet, error) {
	if s.matrix {
		return nil, fmt.Errorf("%w: %s is a matrix sheet", ErrInvalidArgument, s)
	}
	return &Worksheet{Sheet: s}, nil
}

// Shape returns the number of rows and columns.
func (s *Sheet) Shape() (rows, cols int, err error) {
	if rows, err = s.sheet.RowCount(); err != nil {
		return 0, 0, err
	}
	if cols, err = s.sheet.ColCount(); err != nil {
		return 0, 0, err
	}
	return rows, cols, nil
}

// SetShape resizes the sheet and returns the new shape. On a worksheet a
// zero or negative value leaves that dimension unchanged; a matrix sheet
// needs both.
func (s *Sheet) SetShape(rows, cols int) (int, int, error) {
	if s.matrix {
		if rows <= 0 || cols <= 0 {
			return 0, 0, fmt.Errorf("%w: matrix sheet shape needs both rows and cols", ErrInvalidArgument)
		}
		if err := s.sheet.SetShape(rows, cols); err != nil {
			return 0, 0, err
		}
		return s.Shape()
	}
	if cols > 0 {
		if err := s.sheet.SetColCount(cols); err != nil {
			return 0, 0, err
		}
	}
	if rows > 0 {
		if err := s.sheet.SetRowCount(rows); err != nil {
			return 0, 0, err
		}
	}
	return s.Shape()
}

// Book returns the book holding the sheet.
func (s *Sheet) Book(ctx context.Context) (*Book, error) {
	page, err := s.Page(ctx)
	if err != nil {
		return nil, err
	}
	if page.Kind() != KindWorkbook && page.Kind() != KindMatrix {
		page.Close()
		return nil, ErrInvalidHandle
	}
	return &Book{Page: page}, nil
}

// HasDC returns the lower-cased type of the sheet's data connector, such as
// "csv" or "excel", or "" when it has none.
func (s *Sheet) HasDC(ctx context.Context) (string, error) {
	has, err := s.sheet.GetNumProp("HasDC")
	if err != nil {
		return "", err
	}
	if has == 0 {
		return "", nil
	}
	book, err := s.Book(ctx)
	if err != nil {
		return "", err
	}
	defer book.Close()
	dcType, err := book.GetStr("DC.Type")
	if err != nil {
		return "", err
	}
	kind, _, _ := strings.Cut(dcType, "_")
	return strings.ToLower(kind), nil
}

// RemoveDC removes the data connector from the sheet.
func (s *Sheet) RemoveDC() error {
	return s.exec("wbook.dc.Remove()")
}

// FileImport controls Sheet.FromFile.
type FileImport struct {
	// Connector names the data connector, e.g. "Import Filter", "MATLAB".
	// Empty picks CSV or Excel from the file extension.
	Connector string
	// KeepDC leaves the connector in the book after the import.
	KeepDC bool
	// Select is a connector-specific selection inside the file.
	Select string
	// Sparklines follows the GUI setting when true and disables them
	// otherwise.
	Sparklines bool
}

// ConnectorForFile picks the data connector for a file extension.
func ConnectorForFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".asc", ".txt", ".dat":
		return "csv", nil
	case ".xls", ".xlsx":
		return "excel", nil
	}
	return "", fmt.Errorf("%w: file type not supported, must be text or Excel files", ErrInvalidArgument)
}

// FromFile imports a file through a data connector.
func (s *Sheet) FromFile(path string, opt FileImport) (bool, error) {
	dc := opt.Connector
	if dc == "" {
		var err error
		if dc, err = ConnectorForFile(path); err != nil {
			return false, err
		}
	}
	cmds := []string{
		fmt.Sprintf("wbook.dc.add(%q)", dc),
		fmt.Sprintf("wks.dc.source$=%s", quotePath(path)),
		fmt.Sprintf("wks.dc.sparklines=%d", boolInt(opt.Sparklines)),
	}
	if opt.Select != "" {
		cmds = append(cmds, fmt.Sprintf("wks.dc.sel$=%q", opt.Select))
	}
	for _, cmd := range cmds {
		if err := s.exec(cmd); err != nil {
			return false, err
		}
	}
	ok, err := s.Exec("wks.dc.import()")
	if err != nil {
		return false, err
	}
	if !opt.KeepDC {
		if err := s.RemoveDC(); err != nil {
			return ok, err
		}
	}
	return ok, nil
}

// TabColor returns the color of the sheet tab, NoColor when not set.
func (s *Sheet) TabColor() (Color, error) {
	c, err := s.GetInt("TabColor")
	if err != nil {
		return NoColor, err
	}
	return Color(c), nil
}

// SetTabColor sets the sheet tab color; NoColor clears it.
func (s *Sheet) SetTabColor(c Color) error {
	return s.SetInt("TabColor", int(c))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
