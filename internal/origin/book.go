package origin

import (
	"context"
	"fmt"
)

// Book is a data book: a workbook or a matrix book.
type Book struct {
	*Page
}

func newBook(ctx context.Context, conn *Connection, h PageHandle) (*Book, error) {
	if !isNil(h) && h.Kind() != KindWorkbook && h.Kind() != KindMatrix {
		return nil, fmt.Errorf("%w: %s page is not a book", ErrInvalidHandle, h.Kind())
	}
	page, err := newPage(ctx, conn, h)
	if err != nil {
		return nil, err
	}
	return &Book{Page: page}, nil
}

func (b *Book) String() string {
	return b.LTRange()
}

// Sheet returns the i-th (0-based) sheet.
func (b *Book) Sheet(ctx context.Context, i int) (*Sheet, error) {
	h, err := b.layer(i)
	if err != nil {
		return nil, err
	}
	return b.wrapSheet(ctx, h)
}

// SheetByName returns the sheet with the given short name.
func (b *Book) SheetByName(ctx context.Context, name string) (*Sheet, error) {
	h, err := b.layerByName(name)
	if err != nil {
		return nil, err
	}
	return b.wrapSheet(ctx, h)
}

// ActiveSheet returns the book's active sheet.
func (b *Book) ActiveSheet(ctx context.Context) (*Sheet, error) {
	h, err := b.activeLayer()
	if err != nil {
		return nil, err
	}
	return b.wrapSheet(ctx, h)
}

// Sheets returns every sheet of the book. The caller closes each one.
func (b *Book) Sheets(ctx context.Context) ([]*Sheet, error) {
	layers, err := b.page.Layers()
	if err != nil {
		return nil, err
	}
	sheets := make([]*Sheet, 0, len(layers))
	for i, h := range layers {
		s, err := b.wrapSheet(ctx, h)
		if err != nil {
			releaseHandles(layers[i+1:])
			closeAll(sheets)
			return nil, err
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

// AddSheet appends a sheet, optionally making it the active one.
func (b *Book) AddSheet(ctx context.Context, name string, activate bool) (*Sheet, error) {
	h, err := b.page.AddLayer(name)
	if err != nil {
		return nil, fmt.Errorf("failed to add sheet to %s: %w", b.LTRange(), err)
	}
	s, err := b.wrapSheet(ctx, h)
	if err != nil {
		return nil, err
	}
	if activate {
		idx, err := s.Index()
		if err == nil {
			err = b.SetInt("Active", idx+1)
		}
		if err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (b *Book) wrapSheet(ctx context.Context, h Handle) (*Sheet, error) {
	sh, ok := h.(SheetHandle)
	if !ok {
		if !isNil(h) {
			h.Release()
		}
		return nil, ErrInvalidHandle
	}
	s, err := newSheet(ctx, b.conn, sh, b.Kind() == KindMatrix)
	if err != nil {
		sh.Release()
		return nil, err
	}
	return s, nil
}

func closeAll[T interface{ Close() error }](objs []T) {
	for _, o := range objs {
		o.Close()
	}
}
