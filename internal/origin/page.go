package origin

import (
	"context"
	"fmt"
)

// Page wraps an Origin window: workbook, matrix book, graph, image or notes.
type Page struct {
	*Object
	page PageHandle
}

func newPage(ctx context.Context, conn *Connection, h PageHandle) (*Page, error) {
	if isNil(h) {
		return nil, ErrInvalidHandle
	}
	obj, err := newObject(ctx, conn, h)
	if err != nil {
		return nil, err
	}
	return &Page{Object: obj, page: h}, nil
}

func (p *Page) Kind() PageKind {
	return p.page.Kind()
}

// Len returns the number of layers (sheets) on the page.
func (p *Page) Len() (int, error) {
	layers, err := p.page.Layers()
	if err != nil {
		return 0, err
	}
	releaseHandles(layers)
	return len(layers), nil
}

// IsOpen reports whether the window is neither hidden nor minimized.
func (p *Page) IsOpen() (bool, error) {
	win, err := p.GetInt("Win")
	if err != nil {
		return false, err
	}
	return win > 2, nil
}

// IsActive reports whether the page is the active window.
func (p *Page) IsActive() (bool, error) {
	active, err := p.host.GetStr("%H")
	if err != nil {
		return false, err
	}
	name, err := p.Name()
	if err != nil {
		return false, err
	}
	return active == name, nil
}

// LTRange returns the range string that identifies the page, e.g. [Book1].
func (p *Page) LTRange() string {
	return "[" + p.String() + "]"
}

func (p *Page) Activate() error {
	_, err := p.host.Execute("win -a " + p.String())
	return err
}

// Destroy closes the window without asking.
func (p *Page) Destroy() error {
	_, err := p.host.Execute("win -cd " + p.String())
	return err
}

// Duplicate clones the window and returns the copy.
func (p *Page) Duplicate(ctx context.Context) (*Page, error) {
	if err := p.exec("win -d"); err != nil {
		return nil, fmt.Errorf("failed to duplicate %s: %w", p.LTRange(), err)
	}
	pages, err := p.host.Pages(p.Kind())
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrNotFound
	}
	last := pages[len(pages)-1]
	releasePages(pages[:len(pages)-1])
	dup, err := newPage(ctx, p.conn, last)
	if err != nil {
		last.Release()
		return nil, err
	}
	return dup, nil
}

func (p *Page) layer(i int) (Handle, error) {
	layers, err := p.page.Layers()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(layers) {
		releaseHandles(layers)
		return nil, fmt.Errorf("%w: layer %d of %s", ErrNotFound, i+1, p.LTRange())
	}
	h := layers[i]
	releaseHandles(layers[:i])
	releaseHandles(layers[i+1:])
	return h, nil
}

func (p *Page) layerByName(name string) (Handle, error) {
	layers, err := p.page.Layers()
	if err != nil {
		return nil, err
	}
	var found Handle
	for _, h := range layers {
		if found == nil {
			if n, err := h.Name(); err == nil && n == name {
				found = h
				continue
			}
		}
		h.Release()
	}
	if found == nil {
		return nil, fmt.Errorf("%w: layer %s of %s", ErrNotFound, name, p.LTRange())
	}
	return found, nil
}

// activeLayer returns the layer the page's Active property points at.
func (p *Page) activeLayer() (Handle, error) {
	active, err := p.GetInt("Active")
	if err != nil {
		return nil, err
	}
	if active < 1 {
		active = 1
	}
	return p.layer(active - 1)
}

func releaseHandles(hs []Handle) {
	for _, h := range hs {
		h.Release()
	}
}

func releasePages(hs []PageHandle) {
	for _, h := range hs {
		h.Release()
	}
}
