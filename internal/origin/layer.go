package origin

import (
	"context"
	"fmt"
	"strconv"
)

// Layer is a layer of a page: a graph layer, worksheet or matrix sheet.
type Layer struct {
	*Object
}

func newLayer(ctx context.Context, conn *Connection, h Handle) (*Layer, error) {
	obj, err := newObject(ctx, conn, h)
	if err != nil {
		return nil, err
	}
	return &Layer{Object: obj}, nil
}

func (l *Layer) pageName() string {
	parent, err := l.handle.Parent()
	if err != nil || isNil(parent) {
		return ""
	}
	defer parent.Release()
	name, _ := parent.Name()
	return name
}

// String renders the layer as [Page]Layer.
func (l *Layer) String() string {
	name, _ := l.handle.Name()
	return fmt.Sprintf("[%s]%s", l.pageName(), name)
}

// LTRange identifies the layer by name, or by 1-based index when useName is
// false.
func (l *Layer) LTRange(useName bool) string {
	if useName {
		return l.String()
	}
	idx, _ := l.Index()
	return "[" + l.pageName() + "]" + strconv.Itoa(idx+1)
}

// Page returns the page holding the layer.
func (l *Layer) Page(ctx context.Context) (*Page, error) {
	parent, err := l.handle.Parent()
	if err != nil {
		return nil, err
	}
	ph, ok := parent.(PageHandle)
	if !ok {
		if !isNil(parent) {
			parent.Release()
		}
		return nil, ErrInvalidHandle
	}
	page, err := newPage(ctx, l.conn, ph)
	if err != nil {
		ph.Release()
		return nil, err
	}
	return page, nil
}

// Activate makes the layer active, activating its page first if needed, and
// returns the 1-based index of the layer that was active before.
func (l *Layer) Activate(ctx context.Context) (int, error) {
	page, err := l.Page(ctx)
	if err != nil {
		return 0, err
	}
	defer page.Close()

	active, err := page.IsActive()
	if err != nil {
		return 0, err
	}
	if !active {
		if err := page.Activate(); err != nil {
			return 0, err
		}
	}
	last, err := page.GetInt("Active")
	if err != nil {
		return 0, err
	}
	idx, err := l.Index()
	if err != nil {
		return 0, err
	}
	if err := page.SetInt("Active", idx+1); err != nil {
		return 0, err
	}
	return last, nil
}

// Destroy deletes the layer from its page.
func (l *Layer) Destroy() error {
	return l.handle.Destroy()
}
