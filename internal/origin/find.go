package origin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ParseLayerRef splits "[Book1]Sheet1" into its page and layer parts. A
// reference without brackets names a page only.
func ParseLayerRef(ref string) (page, layer string) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, "[") {
		return ref, ""
	}
	end := strings.Index(ref, "]")
	if end < 0 {
		return strings.TrimPrefix(ref, "["), ""
	}
	return ref[1:end], ref[end+1:]
}

// lookupPage finds a page by name; an empty name means the active window.
func lookupPage(host Host, kind PageKind, name string) (PageHandle, error) {
	if name == "" {
		active, err := host.GetStr("%H")
		if err != nil {
			return nil, err
		}
		if active == "" {
			return nil, fmt.Errorf("%w: no active window", ErrNotFound)
		}
		name = active
	}
	h, err := host.FindPage(name)
	if err != nil {
		return nil, err
	}
	if isNil(h) {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, name)
	}
	if kind != KindAny && h.Kind() != kind {
		h.Release()
		return nil, fmt.Errorf("%w: %s is not a %s page", ErrNotFound, name, kind)
	}
	return h, nil
}

// findPageHandle runs a page lookup under a temporary reference and hands
// the result to wrap, which takes its own reference.
func findPageHandle[T any](ctx context.Context, conn *Connection, kind PageKind, name string,
	wrap func(context.Context, *Connection, PageHandle) (T, error)) (T, error) {
	var out T
	err := conn.with(ctx, func(host Host) error {
		h, err := lookupPage(host, kind, name)
		if err != nil {
			return err
		}
		w, err := wrap(ctx, conn, h)
		if err != nil {
			h.Release()
			return err
		}
		out = w
		return nil
	})
	return out, err
}

// FindPage returns the page with the given name, or the active window when
// name is empty.
func FindPage(ctx context.Context, conn *Connection, kind PageKind, name string) (*Page, error) {
	return findPageHandle(ctx, conn, kind, name, newPage)
}

// FindBook returns a workbook (KindWorkbook) or matrix book (KindMatrix).
func FindBook(ctx context.Context, conn *Connection, kind PageKind, name string) (*Book, error) {
	return findPageHandle(ctx, conn, kind, name, newBook)
}

// FindSheet resolves "[Book1]Sheet1", "[Book1]2" (1-based) or "Book1" (its
// active sheet). An empty reference means the active sheet of the active
// window.
func FindSheet(ctx context.Context, conn *Connection, kind PageKind, ref string) (*Sheet, error) {
	pageName, layerRef := ParseLayerRef(ref)
	book, err := FindBook(ctx, conn, kind, pageName)
	if err != nil {
		return nil, err
	}
	defer book.Close()
	if layerRef == "" {
		return book.ActiveSheet(ctx)
	}
	if n, err := strconv.Atoi(layerRef); err == nil {
		return book.Sheet(ctx, n-1)
	}
	return book.SheetByName(ctx, layerRef)
}

// FindWorksheet is FindSheet restricted to workbooks.
func FindWorksheet(ctx context.Context, conn *Connection, ref string) (*Worksheet, error) {
	s, err := FindSheet(ctx, conn, KindWorkbook, ref)
	if err != nil {
		return nil, err
	}
	return s.Worksheet()
}

func FindGraph(ctx context.Context, conn *Connection, name string) (*GraphPage, error) {
	return findPageHandle(ctx, conn, KindGraph, name, newGraphPage)
}

func FindImage(ctx context.Context, conn *Connection, name string) (*Image, error) {
	return findPageHandle(ctx, conn, KindImage, name, newImage)
}

func FindNotes(ctx context.Context, conn *Connection, name string) (*Notes, error) {
	return findPageHandle(ctx, conn, KindNotes, name, newNotes)
}

// FindObject resolves a reference to either a page ("Book1") or a layer
// ("[Book1]Sheet1", "[Graph1]1").
func FindObject(ctx context.Context, conn *Connection, ref string) (*Object, error) {
	pageName, layerRef := ParseLayerRef(ref)
	page, err := FindPage(ctx, conn, KindAny, pageName)
	if err != nil {
		return nil, err
	}
	if layerRef == "" {
		return page.Object, nil
	}
	defer page.Close()
	var h Handle
	if n, err := strconv.Atoi(layerRef); err == nil {
		h, err = page.layer(n - 1)
		if err != nil {
			return nil, err
		}
	} else if h, err = page.layerByName(layerRef); err != nil {
		return nil, err
	}
	obj, err := newObject(ctx, conn, h)
	if err != nil {
		h.Release()
		return nil, err
	}
	return obj, nil
}

// ListPages returns every page of a kind. The caller closes each one.
func ListPages(ctx context.Context, conn *Connection, kind PageKind) ([]*Page, error) {
	var pages []*Page
	err := conn.with(ctx, func(host Host) error {
		hs, err := host.Pages(kind)
		if err != nil {
			return err
		}
		for i, h := range hs {
			p, err := newPage(ctx, conn, h)
			if err != nil {
				releasePages(hs[i:])
				closeAll(pages)
				pages = nil
				return err
			}
			pages = append(pages, p)
		}
		return nil
	})
	return pages, err
}

func createPage[T any](ctx context.Context, conn *Connection, kind PageKind, longName, template string,
	wrap func(context.Context, *Connection, PageHandle) (T, error)) (T, error) {
	var out T
	err := conn.with(ctx, func(host Host) error {
		h, err := host.CreatePage(kind, "", template)
		if err != nil {
			return fmt.Errorf("failed to create %s page: %w", kind, err)
		}
		if isNil(h) {
			return fmt.Errorf("%w: create %s page", ErrHost, kind)
		}
		if longName != "" {
			if err := h.SetLongName(longName); err != nil {
				h.Release()
				return err
			}
		}
		w, err := wrap(ctx, conn, h)
		if err != nil {
			h.Release()
			return err
		}
		out = w
		return nil
	})
	return out, err
}

// NewBook creates a workbook (KindWorkbook) or a matrix book (KindMatrix).
func NewBook(ctx context.Context, conn *Connection, kind PageKind, longName, template string) (*Book, error) {
	if kind != KindWorkbook && kind != KindMatrix {
		return nil, fmt.Errorf("%w: book kind %s", ErrInvalidArgument, kind)
	}
	return createPage(ctx, conn, kind, longName, template, newBook)
}

func NewGraph(ctx context.Context, conn *Connection, longName, template string) (*GraphPage, error) {
	return createPage(ctx, conn, KindGraph, longName, template, newGraphPage)
}

func NewImage(ctx context.Context, conn *Connection, longName string) (*Image, error) {
	return createPage(ctx, conn, KindImage, longName, "", newImage)
}

func NewNotes(ctx context.Context, conn *Connection, longName string) (*Notes, error) {
	return createPage(ctx, conn, KindNotes, longName, "", newNotes)
}
