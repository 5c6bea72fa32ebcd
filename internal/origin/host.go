package origin

import "context"

// Host is the automation surface of a running Origin instance. Every call is
// forwarded as-is; a false return from Execute is the host's own failure code
// and is not turned into an error.
type Host interface {
	// Execute runs a LabTalk statement and reports the host's success flag.
	Execute(labtalk string) (bool, error)
	// GetStr returns the value of a LabTalk string variable or expression.
	GetStr(name string) (string, error)
	// SetStr sets a LabTalk string variable.
	SetStr(name, value string) error
	// GetVar returns a LabTalk numeric variable.
	GetVar(name string) (float64, error)
	// SetVar sets a LabTalk numeric variable.
	SetVar(name string, value float64) error
	// Evaluate evaluates a LabTalk numeric expression.
	Evaluate(expr string) (float64, error)
	// Pages returns all pages of the given kind in creation order.
	Pages(kind PageKind) ([]PageHandle, error)
	// FindPage returns the page with the given short name, or nil.
	FindPage(name string) (PageHandle, error)
	// CreatePage creates a page and returns it.
	CreatePage(kind PageKind, name, template string) (PageHandle, error)
	// Detach releases the host without closing it.
	Detach()
	// Exit closes a host instance that was launched by this process.
	Exit()
}

// Handle is an opaque reference to an object living inside the host.
type Handle interface {
	Name() (string, error)
	SetName(name string) error
	LongName() (string, error)
	SetLongName(name string) error
	// Index is the 0-based position in the parent collection.
	Index() (int, error)
	Show() (bool, error)
	SetShow(show bool) error
	IsValid() bool
	GetStrProp(name string) (string, error)
	SetStrProp(name, value string) error
	GetNumProp(name string) (float64, error)
	SetNumProp(name string, value float64) error
	DoMethod(name, arg string) (float64, error)
	DoStrMethod(name, arg string) (string, error)
	Execute(labtalk string) (bool, error)
	Destroy() error
	Parent() (Handle, error)
	// Release drops this process's interest in the object. It does not
	// destroy the object.
	Release()
}

// PageHandle is a window: a workbook, matrix book, graph, image or notes page.
type PageHandle interface {
	Handle
	Kind() PageKind
	Layers() ([]Handle, error)
	AddLayer(name string) (Handle, error)
}

// SheetHandle is a worksheet or matrix sheet.
type SheetHandle interface {
	Handle
	RowCount() (int, error)
	ColCount() (int, error)
	SetRowCount(rows int) error
	SetColCount(cols int) error
	SetShape(rows, cols int) error
	// ColumnData reads rows r1..r2 (0-based, r2 < 0 for the last row) of a
	// 0-based column.
	ColumnData(col, r1, r2 int) ([]any, DataFormat, error)
	SetColumnData(col int, values []any, df DataFormat, r1 int) error
}

// NotesHandle is a notes window.
type NotesHandle interface {
	PageHandle
	Text() (string, error)
	SetText(text string) error
}

// ImageHandle is an image window.
type ImageHandle interface {
	PageHandle
	// Data returns frame data; frame < 0 means all frames.
	Data(frame int) ([]any, DataFormat, error)
	SetData(values []any, df DataFormat, options, frame int) (bool, error)
	Layer() (Handle, error)
}

// PageKind identifies the kind of page.
type PageKind int

const (
	KindAny PageKind = iota
	KindWorkbook
	KindMatrix
	KindGraph
	KindImage
	KindNotes
)

var pageKindNames = map[PageKind]string{
	KindAny:      "any",
	KindWorkbook: "w",
	KindMatrix:   "m",
	KindGraph:    "g",
	KindImage:    "i",
	KindNotes:    "n",
}

func (k PageKind) String() string {
	if s, ok := pageKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParsePageKind accepts the single-letter codes used by LabTalk window
// commands and their long forms.
func ParsePageKind(s string) (PageKind, error) {
	switch s {
	case "", "any":
		return KindAny, nil
	case "w", "book", "workbook":
		return KindWorkbook, nil
	case "m", "matrix":
		return KindMatrix, nil
	case "g", "graph":
		return KindGraph, nil
	case "i", "image":
		return KindImage, nil
	case "n", "notes":
		return KindNotes, nil
	}
	return KindAny, ErrInvalidArgument
}

// Mode selects how the connection reaches the host.
type Mode string

const (
	// ModeNew launches a private instance and closes it on detach.
	ModeNew Mode = "new"
	// ModeAttach attaches to the running single instance and only releases
	// it on detach.
	ModeAttach Mode = "attach"
)

// DialOptions are passed to a Dialer.
type DialOptions struct {
	Mode   Mode
	ProgID string
}

// Dialer establishes a host connection. It must return once the host has
// signalled readiness or ctx is done.
type Dialer func(ctx context.Context, opts DialOptions) (Host, error)
