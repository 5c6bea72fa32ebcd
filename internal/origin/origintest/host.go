// Package origintest provides an in-memory Origin host that records the
// LabTalk it is sent.
package origintest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/originlab/originpro/internal/origin"
)

// Host is a recording origin.Host. The zero value is not usable; call
// NewHost.
type Host struct {
	mu sync.Mutex

	// Strs backs GetStr/SetStr, e.g. "%H" or "tree.xml$".
	Strs map[string]string
	// Vars backs GetVar/SetVar and Evaluate.
	Vars map[string]float64
	// ExecResults overrides the success flag of Execute per statement.
	// Statements not listed succeed.
	ExecResults map[string]bool
	// ExecErr is returned by every Execute when set.
	ExecErr error
	// ReadyGate, when set, blocks the readiness probe until closed.
	ReadyGate chan struct{}
	// SerialDetach makes Detach wait for ReadyGate too, like a host that
	// runs every call on one thread.
	SerialDetach bool

	commands []string
	pages    []origin.PageHandle
	seq      map[origin.PageKind]int
	detaches int
	exits    int
}

// NewHost returns an empty host with Origin version 10.2 in @V.
func NewHost() *Host {
	return &Host{
		Strs:        map[string]string{},
		Vars:        map[string]float64{"@V": 10.2},
		ExecResults: map[string]bool{},
		seq:         map[origin.PageKind]int{},
	}
}

// DialRecorder wraps a host in a Dialer and counts dials.
type DialRecorder struct {
	mu    sync.Mutex
	Host  *Host
	Err   error
	Dials int
	Opts  []origin.DialOptions
}

func (d *DialRecorder) Dial(ctx context.Context, opts origin.DialOptions) (origin.Host, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Dials++
	d.Opts = append(d.Opts, opts)
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Host, nil
}

func (d *DialRecorder) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Dials
}

// Commands returns the LabTalk executed through the host and its objects, in
// order.
func (h *Host) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.commands)
}

// Detaches returns how many times Detach was called.
func (h *Host) Detaches() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.detaches
}

// Exits returns how many times Exit was called.
func (h *Host) Exits() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exits
}

func (h *Host) record(cmd string) (bool, error) {
	h.mu.Lock()
	h.commands = append(h.commands, cmd)
	gate := h.ReadyGate
	err := h.ExecErr
	ok, set := h.ExecResults[cmd]
	h.mu.Unlock()

	if cmd == "sec -poc" && gate != nil {
		<-gate
	}
	if err != nil {
		return false, err
	}
	return ok || !set, nil
}

func (h *Host) Execute(labtalk string) (bool, error) {
	return h.record(labtalk)
}

func (h *Host) GetStr(name string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Strs[name], nil
}

func (h *Host) SetStr(name, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Strs[name] = value
	return nil
}

func (h *Host) GetVar(name string) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Vars[name], nil
}

func (h *Host) SetVar(name string, value float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Vars[name] = value
	return nil
}

func (h *Host) Evaluate(expr string) (float64, error) {
	return h.GetVar(expr)
}

func (h *Host) Pages(kind origin.PageKind) ([]origin.PageHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []origin.PageHandle
	for _, p := range h.pages {
		if kind == origin.KindAny || p.Kind() == kind {
			out = append(out, p)
		}
	}
	return out, nil
}

func (h *Host) FindPage(name string) (origin.PageHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.pages {
		if n, _ := p.Name(); n == name {
			return p, nil
		}
	}
	return nil, nil
}

var defaultPageNames = map[origin.PageKind]string{
	origin.KindWorkbook: "Book",
	origin.KindMatrix:   "MBook",
	origin.KindGraph:    "Graph",
	origin.KindImage:    "Image",
	origin.KindNotes:    "Notes",
}

func (h *Host) CreatePage(kind origin.PageKind, name, template string) (origin.PageHandle, error) {
	if _, ok := defaultPageNames[kind]; !ok {
		return nil, fmt.Errorf("cannot create %s page", kind)
	}
	if name == "" {
		h.mu.Lock()
		h.seq[kind]++
		name = fmt.Sprintf("%s%d", defaultPageNames[kind], h.seq[kind])
		h.mu.Unlock()
	}
	switch kind {
	case origin.KindWorkbook:
		return h.AddWorkbook(name, "Sheet1"), nil
	case origin.KindMatrix:
		return h.AddMatrixBook(name, "MSheet1"), nil
	case origin.KindGraph:
		return h.AddGraph(name, 1), nil
	case origin.KindImage:
		return h.AddImage(name), nil
	}
	return h.AddNotes(name), nil
}

func (h *Host) Detach() {
	h.mu.Lock()
	gate := h.ReadyGate
	serial := h.SerialDetach
	h.mu.Unlock()

	if serial && gate != nil {
		<-gate
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detaches++
}

func (h *Host) Exit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exits++
}

func (h *Host) addPage(p origin.PageHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pages = append(h.pages, p)
}

// AddWorkbook adds a workbook with the named sheets, the first one active.
func (h *Host) AddWorkbook(name string, sheets ...string) *Page {
	p := h.newPage(name, origin.KindWorkbook)
	for _, s := range sheets {
		p.AddSheet(s)
	}
	p.NumProps["Active"] = 1
	h.addPage(p)
	return p
}

// AddMatrixBook adds a matrix book with the named sheets.
func (h *Host) AddMatrixBook(name string, sheets ...string) *Page {
	p := h.newPage(name, origin.KindMatrix)
	for _, s := range sheets {
		p.AddSheet(s)
	}
	p.NumProps["Active"] = 1
	h.addPage(p)
	return p
}

// AddGraph adds a graph page with n layers named Layer1..n.
func (h *Host) AddGraph(name string, n int) *Page {
	p := h.newPage(name, origin.KindGraph)
	for i := 0; i < n; i++ {
		l := h.newObject(fmt.Sprintf("Layer%d", i+1))
		l.Idx = i
		l.parent = p
		p.LayerList = append(p.LayerList, l)
	}
	p.NumProps["Active"] = 1
	h.addPage(p)
	return p
}

func (h *Host) AddNotes(name string) *Notes {
	n := &Notes{Page: h.newPage(name, origin.KindNotes)}
	h.addPage(n)
	return n
}

func (h *Host) AddImage(name string) *Image {
	im := &Image{Page: h.newPage(name, origin.KindImage), SetDataResult: true}
	holder := h.newObject("Layer1")
	holder.parent = im.Page
	im.LayerList = append(im.LayerList, holder)
	h.addPage(im)
	return im
}

func (h *Host) newObject(name string) *Object {
	return &Object{
		host:     h,
		NameVal:  name,
		StrProps: map[string]string{},
		NumProps: map[string]float64{},
		Methods:  map[string]float64{},
		StrMeths: map[string]string{},
	}
}

func (h *Host) newPage(name string, kind origin.PageKind) *Page {
	return &Page{Object: h.newObject(name), KindVal: kind}
}

// Object is a recording origin.Handle.
type Object struct {
	host   *Host
	parent origin.Handle

	NameVal     string
	LongNameVal string
	Idx         int
	Shown       bool
	Invalid     bool
	Destroyed   bool
	StrProps    map[string]string
	NumProps    map[string]float64
	// Methods and StrMeths hold DoMethod and DoStrMethod results by method
	// name.
	Methods  map[string]float64
	StrMeths map[string]string
	// MethodArgs records "name(arg)" for every method call.
	MethodArgs []string
	Releases   int
}

func (o *Object) Name() (string, error)         { return o.NameVal, nil }
func (o *Object) SetName(name string) error     { o.NameVal = name; return nil }
func (o *Object) LongName() (string, error)     { return o.LongNameVal, nil }
func (o *Object) SetLongName(name string) error { o.LongNameVal = name; return nil }
func (o *Object) Index() (int, error)           { return o.Idx, nil }
func (o *Object) Show() (bool, error)           { return o.Shown, nil }
func (o *Object) SetShow(show bool) error       { o.Shown = show; return nil }
func (o *Object) IsValid() bool                 { return !o.Invalid && !o.Destroyed }

func (o *Object) GetStrProp(name string) (string, error) { return o.StrProps[name], nil }
func (o *Object) SetStrProp(name, value string) error {
	o.StrProps[name] = value
	return nil
}

func (o *Object) GetNumProp(name string) (float64, error) { return o.NumProps[name], nil }
func (o *Object) SetNumProp(name string, value float64) error {
	o.NumProps[name] = value
	return nil
}

func (o *Object) DoMethod(name, arg string) (float64, error) {
	o.MethodArgs = append(o.MethodArgs, name+"("+arg+")")
	return o.Methods[name], nil
}

func (o *Object) DoStrMethod(name, arg string) (string, error) {
	o.MethodArgs = append(o.MethodArgs, name+"("+arg+")")
	return o.StrMeths[name], nil
}

func (o *Object) Execute(labtalk string) (bool, error) {
	return o.host.record(labtalk)
}

func (o *Object) Destroy() error {
	o.Destroyed = true
	return nil
}

func (o *Object) Parent() (origin.Handle, error) {
	if o.parent == nil {
		return nil, origin.ErrNotFound
	}
	return o.parent, nil
}

func (o *Object) Release() { o.Releases++ }

// Page is a recording origin.PageHandle.
type Page struct {
	*Object
	KindVal   origin.PageKind
	LayerList []origin.Handle
}

func (p *Page) Kind() origin.PageKind { return p.KindVal }

func (p *Page) Layers() ([]origin.Handle, error) {
	return slices.Clone(p.LayerList), nil
}

func (p *Page) AddLayer(name string) (origin.Handle, error) {
	if p.KindVal == origin.KindWorkbook || p.KindVal == origin.KindMatrix {
		return p.AddSheet(name), nil
	}
	l := p.host.newObject(name)
	l.Idx = len(p.LayerList)
	l.parent = p
	p.LayerList = append(p.LayerList, l)
	return l, nil
}

// AddSheet appends an empty sheet.
func (p *Page) AddSheet(name string) *Sheet {
	s := &Sheet{Object: p.host.newObject(name), Columns: map[int][]any{}, Formats: map[int]origin.DataFormat{}}
	s.Idx = len(p.LayerList)
	s.parent = p
	p.LayerList = append(p.LayerList, s)
	return s
}

// Sheet returns the i-th sheet added with AddSheet.
func (p *Page) Sheet(i int) *Sheet {
	return p.LayerList[i].(*Sheet)
}

// Sheet is a recording origin.SheetHandle holding column data in memory.
type Sheet struct {
	*Object
	Rows    int
	Cols    int
	Columns map[int][]any
	Formats map[int]origin.DataFormat
}

func (s *Sheet) RowCount() (int, error)     { return s.Rows, nil }
func (s *Sheet) ColCount() (int, error)     { return s.Cols, nil }
func (s *Sheet) SetRowCount(rows int) error { s.Rows = rows; return nil }
func (s *Sheet) SetColCount(cols int) error { s.Cols = cols; return nil }

func (s *Sheet) SetShape(rows, cols int) error {
	s.Rows, s.Cols = rows, cols
	return nil
}

func (s *Sheet) ColumnData(col, r1, r2 int) ([]any, origin.DataFormat, error) {
	data, ok := s.Columns[col]
	if !ok {
		return nil, origin.DFDouble, fmt.Errorf("column %d does not exist", col+1)
	}
	if r2 < 0 || r2 >= len(data) {
		r2 = len(data) - 1
	}
	if r1 < 0 {
		r1 = 0
	}
	if r1 > r2 {
		return []any{}, s.Formats[col], nil
	}
	return slices.Clone(data[r1 : r2+1]), s.Formats[col], nil
}

func (s *Sheet) SetColumnData(col int, values []any, df origin.DataFormat, r1 int) error {
	if r1 < 0 {
		r1 = 0
	}
	data := s.Columns[col]
	for len(data) < r1+len(values) {
		data = append(data, nil)
	}
	copy(data[r1:], values)
	s.Columns[col] = data
	s.Formats[col] = df
	if col+1 > s.Cols {
		s.Cols = col + 1
	}
	if len(data) > s.Rows {
		s.Rows = len(data)
	}
	return nil
}

// Notes is a recording origin.NotesHandle.
type Notes struct {
	*Page
	TextVal string
}

func (n *Notes) Text() (string, error)     { return n.TextVal, nil }
func (n *Notes) SetText(text string) error { n.TextVal = text; return nil }

// Image is a recording origin.ImageHandle.
type Image struct {
	*Page
	Values        []any
	Format        origin.DataFormat
	SetDataResult bool
	// LastOptions and LastFrame are the arguments of the last SetData.
	LastOptions int
	LastFrame   int
}

func (im *Image) Data(frame int) ([]any, origin.DataFormat, error) {
	return slices.Clone(im.Values), im.Format, nil
}

func (im *Image) SetData(values []any, df origin.DataFormat, options, frame int) (bool, error) {
	im.LastOptions, im.LastFrame = options, frame
	if !im.SetDataResult {
		return false, nil
	}
	im.Values, im.Format = slices.Clone(values), df
	return true, nil
}

func (im *Image) Layer() (origin.Handle, error) {
	if len(im.LayerList) == 0 {
		return nil, origin.ErrNotFound
	}
	return im.LayerList[0], nil
}
