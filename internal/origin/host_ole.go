//go:build windows

package origin

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"sync"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"golang.org/x/sys/windows"
)

const (
	progIDNew    = "Origin.Application"
	progIDAttach = "Origin.ApplicationSI"
)

// Page type codes of the automation server.
var pageTypeKinds = map[int]PageKind{
	2:  KindWorkbook,
	3:  KindGraph,
	5:  KindMatrix,
	9:  KindNotes,
	12: KindImage,
}

var kindCollections = map[PageKind]string{
	KindWorkbook: "WorksheetPages",
	KindMatrix:   "MatrixPages",
	KindGraph:    "GraphPages",
	KindImage:    "ImagePages",
	KindNotes:    "NotesPages",
}

// comThread runs every COM call on one OS thread initialized as a
// single-threaded apartment.
type comThread struct {
	mu      sync.Mutex
	calls   chan func()
	done    chan struct{}
	stopped bool
}

func startCOMThread() *comThread {
	t := &comThread{calls: make(chan func()), done: make(chan struct{})}
	ready := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
		close(ready)
		for fn := range t.calls {
			fn()
		}
		ole.CoUninitialize()
		close(t.done)
	}()
	<-ready
	return t
}

func (t *comThread) do(fn func() error) error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return ErrDetached
	}
	errc := make(chan error, 1)
	t.calls <- func() { errc <- fn() }
	t.mu.Unlock()
	return <-errc
}

func (t *comThread) stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	close(t.calls)
	t.mu.Unlock()
	<-t.done
}

type oleHost struct {
	thread *comThread
	app    *ole.IDispatch
}

// DialOLE connects to Origin through COM automation. ModeAttach attaches to
// the running single instance; ModeNew launches a private one.
func DialOLE(ctx context.Context, opts DialOptions) (Host, error) {
	progID := opts.ProgID
	if progID == "" {
		progID = progIDNew
		if opts.Mode == ModeAttach {
			progID = progIDAttach
		}
	}
	thread := startCOMThread()

	type result struct {
		app *ole.IDispatch
		err error
	}
	resc := make(chan result, 1)
	go func() {
		var app *ole.IDispatch
		err := thread.do(func() error {
			var err error
			app, err = connectApplication(progID, opts.Mode)
			return err
		})
		resc <- result{app: app, err: err}
	}()

	select {
	case res := <-resc:
		if res.err != nil {
			thread.stop()
			return nil, res.err
		}
		return &oleHost{thread: thread, app: res.app}, nil
	case <-ctx.Done():
		go func() {
			res := <-resc
			if res.app != nil {
				thread.do(func() error {
					res.app.Release()
					return nil
				})
			}
			thread.stop()
		}()
		return nil, fmt.Errorf("failed to launch Origin: %w", ctx.Err())
	}
}

func connectApplication(progID string, mode Mode) (*ole.IDispatch, error) {
	if mode == ModeAttach {
		// Try to connect to an already-running instance first
		if unknown, err := oleutil.GetActiveObject(progID); err == nil {
			app, err := unknown.QueryInterface(ole.IID_IDispatch)
			unknown.Release()
			if err == nil {
				return app, nil
			}
		}
	}
	unknown, err := oleutil.CreateObject(progID)
	if err != nil {
		return nil, fmt.Errorf("failed to launch Origin application: %w", err)
	}
	defer unknown.Release()
	app, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, fmt.Errorf("failed to query Origin interface: %w", err)
	}
	return app, nil
}

func (h *oleHost) Execute(labtalk string) (bool, error) {
	var ok bool
	err := h.thread.do(func() error {
		v, err := oleutil.CallMethod(h.app, "Execute", labtalk)
		if err != nil {
			return fmt.Errorf("failed to execute LabTalk: %w", err)
		}
		defer v.Clear()
		ok = variantBool(v)
		return nil
	})
	return ok, err
}

func (h *oleHost) GetStr(name string) (string, error) {
	var s string
	err := h.thread.do(func() error {
		v, err := oleutil.GetProperty(h.app, "LTStr", name)
		if err != nil {
			return fmt.Errorf("failed to get LTStr %s: %w", name, err)
		}
		defer v.Clear()
		s = variantString(v)
		return nil
	})
	return s, err
}

func (h *oleHost) SetStr(name, value string) error {
	return h.thread.do(func() error {
		if _, err := oleutil.PutProperty(h.app, "LTStr", name, value); err != nil {
			return fmt.Errorf("failed to set LTStr %s: %w", name, err)
		}
		return nil
	})
}

func (h *oleHost) GetVar(name string) (float64, error) {
	var f float64
	err := h.thread.do(func() error {
		v, err := oleutil.GetProperty(h.app, "LTVar", name)
		if err != nil {
			return fmt.Errorf("failed to get LTVar %s: %w", name, err)
		}
		defer v.Clear()
		f = variantFloat(v)
		return nil
	})
	return f, err
}

func (h *oleHost) SetVar(name string, value float64) error {
	return h.thread.do(func() error {
		if _, err := oleutil.PutProperty(h.app, "LTVar", name, value); err != nil {
			return fmt.Errorf("failed to set LTVar %s: %w", name, err)
		}
		return nil
	})
}

const evalVar = "__GOEVAL"

func (h *oleHost) Evaluate(expr string) (float64, error) {
	if _, err := h.Execute(evalVar + "=" + expr); err != nil {
		return 0, err
	}
	return h.GetVar(evalVar)
}

func (h *oleHost) Pages(kind PageKind) ([]PageHandle, error) {
	kinds := []PageKind{kind}
	if kind == KindAny {
		kinds = []PageKind{KindWorkbook, KindMatrix, KindGraph, KindImage, KindNotes}
	}
	var pages []PageHandle
	err := h.thread.do(func() error {
		for _, k := range kinds {
			items, err := collectionItems(h.app, kindCollections[k])
			if err != nil {
				return err
			}
			for _, d := range items {
				pages = append(pages, h.newPage(d, k))
			}
		}
		return nil
	})
	return pages, err
}

func (h *oleHost) FindPage(name string) (PageHandle, error) {
	var page PageHandle
	err := h.thread.do(func() error {
		for _, k := range []PageKind{KindWorkbook, KindMatrix, KindGraph, KindImage, KindNotes} {
			col, err := oleutil.GetProperty(h.app, kindCollections[k])
			if err != nil {
				continue
			}
			colDisp := col.ToIDispatch()
			item, err := oleutil.GetProperty(colDisp, "Item", name)
			colDisp.Release()
			if err != nil || item.VT != ole.VT_DISPATCH || item.ToIDispatch() == nil {
				continue
			}
			page = h.newPage(item.ToIDispatch(), k)
			return nil
		}
		return nil
	})
	return page, err
}

func (h *oleHost) CreatePage(kind PageKind, name, template string) (PageHandle, error) {
	code := 0
	for c, k := range pageTypeKinds {
		if k == kind {
			code = c
		}
	}
	if code == 0 {
		return nil, fmt.Errorf("%w: page kind %s", ErrInvalidArgument, kind)
	}
	var created string
	err := h.thread.do(func() error {
		v, err := oleutil.CallMethod(h.app, "CreatePage", code, name, template)
		if err != nil {
			return fmt.Errorf("failed to create page: %w", err)
		}
		defer v.Clear()
		created = variantString(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h.FindPage(created)
}

func (h *oleHost) Detach() {
	h.thread.do(func() error {
		if h.app != nil {
			h.app.Release()
			h.app = nil
		}
		return nil
	})
	h.thread.stop()
}

func (h *oleHost) Exit() {
	h.thread.do(func() error {
		if h.app != nil {
			oleutil.CallMethod(h.app, "Exit")
		}
		return nil
	})
	h.Detach()
}

func (h *oleHost) newPage(d *ole.IDispatch, kind PageKind) PageHandle {
	base := &oleObject{host: h, disp: d}
	switch kind {
	case KindWorkbook, KindMatrix:
		return &olePage{oleObject: base, kind: kind}
	case KindNotes:
		return &oleNotes{olePage: &olePage{oleObject: base, kind: kind}}
	case KindImage:
		return &oleImage{olePage: &olePage{oleObject: base, kind: kind}}
	}
	return &olePage{oleObject: base, kind: kind}
}

// collectionItems must run on the COM thread.
func collectionItems(parent *ole.IDispatch, name string) ([]*ole.IDispatch, error) {
	col, err := oleutil.GetProperty(parent, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	colDisp := col.ToIDispatch()
	defer colDisp.Release()

	countProp, err := oleutil.GetProperty(colDisp, "Count")
	if err != nil {
		return nil, fmt.Errorf("failed to get %s.Count: %w", name, err)
	}
	count := int(variantFloat(countProp))

	items := make([]*ole.IDispatch, 0, count)
	for i := 0; i < count; i++ {
		item, err := oleutil.GetProperty(colDisp, "Item", i)
		if err != nil {
			continue
		}
		items = append(items, item.ToIDispatch())
	}
	return items, nil
}

type oleObject struct {
	host *oleHost
	disp *ole.IDispatch
}

func (o *oleObject) get(prop string, args ...interface{}) (*ole.VARIANT, error) {
	var out *ole.VARIANT
	err := o.host.thread.do(func() error {
		v, err := oleutil.GetProperty(o.disp, prop, args...)
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", prop, err)
		}
		out = v
		return nil
	})
	return out, err
}

func (o *oleObject) put(prop string, args ...interface{}) error {
	return o.host.thread.do(func() error {
		if _, err := oleutil.PutProperty(o.disp, prop, args...); err != nil {
			return fmt.Errorf("failed to set %s: %w", prop, err)
		}
		return nil
	})
}

func (o *oleObject) call(method string, args ...interface{}) (*ole.VARIANT, error) {
	var out *ole.VARIANT
	err := o.host.thread.do(func() error {
		v, err := oleutil.CallMethod(o.disp, method, args...)
		if err != nil {
			return fmt.Errorf("failed to call %s: %w", method, err)
		}
		out = v
		return nil
	})
	return out, err
}

func (o *oleObject) getString(prop string, args ...interface{}) (string, error) {
	v, err := o.get(prop, args...)
	if err != nil {
		return "", err
	}
	return variantString(v), nil
}

func (o *oleObject) getFloat(prop string, args ...interface{}) (float64, error) {
	v, err := o.get(prop, args...)
	if err != nil {
		return 0, err
	}
	return variantFloat(v), nil
}

func (o *oleObject) Name() (string, error)         { return o.getString("Name") }
func (o *oleObject) SetName(name string) error     { return o.put("Name", name) }
func (o *oleObject) LongName() (string, error)     { return o.getString("LongName") }
func (o *oleObject) SetLongName(name string) error { return o.put("LongName", name) }
func (o *oleObject) SetShow(show bool) error       { return o.put("Show", show) }

func (o *oleObject) Index() (int, error) {
	f, err := o.getFloat("Index")
	return CoerceInt(f), err
}

func (o *oleObject) Show() (bool, error) {
	v, err := o.get("Show")
	if err != nil {
		return false, err
	}
	return variantBool(v), nil
}

func (o *oleObject) IsValid() bool {
	if o.disp == nil {
		return false
	}
	v, err := o.call("IsValid")
	return err == nil && variantBool(v)
}

func (o *oleObject) GetStrProp(name string) (string, error) {
	v, err := o.call("GetStrProp", name)
	if err != nil {
		return "", err
	}
	return variantString(v), nil
}

func (o *oleObject) SetStrProp(name, value string) error {
	_, err := o.call("SetStrProp", name, value)
	return err
}

func (o *oleObject) GetNumProp(name string) (float64, error) {
	v, err := o.call("GetNumProp", name)
	if err != nil {
		return 0, err
	}
	return variantFloat(v), nil
}

func (o *oleObject) SetNumProp(name string, value float64) error {
	_, err := o.call("SetNumProp", name, value)
	return err
}

func (o *oleObject) DoMethod(name, arg string) (float64, error) {
	v, err := o.call("DoMethod", name, arg)
	if err != nil {
		return 0, err
	}
	return variantFloat(v), nil
}

func (o *oleObject) DoStrMethod(name, arg string) (string, error) {
	v, err := o.call("DoMethod", name, arg)
	if err != nil {
		return "", err
	}
	return variantString(v), nil
}

func (o *oleObject) Execute(labtalk string) (bool, error) {
	v, err := o.call("Execute", labtalk)
	if err != nil {
		return false, err
	}
	return variantBool(v), nil
}

func (o *oleObject) Destroy() error {
	_, err := o.call("Destroy")
	return err
}

func (o *oleObject) Parent() (Handle, error) {
	v, err := o.get("Parent")
	if err != nil {
		return nil, err
	}
	d := v.ToIDispatch()
	if d == nil {
		return nil, ErrNotFound
	}
	var kind PageKind
	if t, err := (&oleObject{host: o.host, disp: d}).getFloat("Type"); err == nil {
		kind = pageTypeKinds[CoerceInt(t)]
	}
	if kind == KindAny {
		return &oleObject{host: o.host, disp: d}, nil
	}
	return o.host.newPage(d, kind), nil
}

func (o *oleObject) Release() {
	o.host.thread.do(func() error {
		if o.disp != nil {
			o.disp.Release()
			o.disp = nil
		}
		return nil
	})
}

type olePage struct {
	*oleObject
	kind PageKind
}

func (p *olePage) Kind() PageKind { return p.kind }

func (p *olePage) Layers() ([]Handle, error) {
	var layers []Handle
	err := p.host.thread.do(func() error {
		items, err := collectionItems(p.disp, "Layers")
		if err != nil {
			return err
		}
		for _, d := range items {
			layers = append(layers, p.wrapLayer(d))
		}
		return nil
	})
	return layers, err
}

func (p *olePage) AddLayer(name string) (Handle, error) {
	var layer Handle
	err := p.host.thread.do(func() error {
		col, err := oleutil.GetProperty(p.disp, "Layers")
		if err != nil {
			return fmt.Errorf("failed to get Layers: %w", err)
		}
		colDisp := col.ToIDispatch()
		defer colDisp.Release()
		v, err := oleutil.CallMethod(colDisp, "Add", name)
		if err != nil {
			return fmt.Errorf("failed to add layer: %w", err)
		}
		layer = p.wrapLayer(v.ToIDispatch())
		return nil
	})
	return layer, err
}

func (p *olePage) wrapLayer(d *ole.IDispatch) Handle {
	base := &oleObject{host: p.host, disp: d}
	if p.kind == KindWorkbook || p.kind == KindMatrix {
		return &oleSheet{oleObject: base}
	}
	return base
}

type oleSheet struct {
	*oleObject
}

func (s *oleSheet) RowCount() (int, error) {
	f, err := s.getFloat("Rows")
	return CoerceInt(f), err
}

func (s *oleSheet) ColCount() (int, error) {
	f, err := s.getFloat("Cols")
	return CoerceInt(f), err
}

func (s *oleSheet) SetRowCount(rows int) error { return s.put("Rows", rows) }
func (s *oleSheet) SetColCount(cols int) error { return s.put("Cols", cols) }

func (s *oleSheet) SetShape(rows, cols int) error {
	if err := s.put("Cols", cols); err != nil {
		return err
	}
	return s.put("Rows", rows)
}

// Array formats of Column.GetData.
const (
	arrayNumeric = 1
	arrayText    = 3
)

func (s *oleSheet) ColumnData(col, r1, r2 int) ([]any, DataFormat, error) {
	var values []any
	err := s.host.thread.do(func() error {
		c, err := oleutil.GetProperty(s.disp, "Columns", col)
		if err != nil {
			return fmt.Errorf("failed to get column %d: %w", col+1, err)
		}
		cd := c.ToIDispatch()
		defer cd.Release()
		v, err := oleutil.CallMethod(cd, "GetData", arrayNumeric, r1, r2)
		if err != nil {
			return fmt.Errorf("failed to get column data: %w", err)
		}
		defer v.Clear()
		if v.VT&ole.VT_ARRAY == 0 {
			return nil
		}
		values = v.ToArray().ToValueArray()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return values, FormatOfValues(values), nil
}

func (s *oleSheet) SetColumnData(col int, values []any, df DataFormat, r1 int) error {
	return s.host.thread.do(func() error {
		arr, err := newSafeArrayVariant(values, df)
		if err != nil {
			return err
		}
		defer arr.Clear()
		c, err := oleutil.GetProperty(s.disp, "Columns", col)
		if err != nil {
			return fmt.Errorf("failed to get column %d: %w", col+1, err)
		}
		cd := c.ToIDispatch()
		defer cd.Release()
		if _, err := oleutil.CallMethod(cd, "SetData", arr, r1); err != nil {
			return fmt.Errorf("failed to set column data: %w", err)
		}
		return nil
	})
}

type oleNotes struct {
	*olePage
}

func (n *oleNotes) Text() (string, error)     { return n.getString("Text") }
func (n *oleNotes) SetText(text string) error { return n.put("Text", text) }

type oleImage struct {
	*olePage
}

func (im *oleImage) Data(frame int) ([]any, DataFormat, error) {
	v, err := im.call("GetData", frame)
	if err != nil {
		return nil, 0, err
	}
	var values []any
	err = im.host.thread.do(func() error {
		defer v.Clear()
		if v.VT&ole.VT_ARRAY != 0 {
			values = v.ToArray().ToValueArray()
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return values, FormatOfValues(values), nil
}

func (im *oleImage) SetData(values []any, df DataFormat, options, frame int) (bool, error) {
	var ok bool
	err := im.host.thread.do(func() error {
		arr, err := newSafeArrayVariant(values, df)
		if err != nil {
			return err
		}
		defer arr.Clear()
		v, err := oleutil.CallMethod(im.disp, "SetData", arr, options, frame)
		if err != nil {
			return fmt.Errorf("failed to set image data: %w", err)
		}
		ok = variantBool(v)
		return nil
	})
	return ok, err
}

func (im *oleImage) Layer() (Handle, error) {
	var layer Handle
	err := im.host.thread.do(func() error {
		items, err := collectionItems(im.disp, "Layers")
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrNotFound
		}
		for _, d := range items[1:] {
			d.Release()
		}
		layer = &oleObject{host: im.host, disp: items[0]}
		return nil
	})
	return layer, err
}

var (
	modoleaut32               = windows.NewLazySystemDLL("oleaut32.dll")
	procSafeArrayCreateVector = modoleaut32.NewProc("SafeArrayCreateVector")
	procSafeArrayPutElement   = modoleaut32.NewProc("SafeArrayPutElement")
	procSafeArrayDestroy      = modoleaut32.NewProc("SafeArrayDestroy")
)

var formatVarTypes = map[DataFormat]ole.VT{
	DFDouble: ole.VT_R8,
	DFFloat:  ole.VT_R4,
	DFShort:  ole.VT_I2,
	DFLong:   ole.VT_I4,
	DFChar:   ole.VT_I1,
	DFByte:   ole.VT_UI1,
	DFUShort: ole.VT_UI2,
	DFULong:  ole.VT_UI4,
	DFText:   ole.VT_BSTR,
}

// newSafeArrayVariant packs values into a one-dimensional SAFEARRAY of the
// element type matching df. Must run on the COM thread.
func newSafeArrayVariant(values []any, df DataFormat) (*ole.VARIANT, error) {
	vt, ok := formatVarTypes[df]
	if !ok {
		return nil, fmt.Errorf("%w: %v over automation", ErrUnsupportedType, df)
	}
	sa, _, _ := procSafeArrayCreateVector.Call(uintptr(vt), 0, uintptr(len(values)))
	if sa == 0 {
		return nil, fmt.Errorf("failed to create SAFEARRAY of %d elements", len(values))
	}
	if err := putSafeArrayElements(sa, values); err != nil {
		destroySafeArray(sa)
		return nil, err
	}
	v := ole.NewVariant(ole.VT_ARRAY|vt, int64(sa))
	return &v, nil
}

// destroySafeArray frees an array that never made it into a VARIANT.
var destroySafeArray = func(sa uintptr) {
	procSafeArrayDestroy.Call(sa)
}

func putSafeArrayElements(sa uintptr, values []any) error {
	for i, v := range values {
		idx := int32(i)
		var hr uintptr
		switch x := v.(type) {
		case string:
			bstr := ole.SysAllocString(x)
			hr, _, _ = procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(bstr)))
			ole.SysFreeString(bstr)
		case float64:
			hr, _, _ = procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&x)))
		case float32:
			hr, _, _ = procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&x)))
		case int16:
			hr, _, _ = procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&x)))
		case int32:
			hr, _, _ = procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&x)))
		case int64:
			n := int32(x)
			hr, _, _ = procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&n)))
		case int8:
			hr, _, _ = procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&x)))
		case uint8:
			hr, _, _ = procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&x)))
		case uint16:
			hr, _, _ = procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&x)))
		case uint32:
			hr, _, _ = procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&x)))
		default:
			return fmt.Errorf("%w: element %d is %T", ErrUnsupportedType, i, v)
		}
		if hr != 0 {
			return fmt.Errorf("failed to put SAFEARRAY element %d: %w", i, ole.NewError(hr))
		}
	}
	return nil
}

func variantString(v *ole.VARIANT) string {
	if v == nil {
		return ""
	}
	if v.VT == ole.VT_BSTR {
		return v.ToString()
	}
	val := v.Value()
	if val == nil {
		return ""
	}
	return fmt.Sprint(val)
}

// variantFloat converts a numeric VARIANT; anything else becomes NaN so that
// integer accessors fall back to 0.
func variantFloat(v *ole.VARIANT) float64 {
	if v == nil {
		return math.NaN()
	}
	switch x := v.Value().(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

func variantBool(v *ole.VARIANT) bool {
	if v == nil {
		return false
	}
	if b, ok := v.Value().(bool); ok {
		return b
	}
	f := variantFloat(v)
	return !math.IsNaN(f) && f != 0
}
