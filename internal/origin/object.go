package origin

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"github.com/beevik/etree"
	"github.com/originlab/originpro/internal/tree"
)

// Object is the base of every wrapper. It owns one handle and one reference
// on the connection until Close.
type Object struct {
	conn   *Connection
	host   Host
	handle Handle
	closed bool
}

func newObject(ctx context.Context, conn *Connection, h Handle) (*Object, error) {
	if conn == nil || isNil(h) {
		return nil, ErrInvalidHandle
	}
	host, err := conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Object{conn: conn, host: host, handle: h}, nil
}

func isNil(h Handle) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Close releases the handle and the connection reference. It is safe to
// call more than once.
func (o *Object) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	o.handle.Release()
	o.conn.Release()
	return nil
}

// Handle returns the underlying host object.
func (o *Object) Handle() Handle { return o.handle }

// Host returns the host the object belongs to.
func (o *Object) Host() Host { return o.host }

// Connection returns the connection the object holds a reference on.
func (o *Object) Connection() *Connection { return o.conn }

func (o *Object) String() string {
	name, _ := o.handle.Name()
	return name
}

// Valid reports whether the host object still exists.
func (o *Object) Valid() bool {
	return !o.closed && o.handle.IsValid()
}

// Index is the 0-based position of the object in its collection.
func (o *Object) Index() (int, error) {
	return o.handle.Index()
}

func (o *Object) Name() (string, error) {
	return o.handle.Name()
}

// SetName renames the object. On a conflict Origin picks the next free name.
func (o *Object) SetName(name string) error {
	return o.handle.SetName(name)
}

func (o *Object) LongName() (string, error) {
	return o.handle.LongName()
}

func (o *Object) SetLongName(name string) error {
	return o.handle.SetLongName(name)
}

func (o *Object) Comments() (string, error) {
	return o.GetStr("comments")
}

func (o *Object) SetComments(text string) error {
	return o.SetStr("comments", text)
}

func (o *Object) Show() (bool, error) {
	return o.handle.Show()
}

func (o *Object) SetShow(show bool) error {
	return o.handle.SetShow(show)
}

// GetStr reads a LabTalk string property such as "name" or "cmap.palette".
func (o *Object) GetStr(prop string) (string, error) {
	return o.handle.GetStrProp(prop)
}

func (o *Object) SetStr(prop, value string) error {
	return o.handle.SetStrProp(prop, value)
}

func (o *Object) GetFloat(prop string) (float64, error) {
	return o.handle.GetNumProp(prop)
}

func (o *Object) SetFloat(prop string, value float64) error {
	return o.handle.SetNumProp(prop, value)
}

// GetInt reads a numeric property and coerces it with CoerceInt.
func (o *Object) GetInt(prop string) (int, error) {
	f, err := o.GetFloat(prop)
	if err != nil {
		return 0, err
	}
	return CoerceInt(f), nil
}

func (o *Object) SetInt(prop string, value int) error {
	return o.handle.SetNumProp(prop, float64(value))
}

// MethodFloat runs a LabTalk object method with a numeric return.
func (o *Object) MethodFloat(name, arg string) (float64, error) {
	return o.handle.DoMethod(name, arg)
}

// MethodInt runs a LabTalk object method and coerces its return with
// CoerceInt.
func (o *Object) MethodInt(name, arg string) (int, error) {
	f, err := o.MethodFloat(name, arg)
	if err != nil {
		return 0, err
	}
	return CoerceInt(f), nil
}

// MethodStr runs a LabTalk object method with a string return.
func (o *Object) MethodStr(name, arg string) (string, error) {
	return o.handle.DoStrMethod(name, arg)
}

// Exec runs a LabTalk statement in the scope of the object.
func (o *Object) Exec(labtalk string) (bool, error) {
	return o.handle.Execute(labtalk)
}

func (o *Object) exec(labtalk string) error {
	_, err := o.handle.Execute(labtalk)
	return err
}

// UserTree returns the object's user tree. An object without one yields an
// empty tree.
func (o *Object) UserTree() (*etree.Element, error) {
	s, err := o.GetStr("tree")
	if err != nil {
		return nil, err
	}
	return tree.Parse(s)
}

func (o *Object) SetUserTree(root *etree.Element) error {
	s, err := tree.String(root)
	if err != nil {
		return err
	}
	return o.SetStr("tree", s)
}

// UserProps returns the user tree as a nested map.
func (o *Object) UserProps() (map[string]any, error) {
	root, err := o.UserTree()
	if err != nil {
		return nil, err
	}
	return tree.ToMap(root), nil
}

// SetUserProps replaces the user tree with the given map.
func (o *Object) SetUserProps(props map[string]any) error {
	root, err := tree.FromMap(tree.RootTag, props)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return o.SetUserTree(root)
}

// CoerceInt truncates f toward zero. Values with no integer representation
// (NaN, infinities, out of range) become 0 instead of failing; numeric
// accessors are best-effort.
func CoerceInt(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	t := math.Trunc(f)
	if t >= math.MaxInt64 || t < math.MinInt64 {
		return 0
	}
	return int(t)
}

func quotePath(path string) string {
	if path != "" && path[0] != '"' {
		return `"` + path + `"`
	}
	return path
}
