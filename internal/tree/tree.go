// Package tree converts Origin property trees between their XML text form,
// etree elements and nested Go maps.
package tree

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/beevik/etree"
)

// RootTag is the tag Origin uses for the root of a user tree.
const RootTag = "OriginStorage"

// Empty returns a tree with no children.
func Empty() *etree.Element {
	return etree.NewElement(RootTag)
}

// Parse parses the XML dump of a tree. Blank input yields an empty tree.
func Parse(s string) (*etree.Element, error) {
	if strings.TrimSpace(s) == "" {
		return Empty(), nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		return nil, fmt.Errorf("failed to parse tree: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return Empty(), nil
	}
	return root, nil
}

// String serializes a tree to the XML text Origin accepts.
func String(root *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(root.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize tree: %w", err)
	}
	return s, nil
}

// ToMap converts the children of root into a nested map. Leaves become
// scalars (int, then float64, otherwise string); branches become maps.
func ToMap(root *etree.Element) map[string]any {
	m := map[string]any{}
	if root == nil {
		return m
	}
	for _, child := range root.ChildElements() {
		addNode(m, child)
	}
	return m
}

func addNode(m map[string]any, node *etree.Element) {
	children := node.ChildElements()
	if len(children) == 0 {
		m[node.Tag] = Scalar(node.Text())
		return
	}
	sub := map[string]any{}
	for _, child := range children {
		addNode(sub, child)
	}
	m[node.Tag] = sub
}

// Scalar converts leaf text to int or float64 when it parses as a finite
// number, and returns it unchanged otherwise.
func Scalar(text string) any {
	s := strings.TrimSpace(text)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return text
}

// ErrInvalidKey is returned by FromMap for a key that has no tree form.
var ErrInvalidKey = errors.New("invalid tree key")

// FromMap builds a tree whose root carries the given tag. Keys are emitted in
// sorted order. Keys must be XML names, and nested maps must not be empty
// since an empty branch reads back as an empty leaf.
func FromMap(rootTag string, m map[string]any) (*etree.Element, error) {
	if !ValidName(rootTag) {
		return nil, fmt.Errorf("%w: %q is not an XML name", ErrInvalidKey, rootTag)
	}
	root := etree.NewElement(rootTag)
	if err := fill(root, m, ""); err != nil {
		return nil, err
	}
	return root, nil
}

func fill(parent *etree.Element, m map[string]any, path string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !ValidName(k) {
			return fmt.Errorf("%w: %q is not an XML name", ErrInvalidKey, path+k)
		}
		el := parent.CreateElement(k)
		sub, ok := m[k].(map[string]any)
		if !ok {
			el.SetText(FormatScalar(m[k]))
			continue
		}
		if len(sub) == 0 {
			return fmt.Errorf("%w: %q is an empty branch", ErrInvalidKey, path+k)
		}
		if err := fill(el, sub, path+k+"."); err != nil {
			return err
		}
	}
	return nil
}

// ValidName reports whether s is an XML element name without a namespace
// prefix.
func ValidName(s string) bool {
	if s == "" || strings.HasPrefix(strings.ToLower(s), "xml") {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}

// FormatScalar renders a leaf value so that Scalar reads it back as the same
// Go type. Floats always keep a decimal point or exponent.
func FormatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
