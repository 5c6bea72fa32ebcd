package origin

import (
	"fmt"
	"reflect"
	"strconv"
)

// DataFormat is Origin's internal storage code for numeric data.
type DataFormat int

const (
	DFDouble  DataFormat = 0
	DFFloat   DataFormat = 1
	DFShort   DataFormat = 2
	DFLong    DataFormat = 3
	DFChar    DataFormat = 4
	DFText    DataFormat = 5
	DFMixed   DataFormat = 6
	DFByte    DataFormat = 7
	DFUShort  DataFormat = 8
	DFULong   DataFormat = 9
	DFComplex DataFormat = 10
)

var formatToType = map[DataFormat]reflect.Type{
	DFDouble:  reflect.TypeOf(float64(0)),
	DFFloat:   reflect.TypeOf(float32(0)),
	DFShort:   reflect.TypeOf(int16(0)),
	DFLong:    reflect.TypeOf(int32(0)),
	DFChar:    reflect.TypeOf(int8(0)),
	DFByte:    reflect.TypeOf(uint8(0)),
	DFUShort:  reflect.TypeOf(uint16(0)),
	DFULong:   reflect.TypeOf(uint32(0)),
	DFComplex: reflect.TypeOf(complex128(0)),
}

var typeToFormat = func() map[reflect.Type]DataFormat {
	m := make(map[reflect.Type]DataFormat, len(formatToType)+1)
	for df, t := range formatToType {
		m[t] = df
	}
	// Origin has no 64-bit integer storage.
	m[reflect.TypeOf(int64(0))] = DFLong
	return m
}()

// NumericFormats lists every code that maps to a Go element type.
func NumericFormats() []DataFormat {
	return []DataFormat{DFDouble, DFFloat, DFShort, DFLong, DFChar, DFByte, DFUShort, DFULong, DFComplex}
}

func (df DataFormat) String() string {
	switch df {
	case DFText:
		return "text"
	case DFMixed:
		return "mixed"
	}
	if t, ok := formatToType[df]; ok {
		return t.String()
	}
	return "DataFormat(" + strconv.Itoa(int(df)) + ")"
}

// FormatOf returns the storage code for a Go element type.
func FormatOf(t reflect.Type) (DataFormat, error) {
	if df, ok := typeToFormat[t]; ok {
		return df, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnsupportedType, t)
}

// ElemType returns the Go element type for a storage code.
func ElemType(df DataFormat) (reflect.Type, error) {
	if t, ok := formatToType[df]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, df)
}

// ToAnySlice flattens a typed numeric slice for transfer to the host and
// reports its storage code.
func ToAnySlice(data any) ([]any, DataFormat, error) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return nil, 0, fmt.Errorf("%w: %T is not a slice", ErrUnsupportedType, data)
	}
	df, err := FormatOf(v.Type().Elem())
	if err != nil {
		return nil, 0, err
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out, df, nil
}

// MakeSlice builds a typed slice ([]float64, []int16, ...) from host values.
func MakeSlice(values []any, df DataFormat) (any, error) {
	t, err := ElemType(df)
	if err != nil {
		return nil, err
	}
	out := reflect.MakeSlice(reflect.SliceOf(t), len(values), len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if !rv.CanConvert(t) {
			return nil, fmt.Errorf("%w: element %d is %T, want %v", ErrUnsupportedType, i, v, t)
		}
		out.Index(i).Set(rv.Convert(t))
	}
	return out.Interface(), nil
}

// FormatOfValues infers the storage code of values read back from the host.
// Nil elements are ignored; strings or a mix of types give DFText or DFMixed.
func FormatOfValues(values []any) DataFormat {
	df, seen := DFDouble, false
	for _, v := range values {
		if v == nil {
			continue
		}
		var cur DataFormat
		if _, ok := v.(string); ok {
			cur = DFText
		} else if f, ok := typeToFormat[reflect.TypeOf(v)]; ok {
			cur = f
		} else {
			return DFMixed
		}
		if seen && cur != df {
			return DFMixed
		}
		df, seen = cur, true
	}
	return df
}
