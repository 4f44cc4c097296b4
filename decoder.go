package simdjson

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

type decoder struct {
	parser *Parser
}

var decoderPool = sync.Pool{
	New: func() any {
		p, err := New()
		if err != nil {
			return nil
		}
		return &decoder{parser: p}
	},
}

func newDecoder() (*decoder, error) {
	d, _ := decoderPool.Get().(*decoder)
	if d == nil {
		p, err := New()
		if err != nil {
			return nil, err
		}
		d = &decoder{parser: p}
	}
	if b, _ := Active().(*backend); d.parser.impl != b {
		d.parser.bind(b)
	}
	return d, nil
}

func (d *decoder) release() {
	decoderPool.Put(d)
}

func (d *decoder) unmarshal(data []byte, v any) error {
	if err := checkTarget(v); err != nil {
		return err
	}
	doc, err := d.parser.Parse(data)
	if err != nil {
		return err
	}
	return decodeDocument(doc, v)
}

func checkTarget(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: unmarshal requires a non-nil pointer, got %T", ErrInvalidArgument, v)
	}
	return nil
}

// decodeDocument stores doc in the value v points to.
func decodeDocument(doc *Document, v any) error {
	if err := checkTarget(v); err != nil {
		return err
	}
	return decodeValue(doc.Root(), reflect.ValueOf(v).Elem())
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// decodeValue stores the value at it into dst.
func decodeValue(it Iter, dst reflect.Value) error {
	if it.Type() == TypeNull {
		switch dst.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			dst.Set(reflect.Zero(dst.Type()))
		}
		return nil
	}

	if dst.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return decodeValue(it, dst.Elem())
	}

	if it.Type() == TypeString && dst.CanAddr() && reflect.PointerTo(dst.Type()).Implements(textUnmarshalerType) {
		b, _ := it.StringBytes()
		return dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText(b)
	}

	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
		x, err := it.Interface()
		if err != nil {
			return err
		}
		if x != nil {
			dst.Set(reflect.ValueOf(x))
		}
		return nil
	}

	switch it.Type() {
	case TypeBool:
		return decodeBool(it, dst)
	case TypeInt, TypeUint, TypeFloat:
		return decodeNumber(it, dst)
	case TypeString:
		return decodeString(it, dst)
	case TypeArray:
		return decodeArray(it, dst)
	case TypeObject:
		return decodeObject(it, dst)
	}
	return fmt.Errorf("%w: unexpected %s value", ErrUnsupportedType, it.Type())
}

func mismatch(it Iter, dst reflect.Value) error {
	return fmt.Errorf("%w: cannot unmarshal %s into %s", ErrUnsupportedType, it.Type(), dst.Type())
}

func decodeBool(it Iter, dst reflect.Value) error {
	if dst.Kind() != reflect.Bool {
		return mismatch(it, dst)
	}
	b, _ := it.Bool()
	dst.SetBool(b)
	return nil
}

func decodeNumber(it Iter, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Float32, reflect.Float64:
		f, err := it.Float()
		if err != nil {
			return err
		}
		if dst.OverflowFloat(f) {
			return fmt.Errorf("%w: %g overflows %s", ErrUnsupportedType, f, dst.Type())
		}
		dst.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := it.Int()
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%w: %d overflows %s", ErrUnsupportedType, n, dst.Type())
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := it.Uint()
		if err != nil {
			return err
		}
		if dst.OverflowUint(n) {
			return fmt.Errorf("%w: %d overflows %s", ErrUnsupportedType, n, dst.Type())
		}
		dst.SetUint(n)
	default:
		return mismatch(it, dst)
	}
	return nil
}

func decodeString(it Iter, dst reflect.Value) error {
	b, _ := it.StringBytes()
	switch {
	case dst.Kind() == reflect.String:
		dst.SetString(string(b))
	case dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.Uint8:
		dst.SetBytes(append([]byte(nil), b...))
	default:
		return mismatch(it, dst)
	}
	return nil
}

func decodeArray(it Iter, dst reflect.Value) error {
	n := it.Len()
	switch dst.Kind() {
	case reflect.Slice:
		if dst.IsNil() || dst.Cap() < n {
			dst.Set(reflect.MakeSlice(dst.Type(), n, n))
		} else {
			dst.SetLen(n)
		}
	case reflect.Array:
		if dst.Len() < n {
			return fmt.Errorf("%w: %d elements do not fit %s", ErrUnsupportedType, n, dst.Type())
		}
		for i := n; i < dst.Len(); i++ {
			dst.Index(i).SetZero()
		}
	default:
		return mismatch(it, dst)
	}

	i := 0
	for v := range it.Elements() {
		if err := decodeValue(v, dst.Index(i)); err != nil {
			return err
		}
		i++
	}
	return nil
}

func decodeObject(it Iter, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Map:
		if dst.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%w: map key must be a string, got %s", ErrUnsupportedType, dst.Type().Key())
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMapWithSize(dst.Type(), it.Len()))
		}
		keyType, elemType := dst.Type().Key(), dst.Type().Elem()
		for k, v := range it.Fields() {
			elem := reflect.New(elemType).Elem()
			if err := decodeValue(v, elem); err != nil {
				return err
			}
			dst.SetMapIndex(reflect.ValueOf(k).Convert(keyType), elem)
		}
		return nil
	case reflect.Struct:
		return decodeStruct(it, dst)
	}
	return mismatch(it, dst)
}

// structFields maps JSON names to field indexes per struct type.
var structFields sync.Map

func fieldsOf(typ reflect.Type) map[string]int {
	if f, ok := structFields.Load(typ); ok {
		return f.(map[string]int)
	}
	fields := make(map[string]int, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = field.Name
		}
		fields[name] = i
	}
	f, _ := structFields.LoadOrStore(typ, fields)
	return f.(map[string]int)
}

func decodeStruct(it Iter, dst reflect.Value) error {
	fields := fieldsOf(dst.Type())
	for k, v := range it.Fields() {
		idx, ok := fields[k]
		if !ok {
			idx, ok = foldField(fields, k)
		}
		if !ok {
			continue
		}
		if err := decodeValue(v, dst.Field(idx)); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}
	return nil
}

// foldField matches names case-insensitively like encoding/json.
func foldField(fields map[string]int, key string) (int, bool) {
	for name, idx := range fields {
		if strings.EqualFold(name, key) {
			return idx, true
		}
	}
	return 0, false
}
