package simdjson

import (
	"fmt"
	"iter"
	"math"

	"github.com/biggeezerdevelopment/tapejson/internal/parser"
)

// Document is a parsed document: the tape and the string buffer it points
// into. A Document returned by a Parser is overwritten by the parser's next
// call; Clone detaches it.
type Document struct {
	tape    []uint64
	strings []byte
}

// Tape returns the raw tape entries.
func (d *Document) Tape() []uint64 {
	return d.tape
}

// Strings returns the raw string buffer.
func (d *Document) Strings() []byte {
	return d.strings
}

// Clone returns a copy that no parser will overwrite.
func (d *Document) Clone() *Document {
	return &Document{
		tape:    append([]uint64(nil), d.tape...),
		strings: append([]byte(nil), d.strings...),
	}
}

// Root returns an iterator positioned on the root value.
func (d *Document) Root() Iter {
	return Iter{doc: d, idx: 1}
}

// Interface converts the whole document to Go values, see Iter.Interface.
func (d *Document) Interface() (any, error) {
	return d.Root().Interface()
}

// Type is the JSON type of a value on the tape.
type Type uint8

const (
	TypeNone Type = iota
	TypeNull
	TypeBool
	TypeInt
	TypeUint
	TypeFloat
	TypeString
	TypeArray
	TypeObject
)

var typeNames = [...]string{
	TypeNone:   "none",
	TypeNull:   "null",
	TypeBool:   "bool",
	TypeInt:    "int",
	TypeUint:   "uint",
	TypeFloat:  "float",
	TypeString: "string",
	TypeArray:  "array",
	TypeObject: "object",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Iter points at one value on a document's tape.
type Iter struct {
	doc *Document
	idx int
}

func (it Iter) entry() uint64 {
	if it.doc == nil || it.idx <= 0 || it.idx >= len(it.doc.tape) {
		return 0
	}
	return it.doc.tape[it.idx]
}

func (it Iter) tag() parser.Tag {
	return parser.EntryTag(it.entry())
}

// Type returns the type of the current value.
func (it Iter) Type() Type {
	switch it.tag() {
	case parser.TagNull:
		return TypeNull
	case parser.TagTrue, parser.TagFalse:
		return TypeBool
	case parser.TagInt64:
		return TypeInt
	case parser.TagUint64:
		return TypeUint
	case parser.TagFloat64:
		return TypeFloat
	case parser.TagString:
		return TypeString
	case parser.TagArrayStart:
		return TypeArray
	case parser.TagObjectStart:
		return TypeObject
	}
	return TypeNone
}

func (it Iter) word() uint64 {
	return it.doc.tape[it.idx+1]
}

func (it Iter) typeError(want string) error {
	return fmt.Errorf("%w: value is %s, not %s", ErrInvalidArgument, it.Type(), want)
}

// Bool returns the value of a boolean.
func (it Iter) Bool() (bool, error) {
	switch it.tag() {
	case parser.TagTrue:
		return true, nil
	case parser.TagFalse:
		return false, nil
	}
	return false, it.typeError("bool")
}

// Int returns a number as int64. Floats must be integral and in range.
func (it Iter) Int() (int64, error) {
	switch it.tag() {
	case parser.TagInt64:
		return int64(it.word()), nil
	case parser.TagUint64:
		return 0, fmt.Errorf("%w: %d overflows int64", ErrInvalidArgument, it.word())
	case parser.TagFloat64:
		f := math.Float64frombits(it.word())
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %g is not an int64", ErrInvalidArgument, f)
		}
		return int64(f), nil
	}
	return 0, it.typeError("number")
}

// Uint returns a number as uint64.
func (it Iter) Uint() (uint64, error) {
	switch it.tag() {
	case parser.TagUint64:
		return it.word(), nil
	case parser.TagInt64:
		v := int64(it.word())
		if v < 0 {
			return 0, fmt.Errorf("%w: %d is negative", ErrInvalidArgument, v)
		}
		return uint64(v), nil
	case parser.TagFloat64:
		f := math.Float64frombits(it.word())
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return 0, fmt.Errorf("%w: %g is not a uint64", ErrInvalidArgument, f)
		}
		return uint64(f), nil
	}
	return 0, it.typeError("number")
}

// Float returns a number as float64.
func (it Iter) Float() (float64, error) {
	switch it.tag() {
	case parser.TagFloat64:
		return math.Float64frombits(it.word()), nil
	case parser.TagInt64:
		return float64(int64(it.word())), nil
	case parser.TagUint64:
		return float64(it.word()), nil
	}
	return 0, it.typeError("number")
}

// StringBytes returns a string value without copying. The slice aliases the
// document.
func (it Iter) StringBytes() ([]byte, error) {
	if it.tag() != parser.TagString {
		return nil, it.typeError("string")
	}
	return parser.StringAt(it.doc.strings, parser.EntryPayload(it.entry())), nil
}

// String returns a string value.
func (it Iter) String() (string, error) {
	b, err := it.StringBytes()
	return string(b), err
}

// Len returns the element count of an array or object. Counts beyond
// 0xFFFFFF are only exact after iterating.
func (it Iter) Len() int {
	switch it.tag() {
	case parser.TagArrayStart, parser.TagObjectStart:
		n := parser.ContainerCount(it.entry())
		if n < parser.MaxCount {
			return n
		}
		n = 0
		for range it.Elements() {
			n++
		}
		if it.tag() == parser.TagObjectStart {
			n /= 2
		}
		return n
	}
	return 0
}

// next returns the tape index just past the current value.
func (it Iter) next() int {
	e := it.entry()
	switch t := parser.EntryTag(e); {
	case t == parser.TagArrayStart || t == parser.TagObjectStart:
		return parser.ContainerEnd(e) + 1
	case t.HasValueWord():
		return it.idx + 2
	}
	return it.idx + 1
}

// Elements yields the values of an array, or keys and values in order for
// an object.
func (it Iter) Elements() iter.Seq[Iter] {
	return func(yield func(Iter) bool) {
		e := it.entry()
		switch parser.EntryTag(e) {
		case parser.TagArrayStart, parser.TagObjectStart:
		default:
			return
		}
		end := parser.ContainerEnd(e)
		for cur := (Iter{doc: it.doc, idx: it.idx + 1}); cur.idx < end; cur.idx = cur.next() {
			if !yield(cur) {
				return
			}
		}
	}
}

// Fields yields the members of an object in document order.
func (it Iter) Fields() iter.Seq2[string, Iter] {
	return func(yield func(string, Iter) bool) {
		if it.tag() != parser.TagObjectStart {
			return
		}
		var key string
		isKey := true
		for v := range it.Elements() {
			if isKey {
				key, _ = v.String()
			} else if !yield(key, v) {
				return
			}
			isKey = !isKey
		}
	}
}

// Get returns the value of the first member named key.
func (it Iter) Get(key string) (Iter, bool) {
	for k, v := range it.Fields() {
		if k == key {
			return v, true
		}
	}
	return Iter{}, false
}

// Index returns the i-th element of an array.
func (it Iter) Index(i int) (Iter, bool) {
	if it.tag() != parser.TagArrayStart || i < 0 {
		return Iter{}, false
	}
	for v := range it.Elements() {
		if i == 0 {
			return v, true
		}
		i--
	}
	return Iter{}, false
}

// Interface converts the current value to nil, bool, int64, uint64, float64,
// string, []any or map[string]any.
func (it Iter) Interface() (any, error) {
	switch it.Type() {
	case TypeNull:
		return nil, nil
	case TypeBool:
		return it.Bool()
	case TypeInt:
		return it.Int()
	case TypeUint:
		return it.Uint()
	case TypeFloat:
		return it.Float()
	case TypeString:
		return it.String()
	case TypeArray:
		out := make([]any, 0, min(it.Len(), parser.MaxCount))
		for v := range it.Elements() {
			x, err := v.Interface()
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case TypeObject:
		out := make(map[string]any, min(it.Len(), parser.MaxCount))
		for k, v := range it.Fields() {
			x, err := v.Interface()
			if err != nil {
				return nil, err
			}
			out[k] = x
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: no value", ErrInvalidArgument)
}
