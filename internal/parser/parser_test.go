package parser

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/biggeezerdevelopment/tapejson/internal/isa"
	"github.com/biggeezerdevelopment/tapejson/internal/jsonerr"
	"github.com/biggeezerdevelopment/tapejson/internal/scanner"
)

func build(in string, tier isa.Tier, maxDepth int) (*Parser, error) {
	s := scanner.New(tier)
	if err := s.Scan([]byte(in), scanner.ModeWhole); err != nil {
		return nil, err
	}
	p := New(scanner.FinderFor(tier), maxDepth)
	return p, p.Build([]byte(in), s.GetStructuralIndices())
}

// decode walks the tape from index i and returns the value there and the
// index after it.
func decode(p *Parser, i int) (any, int) {
	e := p.Tape[i]
	switch tag := EntryTag(e); tag {
	case TagObjectStart:
		m := map[string]any{}
		end := ContainerEnd(e)
		for j := i + 1; j < end; {
			k := string(StringAt(p.Strings, EntryPayload(p.Tape[j])))
			var v any
			v, j = decode(p, j+1)
			m[k] = v
		}
		return m, end + 1
	case TagArrayStart:
		a := []any{}
		end := ContainerEnd(e)
		for j := i + 1; j < end; {
			var v any
			v, j = decode(p, j)
			a = append(a, v)
		}
		return a, end + 1
	case TagString:
		return string(StringAt(p.Strings, EntryPayload(e))), i + 1
	case TagInt64:
		return int64(p.Tape[i+1]), i + 2
	case TagUint64:
		return p.Tape[i+1], i + 2
	case TagFloat64:
		return math.Float64frombits(p.Tape[i+1]), i + 2
	case TagTrue:
		return true, i + 1
	case TagFalse:
		return false, i + 1
	case TagNull:
		return nil, i + 1
	default:
		panic(fmt.Sprintf("unexpected tag %q at %d", byte(tag), i))
	}
}

func root(p *Parser) any {
	v, _ := decode(p, 1)
	return v
}

func TestParser_TapeLayout(t *testing.T) {
	p, err := build(`{"a":[1,true]}`, isa.TierScalar, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{
		Entry(TagRoot, 9),
		Entry(TagObjectStart, ContainerPayload(1, 8)),
		Entry(TagString, 0),
		Entry(TagArrayStart, ContainerPayload(2, 7)),
		Entry(TagInt64, 0), 1,
		Entry(TagTrue, 0),
		Entry(TagArrayEnd, 3),
		Entry(TagObjectEnd, 1),
		Entry(TagRoot, 0),
	}
	if diff := cmp.Diff(want, p.Tape); diff != "" {
		t.Errorf("tape mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{1, 0, 0, 0, 'a'}, p.Strings); diff != "" {
		t.Errorf("string buffer mismatch (-want +got):\n%s", diff)
	}
}

func TestParser_Basic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"null", "null", nil},
		{"true", "true", true},
		{"false", " false ", false},
		{"integer", "42", int64(42)},
		{"negative integer", "-123", int64(-123)},
		{"float", "3.14", 3.14},
		{"string", `"hello"`, "hello"},
		{"empty string", `""`, ""},
		{"simple object", `{"key":"value"}`, map[string]any{"key": "value"}},
		{"simple array", `[1,2,3]`, []any{int64(1), int64(2), int64(3)}},
		{"empty containers", `[{},[],{"a":[]}]`, []any{map[string]any{}, []any{}, map[string]any{"a": []any{}}}},
		{"nested", `{"users":[{"id":1,"tags":["x",null]}],"ok":false}`, map[string]any{
			"users": []any{map[string]any{"id": int64(1), "tags": []any{"x", nil}}},
			"ok":    false,
		}},
	}

	for _, tier := range isa.Tiers() {
		for _, tt := range tests {
			t.Run(tier.String()+"/"+tt.name, func(t *testing.T) {
				p, err := build(tt.input, tier, 16)
				if err != nil {
					t.Fatalf("Parse failed: %v", err)
				}
				if diff := cmp.Diff(tt.expected, root(p)); diff != "" {
					t.Errorf("(-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestParser_Numbers(t *testing.T) {
	tests := []struct {
		input string
		tag   Tag
		value any
	}{
		{"0", TagInt64, int64(0)},
		{"-0", TagInt64, int64(0)},
		{"123", TagInt64, int64(123)},
		{"-456", TagInt64, int64(-456)},
		{"9223372036854775807", TagInt64, int64(math.MaxInt64)},
		{"-9223372036854775808", TagInt64, int64(math.MinInt64)},
		{"9223372036854775808", TagUint64, uint64(1 << 63)},
		{"18446744073709551615", TagUint64, uint64(math.MaxUint64)},
		{"18446744073709551616", TagFloat64, 18446744073709551616.0},
		{"-9223372036854775809", TagFloat64, -9223372036854775809.0},
		{"1.5", TagFloat64, 1.5},
		{"-2.5", TagFloat64, -2.5},
		{"1e10", TagFloat64, 1e10},
		{"1E+10", TagFloat64, 1e10},
		{"2.5e-3", TagFloat64, 2.5e-3},
		{"1e400", TagFloat64, math.Inf(1)},
		{"-1e400", TagFloat64, math.Inf(-1)},
		{"1e-400", TagFloat64, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := build(tt.input, isa.TierScalar, 1)
			if err != nil {
				t.Fatal(err)
			}
			if got := EntryTag(p.Tape[1]); got != tt.tag {
				t.Errorf("tag: expected %q, got %q", tt.tag, got)
			}
			if diff := cmp.Diff(tt.value, root(p)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		err    error
		offset int
	}{
		{"trailing comma in object", `{"a":1,}`, jsonerr.ErrMalformed, 6},
		{"trailing comma in array", `[1,]`, jsonerr.ErrMalformed, 2},
		{"missing colon", `{"a"}`, jsonerr.ErrMalformed, 4},
		{"missing comma", `{"a":1 "b":2}`, jsonerr.ErrMalformed, 7},
		{"non-string key", `{1:2}`, jsonerr.ErrMalformed, 1},
		{"unmatched bracket", `[1}`, jsonerr.ErrMalformed, 2},
		{"content after root", `[1]]`, jsonerr.ErrMalformed, 3},
		{"two roots", `1 2`, jsonerr.ErrMalformed, 2},
		{"unexpected end", `[1,`, jsonerr.ErrMalformed, 3},
		{"value expected", `{"a":}`, jsonerr.ErrMalformed, 5},
		{"truncated literal", `tru`, jsonerr.ErrMalformed, 0},
		{"misspelled literal", `[nul1]`, jsonerr.ErrMalformed, 1},
		{"literal run-on", `[truex]`, jsonerr.ErrMalformed, 5},
		{"capitalised literal", `True`, jsonerr.ErrMalformed, 0},
		{"leading zero", `01`, jsonerr.ErrMalformed, 0},
		{"bare minus", `[-]`, jsonerr.ErrMalformed, 1},
		{"dangling fraction", `1.`, jsonerr.ErrMalformed, 0},
		{"dangling exponent", `1e+`, jsonerr.ErrMalformed, 0},
		{"number then quote", `[1"a"]`, jsonerr.ErrMalformed, 1},
		{"control character", "\"a\x01\"", jsonerr.ErrMalformed, 2},
		{"invalid escape", `"\q"`, jsonerr.ErrMalformed, 1},
		{"short unicode escape", `"\u12"`, jsonerr.ErrMalformed, 1},
		{"lone high surrogate", `"\ud800"`, jsonerr.ErrMalformed, 1},
		{"lone low surrogate", `"\udc00"`, jsonerr.ErrMalformed, 1},
		{"high surrogate then letter", `"\ud800A"`, jsonerr.ErrMalformed, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := build(tt.input, isa.TierScalar, 16)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if got := jsonerr.Offset(err); got != tt.offset {
				t.Errorf("offset: expected %d, got %d (%v)", tt.offset, got, err)
			}
		})
	}
}

func TestParser_Depth(t *testing.T) {
	tests := []struct {
		input    string
		maxDepth int
		err      error
	}{
		{`[[[]]]`, 2, jsonerr.ErrDepth},
		{`[[]]`, 2, nil},
		{`[[[]]]`, 3, nil},
		{`{"a":{"b":{}}}`, 2, jsonerr.ErrDepth},
		{`1`, 1, nil},
		{`[]`, 1, nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.input, tt.maxDepth), func(t *testing.T) {
			_, err := build(tt.input, isa.TierScalar, tt.maxDepth)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestParser_Strings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"plain"`, "plain"},
		{`"\"\\\/\b\f\n\r\t"`, "\"\\/\b\f\n\r\t"},
		{`"Aé日"`, "Aé日"},
		{`"😀"`, "😀"},
		{`"𝄞"`, "𝄞"},
		{`"mixed é and é"`, "mixed é and é"},
		{`"\u0000"`, "\x00"},
	}
	for _, tier := range isa.Tiers() {
		for _, tt := range tests {
			t.Run(tier.String()+"/"+tt.input, func(t *testing.T) {
				p, err := build(tt.input, tier, 1)
				if err != nil {
					t.Fatal(err)
				}
				if got := root(p); got != tt.expected {
					t.Errorf("expected %q, got %q", tt.expected, got)
				}
			})
		}
	}
}

// escape is the canonical JSON escaping the round-trip test compares
// against: short escapes where they exist, \u for everything else outside
// printable ASCII, surrogate pairs above U+FFFF.
func escape(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '/':
			b.WriteString(`\/`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			switch {
			case r >= 0x20 && r < 0x7f:
				b.WriteRune(r)
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
			default:
				fmt.Fprintf(&b, `\u%04x`, r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func TestParser_EscapeRoundTrip(t *testing.T) {
	inputs := []string{
		`"\"\\\/\b\f\n\r\t"`,
		`"\u0001\u001f\u007f"`,
		`"caf\u00e9 \u65e5\u672c"`,
		`"\ud83d\ude00 \ud834\udd1e \udbff\udfff"`,
		`"a\/b\\c\"d"`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			p, err := build(in, isa.TierScalar, 1)
			if err != nil {
				t.Fatal(err)
			}
			s := root(p).(string)
			if !utf8.ValidString(s) {
				t.Fatalf("unescaped value %q is not valid UTF-8", s)
			}
			if got := escape(s); got != in {
				t.Errorf("round trip: expected %s, got %s", in, got)
			}
		})
	}
}

func TestParser_LaneBoundaryString(t *testing.T) {
	for _, width := range []int{8, 16, 32, 64} {
		for shift := -2; shift <= 2; shift++ {
			// the escaped backslash lands on the lane boundary
			body := strings.Repeat("a", width-2+shift) + `\\` + strings.Repeat("b", width)
			in := `["` + body + `",1]`

			var first any
			for _, tier := range isa.Tiers() {
				p, err := build(in, tier, 4)
				if err != nil {
					t.Fatalf("width %d shift %d tier %s: %v", width, shift, tier, err)
				}
				got := root(p)
				if first == nil {
					first = got
					want := []any{strings.Repeat("a", width-2+shift) + `\` + strings.Repeat("b", width), int64(1)}
					if diff := cmp.Diff(want, got); diff != "" {
						t.Fatalf("width %d shift %d (-want +got):\n%s", width, shift, diff)
					}
					continue
				}
				if diff := cmp.Diff(first, got); diff != "" {
					t.Errorf("tier %s differs (-first +got):\n%s", tier, diff)
				}
			}
		}
	}
}

func TestParser_BuildNext(t *testing.T) {
	in := []byte("{\"a\":1}\n{\"b\":2}")
	s := scanner.New(isa.TierScalar)
	if err := s.Scan(in, scanner.ModeWhole); err != nil {
		t.Fatal(err)
	}
	idx := s.GetStructuralIndices()
	p := New(nil, 8)

	next, err := p.BuildNext(in, idx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if next != 5 || p.End() != 7 {
		t.Errorf("first document: next=%d end=%d, expected 5 and 7", next, p.End())
	}
	if diff := cmp.Diff(map[string]any{"a": int64(1)}, root(p)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	next, err = p.BuildNext(in, idx, next)
	if err != nil {
		t.Fatal(err)
	}
	if next != len(idx) || p.End() != len(in) {
		t.Errorf("second document: next=%d end=%d", next, p.End())
	}
	if diff := cmp.Diff(map[string]any{"b": int64(2)}, root(p)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if _, err := p.BuildNext(in, idx, next); !errors.Is(err, jsonerr.ErrEmpty) {
		t.Errorf("past the last document: expected ErrEmpty, got %v", err)
	}
}

func TestParser_ReuseIsTransparent(t *testing.T) {
	small := `{"k":[1,"two",3.5,null]}`
	large := `[` + strings.Repeat(`{"x":"yyyyyyyy","z":[1,2,3]},`, 200) + `0]`

	fresh, err := build(small, isa.TierScalar, 8)
	if err != nil {
		t.Fatal(err)
	}

	s := scanner.New(isa.TierScalar)
	reused := New(nil, 8)
	reused.Reserve(len(large), 8)
	for _, in := range []string{large, small} {
		if err := s.Scan([]byte(in), scanner.ModeWhole); err != nil {
			t.Fatal(err)
		}
		if err := reused.Build([]byte(in), s.GetStructuralIndices()); err != nil {
			t.Fatal(err)
		}
	}

	if diff := cmp.Diff(fresh.Tape, reused.Tape); diff != "" {
		t.Errorf("tape differs after reuse (-fresh +reused):\n%s", diff)
	}
	if diff := cmp.Diff(fresh.Strings, reused.Strings); diff != "" {
		t.Errorf("strings differ after reuse (-fresh +reused):\n%s", diff)
	}
}

func TestContainerPayload(t *testing.T) {
	e := Entry(TagArrayStart, ContainerPayload(MaxCount+10, 1234))
	if got := ContainerCount(e); got != MaxCount {
		t.Errorf("count: expected saturation at %d, got %d", MaxCount, got)
	}
	if got := ContainerEnd(e); got != 1234 {
		t.Errorf("end: expected 1234, got %d", got)
	}
	if got := EntryTag(e); got != TagArrayStart {
		t.Errorf("tag: expected %q, got %q", TagArrayStart, got)
	}
}

func BenchmarkParser(b *testing.B) {
	in := []byte(`[` + strings.Repeat(`{"id":12345,"name":"bench \"q\"","vals":[1.5,-2,true,null]},`, 500) + `0]`)
	s := scanner.New(isa.TierScalar)
	if err := s.Scan(in, scanner.ModeWhole); err != nil {
		b.Fatal(err)
	}
	idx := s.GetStructuralIndices()
	p := New(nil, 64)
	p.Reserve(len(in), 64)
	b.SetBytes(int64(len(in)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := p.Build(in, idx); err != nil {
			b.Fatal(err)
		}
	}
}
