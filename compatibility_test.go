package simdjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"golang.org/x/sync/errgroup"
)

// TestCompatibilityWithStandardLibrary checks that decoding into an empty
// interface matches encoding/json up to number representation.
func TestCompatibilityWithStandardLibrary(t *testing.T) {
	testCases := []struct {
		name string
		json string
	}{
		{"null", "null"},
		{"true", "true"},
		{"false", "false"},
		{"zero", "0"},
		{"positive_int", "42"},
		{"negative_int", "-123"},
		{"float", "3.14"},
		{"string", `"hello"`},
		{"empty_string", `""`},

		{"empty_object", "{}"},
		{"simple_object", `{"key":"value"}`},
		{"nested_object", `{"outer":{"inner":"value"}}`},

		{"empty_array", "[]"},
		{"number_array", "[1,2,3]"},
		{"mixed_array", `[1,"two",true,null]`},

		{"complex", `{
			"name": "Alice",
			"age": 30,
			"active": true,
			"scores": [85, 92, 78],
			"address": {
				"street": "123 Main St",
				"city": "Boston",
				"zip": "02101"
			},
			"metadata": null
		}`},

		{"whitespace", " \t\n{\n\t \"key\" \t:\n \"value\" \t\n} \n\t "},

		{"large_int", "9223372036854775807"},
		{"scientific", "1.23e-10"},
		{"negative_scientific", "-1.23e+10"},

		{"unicode", `{"text":"Hello 世界 🌍"}`},
		{"unicode_escapes", `{"e":"\u00e9","pair":"\ud83d\ude00"}`},

		{"escaped", `{"quote":"He said \"Hello\"","backslash":"path\\to\\file","newline":"line1\nline2"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var stdResult any
			stdErr := json.Unmarshal([]byte(tc.json), &stdResult)

			var ourResult any
			ourErr := Unmarshal([]byte(tc.json), &ourResult)

			if (stdErr == nil) != (ourErr == nil) {
				t.Fatalf("Error mismatch: std=%v, ours=%v", stdErr, ourErr)
			}
			if stdErr == nil && !deepEqual(stdResult, ourResult) {
				t.Errorf("Result mismatch:\nStd:  %#v\nOurs: %#v", stdResult, ourResult)
			}
		})
	}
}

func TestValidationCompatibility(t *testing.T) {
	testCases := []struct {
		name string
		json string
	}{
		{"valid_null", "null"},
		{"valid_bool", "true"},
		{"valid_number", "42"},
		{"valid_string", `"hello"`},
		{"valid_array", "[1,2,3]"},
		{"valid_object", `{"key":"value"}`},
		{"valid_exponent", `[1E+2,-0.5e-7]`},

		{"invalid_empty", ""},
		{"invalid_trailing_comma", `{"key":"value",}`},
		{"invalid_missing_quote", `{"key:value}`},
		{"invalid_unclosed_object", `{"key":"value"`},
		{"invalid_unclosed_array", `[1,2,3`},
		{"invalid_number", "12."},
		{"invalid_exponent", "1e"},
		{"invalid_escape", `{"key":"val\ue"}`},
		{"invalid_unicode", `{"key":"\u12"}`},
		{"invalid_duplicate_comma", `[1,,2]`},
		{"invalid_leading_zero", `{"num":01}`},
		{"invalid_plus", `+1`},
		{"invalid_literal_case", `True`},
		{"invalid_two_values", `1 2`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stdValid := json.Valid([]byte(tc.json))
			ourValid := Valid([]byte(tc.json))

			if stdValid != ourValid {
				t.Errorf("Validation mismatch for %q: std=%v, ours=%v", tc.json, stdValid, ourValid)
			}
		})
	}
}

func TestStructUnmarshalling(t *testing.T) {
	type Address struct {
		Street string `json:"street"`
		City   string `json:"city"`
	}
	type Person struct {
		Name    string            `json:"name"`
		Age     int               `json:"age"`
		Active  bool              `json:"active"`
		Score   float32           `json:"score"`
		Tags    []string          `json:"tags"`
		Extra   map[string]any    `json:"extra"`
		Labels  map[string]string `json:"labels"`
		Address Address           `json:"address"`
		Manager *Address          `json:"manager"`
		Nick    *string           `json:"nick"`
		Skipped string            `json:"-"`
		Upper   int
	}

	data := []byte(`{
		"name": "Alice", "age": 30, "active": true, "score": 9.5,
		"tags": ["a", "b"], "extra": {"n": 1}, "labels": {"team": "core"},
		"address": {"street": "123 Main St", "city": "Boston"},
		"manager": {"city": "Denver"}, "nick": null, "Skipped": "no",
		"upper": 7, "unknown": [1, 2]
	}`)

	var std, ours Person
	if err := json.Unmarshal(data, &std); err != nil {
		t.Fatal(err)
	}
	if err := Unmarshal(data, &ours); err != nil {
		t.Fatal(err)
	}
	if !deepEqual(std.Extra, ours.Extra) {
		t.Errorf("Extra mismatch: std=%v ours=%v", std.Extra, ours.Extra)
	}
	std.Extra, ours.Extra = nil, nil
	if !reflect.DeepEqual(std, ours) {
		t.Errorf("Struct mismatch:\nStd:  %+v\nOurs: %+v", std, ours)
	}

	var wrong struct {
		Age string `json:"age"`
	}
	if err := Unmarshal(data, &wrong); err == nil {
		t.Error("decoding a number into a string field succeeded")
	}
	var small struct {
		Age int8 `json:"age"`
	}
	if err := Unmarshal([]byte(`{"age":300}`), &small); err == nil {
		t.Error("decoding 300 into int8 succeeded")
	}
	if err := Unmarshal(data, ours); err == nil {
		t.Error("Unmarshal into a non-pointer succeeded")
	}
}

func TestEdgeCases(t *testing.T) {
	testCases := []struct {
		name        string
		json        string
		shouldError bool
	}{
		{"deeply_nested", createDeeplyNested(10), false},
		{"nested_at_limit", createDeeplyNested(DefaultMaxDepth), false},
		{"large_array", createLargeArray(1000), false},
		{"unicode_keys", `{"键":"值","🔑":"🎁"}`, false},
		{"all_escapes", `{"test":"\"\\\/\b\f\n\r\t\u0041"}`, false},

		{"too_deep", createDeeplyNested(DefaultMaxDepth + 1), true},
		{"control_chars", "{\"key\":\"value\x00\"}", true},
		{"lone_surrogate", `{"test":"\uD800"}`, true},
		{"invalid_surrogate_pair", `{"test":"\uD800\u0041"}`, true},
		{"lone_low_surrogate", `{"test":"\uDC00"}`, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var ourResult any
			ourErr := Unmarshal([]byte(tc.json), &ourResult)
			if (ourErr != nil) != tc.shouldError {
				t.Fatalf("Unmarshal error = %v, shouldError %v", ourErr, tc.shouldError)
			}
			if ourErr != nil {
				return
			}
			var stdResult any
			if err := json.Unmarshal([]byte(tc.json), &stdResult); err != nil {
				t.Fatalf("encoding/json rejected valid input: %v", err)
			}
			if !deepEqual(stdResult, ourResult) {
				t.Errorf("Results differ for valid input")
			}
		})
	}
}

func TestRandomJSONCompatibility(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}
	r := rand.New(rand.NewPCG(7, 11))

	for i := range 100 {
		jsonData := generateRandomValue(r, 5, 10)
		t.Run(fmt.Sprintf("random_%d", i), func(t *testing.T) {
			var stdResult, ourResult any
			stdErr := json.Unmarshal(jsonData, &stdResult)
			ourErr := Unmarshal(jsonData, &ourResult)

			if (stdErr == nil) != (ourErr == nil) {
				t.Errorf("Error mismatch for JSON: %s", jsonData)
				t.Logf("Standard error: %v", stdErr)
				t.Logf("Our error: %v", ourErr)
			}
			if stdErr == nil && !deepEqual(stdResult, ourResult) {
				t.Errorf("Results differ for JSON: %s", jsonData)
			}

			var compact bytes.Buffer
			if err := json.Compact(&compact, jsonData); err != nil {
				t.Fatal(err)
			}
			minified, err := Minify(jsonData)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(compact.Bytes(), minified) {
				t.Errorf("Minify = %s, json.Compact = %s", minified, compact.Bytes())
			}
		})
	}
}

func TestMinifyTo(t *testing.T) {
	src := []byte("{ \"a b\" : [ 1 , \"x\\\" y\" ] }\n")
	dst := make([]byte, len(src))
	n, err := MinifyTo(dst, src)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(dst[:n]); got != `{"a b":[1,"x\" y"]}` {
		t.Errorf("MinifyTo = %s", got)
	}
	if _, err := MinifyTo(make([]byte, 3), src); err == nil {
		t.Error("MinifyTo into a short buffer succeeded")
	}
	if _, err := Minify([]byte("[\"\xff\"]")); err == nil {
		t.Error("Minify accepted invalid UTF-8")
	}
}

// TestConcurrentParsers runs one parser per goroutine alongside the pooled
// package functions.
func TestConcurrentParsers(t *testing.T) {
	jsonData := []byte(`{"users":[` + strings.Repeat(`{"id":1,"name":"Alice","tags":["a","b"]},`, 50) + `{"id":2}]}`)
	var want any
	if err := Unmarshal(jsonData, &want); err != nil {
		t.Fatal(err)
	}

	var g errgroup.Group
	for range runtime.GOMAXPROCS(0) * 2 {
		g.Go(func() error {
			p, err := New()
			if err != nil {
				return err
			}
			for range 50 {
				doc, err := p.Parse(jsonData)
				if err != nil {
					return err
				}
				got, err := doc.Interface()
				if err != nil {
					return err
				}
				if !reflect.DeepEqual(want, got) {
					return fmt.Errorf("parser result differs")
				}
				var pooled any
				if err := Unmarshal(jsonData, &pooled); err != nil {
					return err
				}
				if !reflect.DeepEqual(want, pooled) {
					return fmt.Errorf("pooled result differs")
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func deepEqual(a, b any) bool {
	return reflect.DeepEqual(normalizeNumbers(a), normalizeNumbers(b))
}

// normalizeNumbers converts all numbers to float64 for comparison.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case int, int8, int16, int32, int64:
		return float64(reflect.ValueOf(val).Int())
	case uint, uint8, uint16, uint32, uint64:
		return float64(reflect.ValueOf(val).Uint())
	case float32:
		return float64(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = normalizeNumbers(item)
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, item := range val {
			result[k] = normalizeNumbers(item)
		}
		return result
	default:
		return v
	}
}

func createDeeplyNested(depth int) string {
	var buf bytes.Buffer
	for range depth {
		buf.WriteString(`{"level":`)
	}
	buf.WriteString("42")
	for range depth {
		buf.WriteString("}")
	}
	return buf.String()
}

func createLargeArray(size int) string {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i := range size {
		if i > 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, "%d", i)
	}
	buf.WriteString("]")
	return buf.String()
}

func generateRandomValue(r *rand.Rand, maxDepth, maxWidth int) []byte {
	if maxDepth <= 0 || r.IntN(4) == 0 {
		switch r.IntN(6) {
		case 0:
			return []byte("null")
		case 1:
			if r.IntN(2) == 0 {
				return []byte("true")
			}
			return []byte("false")
		case 2:
			return []byte(fmt.Sprintf("%d", r.IntN(1000)-500))
		case 3:
			return []byte(fmt.Sprintf("%.2f", r.Float64()*1000-500))
		case 4:
			return []byte(fmt.Sprintf("%de%d", r.IntN(100), r.IntN(20)-10))
		default:
			return []byte(fmt.Sprintf(`"string \t%d \u00e9 \"q\""`, r.IntN(100)))
		}
	}

	var buf bytes.Buffer
	width := r.IntN(maxWidth) + 1
	if r.IntN(2) == 0 {
		buf.WriteString("[ ")
		for i := range width {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.Write(generateRandomValue(r, maxDepth-1, maxWidth))
		}
		buf.WriteString("]")
		return buf.Bytes()
	}

	buf.WriteString("{\n")
	for i := range width {
		if i > 0 {
			buf.WriteString(",\n")
		}
		fmt.Fprintf(&buf, `"key_%d": `, r.IntN(100))
		buf.Write(generateRandomValue(r, maxDepth-1, maxWidth))
	}
	buf.WriteString("}")
	return buf.Bytes()
}
