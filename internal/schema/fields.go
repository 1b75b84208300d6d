// ABOUTME: Structural field readers over a gjson object
// ABOUTME: Enforces types, aliases (loose profile) and unknown-field rejection (strict profile)

package schema

import (
	"encoding/json"
	"math"

	"github.com/tidwall/gjson"
)

// maxSafeInt is the largest integer a JSON number carries without loss.
const maxSafeInt = 1 << 53

// fields reads typed values from one JSON object. Every lookup marks the
// canonical name and its aliases as declared so that finish can reject
// anything else under the strict profile.
type fields struct {
	obj      gjson.Result
	strict   bool
	declared map[string]bool
}

func newFields(obj gjson.Result, strict bool) *fields {
	return &fields{obj: obj, strict: strict, declared: map[string]bool{"method": true}}
}

// lookup returns the value for name, falling back to aliases in the loose
// profile. JSON null counts as absent.
func (f *fields) lookup(name string, aliases ...string) (gjson.Result, bool) {
	f.declared[name] = true
	if v := f.obj.Get(gjson.Escape(name)); v.Exists() && v.Type != gjson.Null {
		return v, true
	}
	if f.strict {
		return gjson.Result{}, false
	}
	for _, alias := range aliases {
		f.declared[alias] = true
		if v := f.obj.Get(gjson.Escape(alias)); v.Exists() && v.Type != gjson.Null {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func (f *fields) number(name string, aliases ...string) (float64, error) {
	v, ok := f.lookup(name, aliases...)
	if !ok {
		return 0, missing(name)
	}
	if v.Type != gjson.Number {
		return 0, invalid(name, "a number")
	}
	return v.Num, nil
}

func (f *fields) optNumber(name string) (*float64, error) {
	v, ok := f.lookup(name)
	if !ok {
		return nil, nil
	}
	if v.Type != gjson.Number {
		return nil, invalid(name, "a number")
	}
	n := v.Num
	return &n, nil
}

func (f *fields) integer(name string) (int, error) {
	v, ok := f.lookup(name)
	if !ok {
		return 0, missing(name)
	}
	return toInt(name, v)
}

func (f *fields) optInteger(name string) (*int, error) {
	v, ok := f.lookup(name)
	if !ok {
		return nil, nil
	}
	n, err := toInt(name, v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func toInt(name string, v gjson.Result) (int, error) {
	if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
		return 0, invalid(name, "an integer")
	}
	if math.Abs(v.Num) > maxSafeInt {
		return 0, invalid(name, "an integer in range")
	}
	return int(v.Num), nil
}

func (f *fields) boolean(name string, aliases ...string) (bool, error) {
	v, ok := f.lookup(name, aliases...)
	if !ok {
		return false, missing(name)
	}
	return toBool(name, v)
}

func (f *fields) optBoolean(name string, aliases ...string) (*bool, error) {
	v, ok := f.lookup(name, aliases...)
	if !ok {
		return nil, nil
	}
	b, err := toBool(name, v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func toBool(name string, v gjson.Result) (bool, error) {
	switch v.Type {
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	default:
		return false, invalid(name, "a boolean")
	}
}

func (f *fields) str(name string) (string, error) {
	v, ok := f.lookup(name)
	if !ok {
		return "", missing(name)
	}
	if v.Type != gjson.String {
		return "", invalid(name, "a string")
	}
	return v.Str, nil
}

func (f *fields) numbers(name string) ([]float64, error) {
	v, ok := f.lookup(name)
	if !ok {
		return nil, missing(name)
	}
	if !v.IsArray() {
		return nil, invalid(name, "a list of numbers")
	}
	items := v.Array()
	out := make([]float64, len(items))
	for i, item := range items {
		if item.Type != gjson.Number {
			return nil, invalid(name, "a list of numbers")
		}
		out[i] = item.Num
	}
	return out, nil
}

// records reads a list of opaque JSON values, each kept as its raw text.
// Under the strict profile every element must be an object.
func (f *fields) records(name string) ([]json.RawMessage, error) {
	v, ok := f.lookup(name)
	if !ok {
		return nil, missing(name)
	}
	if !v.IsArray() {
		return nil, invalid(name, "a list")
	}
	items := v.Array()
	out := make([]json.RawMessage, len(items))
	for i, item := range items {
		if f.strict && !item.IsObject() {
			return nil, invalid(name, "a list of objects")
		}
		out[i] = json.RawMessage(item.Raw)
	}
	return out, nil
}

// finish rejects undeclared fields under the strict profile.
func (f *fields) finish() error {
	if !f.strict {
		return nil
	}
	var err error
	f.obj.ForEach(func(key, _ gjson.Result) bool {
		if !f.declared[key.Str] {
			err = &ValidationError{Field: key.Str, Reason: "unknown field"}
			return false
		}
		return true
	})
	return err
}
