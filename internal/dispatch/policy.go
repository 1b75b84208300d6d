// ABOUTME: Result policies deciding which capability results count as failures
// ABOUTME: Loose mirrors truthiness of the robot SDK; strict only rejects nil and false

package dispatch

import "reflect"

// Policy decides whether a capability result is falsy.
type Policy string

// Policies.
const (
	// PolicyLoose treats nil, false, "", numeric zero and empty lists or
	// objects as failures.
	PolicyLoose Policy = "loose"
	// PolicyStrict treats only nil and false as failures.
	PolicyStrict Policy = "strict"
)

// Falsy reports whether result signals a failure under p.
func (p Policy) Falsy(result any) bool {
	if result == nil {
		return true
	}
	if b, ok := result.(bool); ok {
		return !b
	}
	if p != PolicyLoose {
		return false
	}

	v := reflect.ValueOf(result)
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
