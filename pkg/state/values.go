package state

import "reflect"

// Values carries typed side values into an update cycle, one per Go type.
// A Values must not be modified while a cycle runs.
type Values struct {
	m map[reflect.Type]any
}

// NewValues returns an empty Values.
func NewValues() *Values {
	return &Values{m: make(map[reflect.Type]any)}
}

// Put stores v, replacing any value of the same type.
func Put[T any](vs *Values, v T) {
	if vs.m == nil {
		vs.m = make(map[reflect.Type]any)
	}
	vs.m[reflect.TypeFor[T]()] = v
}

// Lookup returns the value of type T.
func Lookup[T any](vs *Values) (T, bool) {
	if vs != nil {
		if v, ok := vs.m[reflect.TypeFor[T]()]; ok {
			return v.(T), true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of stored values.
func (vs *Values) Len() int {
	if vs == nil {
		return 0
	}
	return len(vs.m)
}
