package manifest

import "reflect"

// WithValidProperties drops top-level entries that are nil, false, zero,
// empty strings, or empty slices and maps.
func WithValidProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if valid(v) {
			out[k] = v
		}
	}
	return out
}

func valid(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	case reflect.Struct:
		return true
	default:
		return !rv.IsZero()
	}
}
