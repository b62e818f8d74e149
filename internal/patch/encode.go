package patch

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/elemid"
)

// EncodeProps serializes all properties of the element into wire-safe
// values keyed by property name. Paths are derived from the keys, so the
// same property always yields the same callback reference.
func EncodeProps(id elemid.ID, props *component.Props) (map[string]any, error) {
	out := make(map[string]any, props.Len())
	for _, key := range props.Keys() {
		v, _ := props.Get(key)
		enc, err := EncodeValue(id, escapeSegment(key), v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
		out[key] = enc
	}
	return out, nil
}

// Wirer lets engine types declare their own wire form instead of being
// rejected as unsupported.
type Wirer interface {
	WireValue() any
}

// EncodeValue converts one property value into a wire-safe primitive. The
// path identifies where the value sits inside the element's properties and
// seeds callback references.
func EncodeValue(id elemid.ID, path string, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val, nil
	case elemid.ID:
		return string(val), nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			enc, err := EncodeValue(id, path+"["+strconv.Itoa(i)+"]", item)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(val))
		for _, k := range keys {
			enc, err := EncodeValue(id, path+"."+escapeSegment(k), val[k])
			if err != nil {
				return nil, err
			}
			out[k] = enc
		}
		return out, nil
	}

	if w, ok := v.(Wirer); ok {
		return EncodeValue(id, path, w.WireValue())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		return map[string]any{"__callback__": FormatRef(id, path)}, nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			enc, err := EncodeValue(id, path+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	}

	return nil, fmt.Errorf("unsupported property value type %T at %s", v, path)
}
