package patch

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/elemid"
)

// A callback reference is "<element-id>:<property-path>". Path segments
// escape the characters that carry meaning in the path grammar, so the
// final ':' always separates id from path.

// segmentEscaper protects path grammar characters inside property keys.
// Single-pass, like the id escaper.
var segmentEscaper = strings.NewReplacer(
	"%", "%25",
	":", "%3A",
	".", "%2E",
	"[", "%5B",
	"]", "%5D",
)

func escapeSegment(key string) string {
	return segmentEscaper.Replace(key)
}

func unescapeSegment(seg string) string {
	if !strings.ContainsRune(seg, '%') {
		return seg
	}
	var sb strings.Builder
	sb.Grow(len(seg))
	for i := 0; i < len(seg); i++ {
		if seg[i] == '%' && i+2 < len(seg) {
			if b, err := strconv.ParseUint(seg[i+1:i+3], 16, 8); err == nil {
				sb.WriteByte(byte(b))
				i += 2
				continue
			}
		}
		sb.WriteByte(seg[i])
	}
	return sb.String()
}

// FormatRef builds the wire form of a callback reference.
func FormatRef(id elemid.ID, path string) string {
	return string(id) + ":" + path
}

// ParseRef splits a callback reference into element id and property path.
func ParseRef(ref string) (elemid.ID, string, error) {
	i := strings.LastIndexByte(ref, ':')
	if i < 0 || i == len(ref)-1 {
		return "", "", fmt.Errorf("malformed callback reference %q", ref)
	}
	return elemid.ID(ref[:i]), ref[i+1:], nil
}

// pathSegment is one step of a property path: a key plus optional indexes.
type pathSegment struct {
	key     string
	indexes []int
}

func parsePath(path string) ([]pathSegment, error) {
	if path == "" {
		return nil, fmt.Errorf("empty property path")
	}
	var segs []pathSegment
	for _, raw := range strings.Split(path, ".") {
		key := raw
		var indexes []int
		for {
			open := strings.LastIndexByte(key, '[')
			if open < 0 {
				break
			}
			if !strings.HasSuffix(key, "]") {
				return nil, fmt.Errorf("malformed path segment %q", raw)
			}
			idx, err := strconv.Atoi(key[open+1 : len(key)-1])
			if err != nil {
				return nil, fmt.Errorf("malformed path segment %q", raw)
			}
			indexes = append([]int{idx}, indexes...)
			key = key[:open]
		}
		if key == "" {
			return nil, fmt.Errorf("malformed path segment %q", raw)
		}
		segs = append(segs, pathSegment{key: unescapeSegment(key), indexes: indexes})
	}
	return segs, nil
}

// LookupPath resolves a property path against an element's live
// properties. This is how callback references are turned back into the
// current closure: by position, never by function identity.
func LookupPath(props *component.Props, path string) (any, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	cur, ok := props.Get(segs[0].key)
	if !ok {
		return nil, fmt.Errorf("no property %q", segs[0].key)
	}
	cur, err = descendIndexes(cur, segs[0])
	if err != nil {
		return nil, err
	}

	for _, seg := range segs[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("path step %q does not address a map", seg.key)
		}
		cur, ok = m[seg.key]
		if !ok {
			return nil, fmt.Errorf("no entry %q", seg.key)
		}
		cur, err = descendIndexes(cur, seg)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func descendIndexes(v any, seg pathSegment) (any, error) {
	for _, idx := range seg.indexes {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("path step %q[%d] does not address a list", seg.key, idx)
		}
		if idx < 0 || idx >= rv.Len() {
			return nil, fmt.Errorf("index %d out of range at %q", idx, seg.key)
		}
		v = rv.Index(idx).Interface()
	}
	return v, nil
}
