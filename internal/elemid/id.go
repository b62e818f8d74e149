package elemid

import "strings"

// ID is the canonical string form of an element's position identity.
type ID string

// Root builds the id of a tree root rendered from the named component.
func Root(component string) ID {
	return ID("0@" + component)
}

// Child builds the id of an element collected under parent at the given
// segment. The segment is a position counter rendered in decimal, or an
// already-escaped key.
func Child(parent ID, segment string, component string) ID {
	var sb strings.Builder
	sb.Grow(len(parent) + len(segment) + len(component) + 2)
	sb.WriteString(string(parent))
	sb.WriteByte('/')
	sb.WriteString(segment)
	sb.WriteByte('@')
	sb.WriteString(component)
	return ID(sb.String())
}

// Depth reports how many ancestors the id has. A root id has depth zero.
func (id ID) Depth() int {
	return strings.Count(string(id), "/")
}

// Parent returns the id of the enclosing element, or "" for a root.
func (id ID) Parent() ID {
	i := strings.LastIndexByte(string(id), '/')
	if i < 0 {
		return ""
	}
	return id[:i]
}

// IsAncestorOf reports whether other sits strictly below id in the tree.
func (id ID) IsAncestorOf(other ID) bool {
	return len(other) > len(id)+1 &&
		strings.HasPrefix(string(other), string(id)) &&
		other[len(id)] == '/'
}

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// keyEscaper rewrites the characters that carry meaning in id syntax.
// Replacement is single-pass, so the percent introduced by one escape is
// never re-encoded by another.
var keyEscaper = strings.NewReplacer(
	"%", "%25",
	":", "%3A",
	"@", "%40",
	"/", "%2F",
)

// EscapeKey makes a caller-supplied key safe for use as an id segment.
func EscapeKey(key string) string {
	return keyEscaper.Replace(key)
}
