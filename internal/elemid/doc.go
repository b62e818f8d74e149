// Package elemid defines the position identity of elements in a render tree.
//
// An element id is derived, never assigned: it is the parent id, a slash, a
// segment, an at-sign, and the identity of the originating component. The
// segment is either the element's zero-based position inside the frame that
// collected it, or a caller-supplied key. Because the id is a pure function
// of tree shape plus optional key, the same logical child keeps the same id
// across render passes exactly when its position (or key) and component are
// unchanged, which is the only signal reconciliation needs.
//
// Keys are escaped so that the characters '%', ':', '@' and '/' cannot be
// confused with id syntax. Percent is escaped first to avoid double
// encoding.
package elemid
