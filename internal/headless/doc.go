// Package headless is a display client without a display: it connects to
// a server over Socket.IO, applies patch batches to an in-memory mirror
// of the element tree, and fires callbacks the way a real UI would. It
// exists for integration tests and for driving a server from scripts.
package headless
