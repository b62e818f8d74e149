// Package transport defines the wire contract between a session and its
// display: outbound patch batches, inbound client events, and the
// MessagePack codec both directions share. Concrete carriers live in the
// wsock and sio subpackages.
package transport
