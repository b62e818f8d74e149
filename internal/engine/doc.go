// Package engine runs the event loop for one connected session: it turns
// inbound transport events into render passes and ships the resulting
// patch batches back out. All component code runs under the session lock,
// one event at a time.
package engine
