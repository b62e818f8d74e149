// Package app wires the pieces into a runnable server: configuration
// from file, environment and flags, logging, the HTTP listener with the
// Socket.IO endpoint, the health check, and a session loop per connected
// client.
package app
