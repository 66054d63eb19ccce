// Package server exposes the flow service over HTTP and streams flow
// lifecycle events to WebSocket clients
package server
