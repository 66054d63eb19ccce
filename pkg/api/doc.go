// Package api defines the data types shared by the flow server, its client
// and the command line tools
//
// This package contains flow identifiers, list digests, lifecycle events
// and the HTTP request and response messages
package api
