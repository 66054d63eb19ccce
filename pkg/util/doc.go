// Package util provides common utility functions and data structures
//
// This package includes the generic set used by the flow validator to track
// node and edge identifiers
package util
