// Package util holds small internal helpers
package util
