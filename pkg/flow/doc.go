// Package flow validates flow documents before they are persisted
//
// A flow document is the graph a diagram editor saves: an ordered list of
// nodes, an ordered list of edges connecting them, and optional viewport
// metadata. Validation is a pure, ordered scan that stops at the first
// structural violation and reports it as a ValidationError
package flow
