package flow

import (
	"encoding/json"
	"maps"
)

type (
	// Document is a validated flow document. It keeps the submitted value
	// untouched alongside typed views of its nodes and edges
	Document struct {
		raw   map[string]any
		nodes []Node
		edges []Edge
	}

	// Node is a graph vertex. Extra holds every field other than id, data
	// and position
	Node struct {
		Data     map[string]any
		Position map[string]any
		Extra    map[string]any
		ID       string
	}

	// Edge is a directed connection between two node IDs. Extra holds every
	// field other than id, source and target
	Edge struct {
		Extra  map[string]any
		ID     string
		Source string
		Target string
	}
)

// Document field names
const (
	FieldNodes    = "nodes"
	FieldEdges    = "edges"
	FieldViewport = "viewport"
	FieldID       = "id"
	FieldData     = "data"
	FieldPosition = "position"
	FieldSource   = "source"
	FieldTarget   = "target"
)

// Raw returns the document exactly as it was submitted
func (d *Document) Raw() map[string]any {
	return d.raw
}

// Nodes returns the typed view of the document's nodes, in document order
func (d *Document) Nodes() []Node {
	return d.nodes
}

// Edges returns the typed view of the document's edges, in document order
func (d *Document) Edges() []Edge {
	return d.edges
}

// Viewport returns the optional viewport metadata, which is never inspected
func (d *Document) Viewport() (any, bool) {
	v, ok := d.raw[FieldViewport]
	return v, ok
}

// MarshalJSON serializes the submitted value, so a stored document is
// byte-for-byte what the caller sent, modulo JSON formatting
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.raw)
}

func newNode(m map[string]any) Node {
	extra := maps.Clone(m)
	delete(extra, FieldID)
	delete(extra, FieldData)
	delete(extra, FieldPosition)
	return Node{
		ID:       m[FieldID].(string),
		Data:     m[FieldData].(map[string]any),
		Position: m[FieldPosition].(map[string]any),
		Extra:    extra,
	}
}

func newEdge(m map[string]any) Edge {
	extra := maps.Clone(m)
	delete(extra, FieldID)
	delete(extra, FieldSource)
	delete(extra, FieldTarget)
	return Edge{
		ID:     m[FieldID].(string),
		Source: m[FieldSource].(string),
		Target: m[FieldTarget].(string),
		Extra:  extra,
	}
}
