package flow_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selectdimensions/react-flow-testbed/pkg/flow"
)

type obj = map[string]any

func node(id string) obj {
	return obj{"id": id, "data": obj{}, "position": obj{"x": 0.0, "y": 0.0}}
}

func edge(id, source, target string) obj {
	return obj{"id": id, "source": source, "target": target}
}

func doc(nodes []any, edges []any) obj {
	return obj{"nodes": nodes, "edges": edges}
}

func TestValidateSingleNode(t *testing.T) {
	in := obj{
		"nodes": []any{
			obj{"id": "a", "data": obj{}, "position": obj{"x": 0.0, "y": 0.0}},
		},
		"edges": []any{},
	}

	d, err := flow.Validate(in)
	require.NoError(t, err)
	assert.Equal(t, in, d.Raw())
	assert.Len(t, d.Nodes(), 1)
	assert.Empty(t, d.Edges())
	assert.Equal(t, "a", d.Nodes()[0].ID)
}

func TestValidateDuplicateNodeID(t *testing.T) {
	in := doc([]any{
		obj{"id": "a", "data": obj{}, "position": obj{}},
		obj{"id": "a", "data": obj{}, "position": obj{}},
	}, []any{})

	_, err := flow.Validate(in)
	assert.ErrorIs(t, err, flow.ErrInvalidNode)
	assert.Contains(t, err.Error(), "duplicate node ID: a")

	var ve *flow.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, 1, ve.Index)
	assert.Equal(t, "a", ve.ID)
	assert.Equal(t, flow.FieldID, ve.Field)
}

func TestValidateDanglingTarget(t *testing.T) {
	in := doc(
		[]any{obj{"id": "a", "data": obj{}, "position": obj{}}},
		[]any{edge("e1", "a", "b")},
	)

	_, err := flow.Validate(in)
	assert.ErrorIs(t, err, flow.ErrInvalidEdge)
	assert.Contains(t, err.Error(),
		"edge e1 references non-existent target node: b")

	var ve *flow.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, 0, ve.Index)
	assert.Equal(t, "e1", ve.ID)
	assert.Equal(t, flow.FieldTarget, ve.Field)
}

func TestValidateDanglingSource(t *testing.T) {
	in := doc([]any{node("a")}, []any{edge("e1", "zz", "a")})

	_, err := flow.Validate(in)
	assert.ErrorIs(t, err, flow.ErrInvalidEdge)
	assert.Contains(t, err.Error(),
		"edge e1 references non-existent source node: zz")
}

func TestValidateMalformed(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		contains string
	}{
		{"nil", nil, "must be an object"},
		{"list", []any{}, "must be an object"},
		{"string", "flow", "must be an object"},
		{"missing_nodes", obj{"edges": []any{}}, "'nodes' list"},
		{"missing_edges", obj{"nodes": []any{}}, "'edges' list"},
		{"nodes_not_list", obj{"nodes": obj{}, "edges": []any{}}, "'nodes' list"},
		{"edges_not_list", obj{"nodes": []any{}, "edges": "x"}, "'edges' list"},
		{"nodes_null", obj{"nodes": nil, "edges": []any{}}, "'nodes' list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := flow.Validate(tt.in)
			assert.ErrorIs(t, err, flow.ErrMalformedDocument)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Equal(t, flow.KindMalformedDocument, flow.ErrorKind(err))
		})
	}
}

func TestValidateNodesCheckedBeforeEdges(t *testing.T) {
	in := doc(
		[]any{obj{"data": obj{}, "position": obj{}}},
		[]any{"not an edge"},
	)

	_, err := flow.Validate(in)
	assert.ErrorIs(t, err, flow.ErrInvalidNode)
}

func TestValidateInvalidNodes(t *testing.T) {
	tests := []struct {
		name     string
		node     any
		field    string
		contains string
	}{
		{
			name:     "not_object",
			node:     "a",
			contains: "node at index 1 is not an object",
		},
		{
			name:     "missing_id",
			node:     obj{"data": obj{}, "position": obj{}},
			field:    flow.FieldID,
			contains: "node at index 1 is missing an 'id'",
		},
		{
			name:     "numeric_id",
			node:     obj{"id": 7.0, "data": obj{}, "position": obj{}},
			field:    flow.FieldID,
			contains: "node at index 1 has a non-string 'id'",
		},
		{
			name:     "missing_data",
			node:     obj{"id": "b", "position": obj{}},
			field:    flow.FieldData,
			contains: "node at index 1 is missing 'data'",
		},
		{
			name:     "data_not_object",
			node:     obj{"id": "b", "data": []any{}, "position": obj{}},
			field:    flow.FieldData,
			contains: "node at index 1 is missing 'data'",
		},
		{
			name:     "missing_position",
			node:     obj{"id": "b", "data": obj{}},
			field:    flow.FieldPosition,
			contains: "node at index 1 is missing 'position'",
		},
		{
			name:     "position_not_object",
			node:     obj{"id": "b", "data": obj{}, "position": []any{1.0, 2.0}},
			field:    flow.FieldPosition,
			contains: "node at index 1 is missing 'position'",
		},
		{
			name:     "missing_data_wins_over_duplicate",
			node:     obj{"id": "a", "position": obj{}},
			field:    flow.FieldData,
			contains: "missing 'data'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := doc([]any{node("a"), tt.node}, []any{})
			_, err := flow.Validate(in)
			assert.ErrorIs(t, err, flow.ErrInvalidNode)
			assert.Contains(t, err.Error(), tt.contains)

			var ve *flow.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, 1, ve.Index)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidateInvalidEdges(t *testing.T) {
	tests := []struct {
		name     string
		edge     any
		field    string
		contains string
	}{
		{
			name:     "not_object",
			edge:     []any{"a", "b"},
			contains: "edge at index 1 is not an object",
		},
		{
			name:     "missing_id",
			edge:     obj{"source": "a", "target": "b"},
			field:    flow.FieldID,
			contains: "edge at index 1 is missing an 'id'",
		},
		{
			name:     "missing_source",
			edge:     obj{"id": "e2", "target": "b"},
			field:    flow.FieldSource,
			contains: "edge at index 1 is missing a 'source'",
		},
		{
			name:     "missing_target",
			edge:     obj{"id": "e2", "source": "a"},
			field:    flow.FieldTarget,
			contains: "edge at index 1 is missing a 'target'",
		},
		{
			name:     "non_string_source",
			edge:     obj{"id": "e2", "source": 1.0, "target": "b"},
			field:    flow.FieldSource,
			contains: "edge at index 1 has a non-string 'source'",
		},
		{
			name:     "duplicate_id",
			edge:     edge("e1", "b", "a"),
			field:    flow.FieldID,
			contains: "duplicate edge ID: e1",
		},
		{
			name:     "duplicate_wins_over_dangling",
			edge:     edge("e1", "x", "y"),
			field:    flow.FieldID,
			contains: "duplicate edge ID: e1",
		},
		{
			name:     "missing_target_wins_over_duplicate",
			edge:     obj{"id": "e1", "source": "a"},
			field:    flow.FieldTarget,
			contains: "missing a 'target'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := doc(
				[]any{node("a"), node("b")},
				[]any{edge("e1", "a", "b"), tt.edge},
			)
			_, err := flow.Validate(in)
			assert.ErrorIs(t, err, flow.ErrInvalidEdge)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Equal(t, flow.KindInvalidEdge, flow.ErrorKind(err))

			var ve *flow.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, 1, ve.Index)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidateForwardAndBackwardReferences(t *testing.T) {
	in := doc(
		[]any{node("a"), node("b"), node("c")},
		[]any{edge("e1", "c", "a"), edge("e2", "a", "c"), edge("e3", "b", "b")},
	)

	d, err := flow.Validate(in)
	require.NoError(t, err)
	assert.Len(t, d.Edges(), 3)
	assert.Equal(t, "c", d.Edges()[0].Source)
	assert.Equal(t, "a", d.Edges()[0].Target)
}

func TestValidatePassesUnknownFieldsThrough(t *testing.T) {
	n := node("a")
	n["type"] = "input"
	n["selected"] = true
	n["position"] = obj{"x": "not-a-number"}
	e := edge("e1", "a", "a")
	e["animated"] = true
	e["label"] = "loop"
	in := doc([]any{n}, []any{e})
	in["viewport"] = obj{"x": 1.0, "y": 2.0, "zoom": 1.5}

	d, err := flow.Validate(in)
	require.NoError(t, err)
	assert.Equal(t, in, d.Raw())

	assert.Equal(t, obj{"type": "input", "selected": true}, d.Nodes()[0].Extra)
	assert.Equal(t, obj{"x": "not-a-number"}, d.Nodes()[0].Position)
	assert.Equal(t, obj{"animated": true, "label": "loop"}, d.Edges()[0].Extra)

	vp, ok := d.Viewport()
	assert.True(t, ok)
	assert.Equal(t, obj{"x": 1.0, "y": 2.0, "zoom": 1.5}, vp)
}

func TestValidateIsIdempotent(t *testing.T) {
	in := doc(
		[]any{node("a"), node("b")},
		[]any{edge("e1", "a", "b")},
	)

	first, err := flow.Validate(in)
	require.NoError(t, err)

	second, err := flow.Validate(first)
	require.NoError(t, err)
	assert.Equal(t, first.Raw(), second.Raw())
	assert.Equal(t, in, second.Raw())
}

func TestValidateDoesNotMutate(t *testing.T) {
	n := node("a")
	n["extra"] = "kept"
	in := doc([]any{n}, []any{})

	_, err := flow.Validate(in)
	require.NoError(t, err)
	assert.Equal(t, "kept", n["extra"])
	assert.Equal(t, "a", n["id"])
}

func TestValidateNilDocument(t *testing.T) {
	var d *flow.Document
	_, err := flow.Validate(d)
	assert.ErrorIs(t, err, flow.ErrMalformedDocument)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", flow.ErrorKind(errors.New("other")))
	assert.False(t, flow.IsValidationError(nil))

	_, err := flow.Validate(doc([]any{obj{}}, []any{}))
	assert.True(t, flow.IsValidationError(err))
	assert.Equal(t, flow.KindInvalidNode, flow.ErrorKind(err))
}
