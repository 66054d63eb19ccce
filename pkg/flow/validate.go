package flow

import "github.com/selectdimensions/react-flow-testbed/pkg/util"

// Validate checks a decoded flow document against the structural rules and
// returns it, untouched, as a *Document. Checks run in a fixed order and
// stop at the first violation, which is returned as a *ValidationError.
// The input is usually the result of decoding JSON into an any; an existing
// *Document is re-checked against its raw value
func Validate(doc any) (*Document, error) {
	if d, ok := doc.(*Document); ok {
		if d == nil {
			return nil, malformed("flow document must be an object")
		}
		doc = d.raw
	}

	raw, ok := doc.(map[string]any)
	if !ok || raw == nil {
		return nil, malformed("flow document must be an object")
	}

	rawNodes, ok := raw[FieldNodes].([]any)
	if !ok {
		return nil, malformed("flow must have a 'nodes' list")
	}
	rawEdges, ok := raw[FieldEdges].([]any)
	if !ok {
		return nil, malformed("flow must have an 'edges' list")
	}

	nodes, nodeIDs, err := validateNodes(rawNodes)
	if err != nil {
		return nil, err
	}
	edges, err := validateEdges(rawEdges, nodeIDs)
	if err != nil {
		return nil, err
	}

	return &Document{
		raw:   raw,
		nodes: nodes,
		edges: edges,
	}, nil
}

func validateNodes(rawNodes []any) ([]Node, util.Set[string], error) {
	nodes := make([]Node, 0, len(rawNodes))
	seen := util.NewSet[string](len(rawNodes))

	for i, elem := range rawNodes {
		node, ok := elem.(map[string]any)
		if !ok || node == nil {
			return nil, nil, nodeError(i, "",
				"node at index %d is not an object", i)
		}

		id, err := nodeID(i, node)
		if err != nil {
			return nil, nil, err
		}
		if !isObject(node, FieldData) {
			return nil, nil, nodeError(i, FieldData,
				"node at index %d is missing 'data' or it is not an object", i,
			).withID(id)
		}
		if !isObject(node, FieldPosition) {
			return nil, nil, nodeError(i, FieldPosition,
				"node at index %d is missing 'position' or it is not an object",
				i,
			).withID(id)
		}

		if !seen.Add(id) {
			return nil, nil, nodeError(i, FieldID,
				"duplicate node ID: %s", id,
			).withID(id)
		}
		nodes = append(nodes, newNode(node))
	}

	return nodes, seen, nil
}

func validateEdges(rawEdges []any, nodeIDs util.Set[string]) ([]Edge, error) {
	edges := make([]Edge, 0, len(rawEdges))
	seen := util.NewSet[string](len(rawEdges))

	for i, elem := range rawEdges {
		edge, ok := elem.(map[string]any)
		if !ok || edge == nil {
			return nil, edgeError(i, "", "edge at index %d is not an object", i)
		}

		id, err := edgeString(i, edge, FieldID, "an")
		if err != nil {
			return nil, err
		}
		source, err := edgeString(i, edge, FieldSource, "a")
		if err != nil {
			return nil, err.withID(id)
		}
		target, err := edgeString(i, edge, FieldTarget, "a")
		if err != nil {
			return nil, err.withID(id)
		}

		if !seen.Add(id) {
			return nil, edgeError(i, FieldID,
				"duplicate edge ID: %s", id,
			).withID(id)
		}

		if !nodeIDs.Contains(source) {
			return nil, edgeError(i, FieldSource,
				"edge %s references non-existent source node: %s", id, source,
			).withID(id)
		}
		if !nodeIDs.Contains(target) {
			return nil, edgeError(i, FieldTarget,
				"edge %s references non-existent target node: %s", id, target,
			).withID(id)
		}
		edges = append(edges, newEdge(edge))
	}

	return edges, nil
}

func nodeID(idx int, node map[string]any) (string, *ValidationError) {
	v, ok := node[FieldID]
	if !ok {
		return "", nodeError(idx, FieldID,
			"node at index %d is missing an 'id'", idx)
	}
	id, ok := v.(string)
	if !ok {
		return "", nodeError(idx, FieldID,
			"node at index %d has a non-string 'id'", idx)
	}
	return id, nil
}

func edgeString(
	idx int, edge map[string]any, field, article string,
) (string, *ValidationError) {
	v, ok := edge[field]
	if !ok {
		return "", edgeError(idx, field,
			"edge at index %d is missing %s '%s'", idx, article, field)
	}
	s, ok := v.(string)
	if !ok {
		return "", edgeError(idx, field,
			"edge at index %d has a non-string '%s'", idx, field)
	}
	return s, nil
}

func isObject(m map[string]any, field string) bool {
	v, ok := m[field].(map[string]any)
	return ok && v != nil
}
