package helpers

import (
	"encoding/json"
	"fmt"
)

// NewTestFlow builds a decoded flow document with n nodes chained by n-1
// edges. Node IDs are "n0".."n{n-1}" and edge IDs "e1".."e{n-1}"
func NewTestFlow(n int) map[string]any {
	nodes := make([]any, 0, n)
	edges := make([]any, 0, max(n-1, 0))
	for i := range n {
		nodes = append(nodes, map[string]any{
			"id":   fmt.Sprintf("n%d", i),
			"type": "default",
			"data": map[string]any{"label": fmt.Sprintf("Node %d", i)},
			"position": map[string]any{
				"x": float64(i * 150),
				"y": float64(0),
			},
		})
		if i > 0 {
			edges = append(edges, map[string]any{
				"id":     fmt.Sprintf("e%d", i),
				"source": fmt.Sprintf("n%d", i-1),
				"target": fmt.Sprintf("n%d", i),
			})
		}
	}
	return map[string]any{
		"nodes":    nodes,
		"edges":    edges,
		"viewport": map[string]any{"x": 0.0, "y": 0.0, "zoom": 1.0},
	}
}

// NewTestFlowJSON is NewTestFlow serialized to JSON text
func NewTestFlowJSON(n int) []byte {
	data, err := json.Marshal(NewTestFlow(n))
	if err != nil {
		panic(err)
	}
	return data
}
