package assert_test

import (
	"testing"
	"time"

	"github.com/selectdimensions/react-flow-testbed/internal/assert"
	"github.com/selectdimensions/react-flow-testbed/internal/config"
	"github.com/selectdimensions/react-flow-testbed/pkg/flow"
)

func TestFlowHelpers(t *testing.T) {
	as := assert.New(t)

	doc := as.FlowValid(map[string]any{
		"nodes": []any{
			map[string]any{
				"id":       "a",
				"data":     map[string]any{},
				"position": map[string]any{"x": 0, "y": 0},
			},
		},
		"edges": []any{},
	})
	as.Require.NotNil(doc)
	as.Len(doc.Nodes(), 1)

	as.FlowValid(doc)

	verr := as.FlowInvalid(
		map[string]any{"edges": []any{}},
		flow.ErrMalformedDocument, "nodes",
	)
	as.Require.NotNil(verr)
	as.Equal(flow.KindMalformedDocument, flow.ErrorKind(verr))
}

func TestConfigHelpers(t *testing.T) {
	as := assert.New(t)

	cfg := config.NewDefaultConfig()
	as.ConfigValid(cfg)

	cfg.APIPort = 0
	as.ConfigInvalid(cfg, "invalid API port")
}

func TestEventually(t *testing.T) {
	as := assert.New(t)

	calls := 0
	as.Eventually(func() bool {
		calls++
		return calls == 3
	}, time.Second, "condition never held")
	as.Equal(3, calls)
}
