package assert

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/selectdimensions/react-flow-testbed/internal/config"
	"github.com/selectdimensions/react-flow-testbed/pkg/flow"
)

// Wrapper wraps testify assertions with flow-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
	Require *assert.Assertions
}

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 10 * time.Millisecond

// New creates a new test assertion wrapper with both assert and require from
// testify plus flow-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    assert.New(t),
	}
}

// FlowValid asserts that raw passes validation and comes back unchanged
func (w *Wrapper) FlowValid(raw any) *flow.Document {
	w.Helper()
	doc, err := flow.Validate(raw)
	w.NoError(err)
	if doc == nil {
		return nil
	}
	if d, ok := raw.(*flow.Document); ok {
		raw = d.Raw()
	}
	w.Equal(raw, doc.Raw())
	return doc
}

// FlowInvalid asserts that raw fails validation with the given kind and,
// when contains is not empty, a message containing it
func (w *Wrapper) FlowInvalid(
	raw any, kind error, contains string,
) *flow.ValidationError {
	w.Helper()
	doc, err := flow.Validate(raw)
	w.Nil(doc)
	w.ErrorIs(err, kind)
	if err != nil && contains != "" {
		w.Contains(err.Error(), contains)
	}
	var verr *flow.ValidationError
	errors.As(err, &verr)
	return verr
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= config.MaxTCPPort)
	w.NotEmpty(cfg.DatabaseURL)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if err != nil && contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}
