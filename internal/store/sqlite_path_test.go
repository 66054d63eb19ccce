package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLitePath(t *testing.T) {
	cases := map[string]string{
		"./flows.db":  "./flows.db",
		"/./flows.db": "./flows.db",
		"//tmp/a.db":  "/tmp/a.db",
		":memory:":    ":memory:",
		"flows.db":    "flows.db",
	}
	for in, want := range cases {
		assert.Equal(t, want, sqlitePath(in), in)
	}
}

func TestClockMonotonic(t *testing.T) {
	var c clock
	prev := c.now()
	for range 1000 {
		next := c.now()
		assert.True(t, next.After(prev))
		prev = next
	}
}
