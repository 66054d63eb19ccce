package util_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/selectdimensions/react-flow-testbed/internal/util"
)

func constant(v int, calls *int) util.Constructor[int] {
	return func() (int, error) {
		*calls++
		return v, nil
	}
}

func TestCacheHit(t *testing.T) {
	c := util.NewLRUCache[string, int](2)
	calls := 0

	v, err := c.Get("a", constant(1, &calls))
	assert.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = c.Get("a", constant(99, &calls))
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)
}

func TestCacheEviction(t *testing.T) {
	c := util.NewLRUCache[string, int](2)
	calls := 0

	_, _ = c.Get("a", constant(1, &calls))
	_, _ = c.Get("b", constant(2, &calls))
	_, _ = c.Get("a", constant(1, &calls))
	_, _ = c.Get("c", constant(3, &calls))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, c.Len())

	// "b" was least recently used
	_, _ = c.Get("a", constant(1, &calls))
	assert.Equal(t, 3, calls)
	_, _ = c.Get("b", constant(2, &calls))
	assert.Equal(t, 4, calls)
}

func TestCacheError(t *testing.T) {
	c := util.NewLRUCache[string, int](2)
	boom := errors.New("boom")

	_, err := c.Get("a", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestCacheRemove(t *testing.T) {
	c := util.NewLRUCache[string, int](2)
	calls := 0

	_, _ = c.Get("a", constant(1, &calls))
	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))

	v, _ := c.Get("a", constant(5, &calls))
	assert.Equal(t, 5, v)
	assert.Equal(t, 2, calls)
}

func TestCacheDisabled(t *testing.T) {
	c := util.NewLRUCache[string, int](0)
	calls := 0

	_, _ = c.Get("a", constant(1, &calls))
	_, _ = c.Get("a", constant(1, &calls))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func TestRemoveDuringFill(t *testing.T) {
	c := util.NewLRUCache[string, int](2)
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int)

	go func() {
		v, _ := c.Get("a", func() (int, error) {
			close(entered)
			<-release
			return 1, nil
		})
		done <- v
	}()

	<-entered
	assert.False(t, c.Remove("a"))
	close(release)
	assert.Equal(t, 1, <-done)
	assert.Equal(t, 0, c.Len())

	calls := 0
	v, err := c.Get("a", constant(2, &calls))
	assert.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, calls)
}

func TestFillAfterRemoveIsCached(t *testing.T) {
	c := util.NewLRUCache[string, int](2)
	calls := 0

	_, _ = c.Get("a", constant(1, &calls))
	assert.True(t, c.Remove("a"))

	_, _ = c.Get("a", constant(2, &calls))
	v, err := c.Get("a", constant(3, &calls))
	assert.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}
