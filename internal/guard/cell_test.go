package guard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell_GetSet(t *testing.T) {
	c := New(3)
	assert.Equal(t, 3, c.Get())

	c.Set(7)
	assert.Equal(t, 7, c.Get())
}

func TestCell_ZeroValue(t *testing.T) {
	var c Cell[string]
	assert.Empty(t, c.Get())
}

func TestCell_Swap(t *testing.T) {
	c := New("a")
	old := c.Swap("b")
	assert.Equal(t, "a", old)
	assert.Equal(t, "b", c.Get())
}

func TestCell_WithConcurrent(t *testing.T) {
	c := New(0)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.With(func(v *int) { *v++ })
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Get())
}
