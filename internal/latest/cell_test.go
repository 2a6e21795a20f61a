package latest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell_Empty(t *testing.T) {
	var c Cell[[]int]

	v, seq := c.Load()
	assert.Nil(t, v)
	assert.Zero(t, seq)
}

func TestCell_LatestWins(t *testing.T) {
	var c Cell[string]

	c.Store("a")
	c.Store("b")
	c.Store("c")

	v, seq := c.Load()
	assert.Equal(t, "c", v)
	assert.Equal(t, uint64(3), seq)

	// reading does not consume
	v, seq = c.Load()
	assert.Equal(t, "c", v)
	assert.Equal(t, uint64(3), seq)
}

func TestCell_StoreEmptySlice(t *testing.T) {
	var c Cell[[]int]

	c.Store([]int{1, 2})
	c.Store([]int{})

	v, seq := c.Load()
	assert.Empty(t, v)
	assert.Equal(t, uint64(2), seq)
}

func TestCell_ConcurrentReaderSeesWholeValues(t *testing.T) {
	var c Cell[[]int]
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			c.Store([]int{i, i, i})
		}
	}()

	var last uint64
	for last < n {
		v, seq := c.Load()
		if seq == 0 {
			continue
		}
		if !assert.GreaterOrEqual(t, seq, last) {
			break
		}
		last = seq
		assert.Len(t, v, 3)
		assert.Equal(t, v[0], v[2])
	}
	wg.Wait()
}
