package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapOrdersByNextRunThenIndex(t *testing.T) {
	s := New()
	s.Push(5.0, 2)
	s.Push(1.0, 0)
	s.Push(1.0, 1)
	s.Push(3.0, 3)

	require.Equal(t, 4, s.Len())

	nextRun, index := s.Pop()
	assert.Equal(t, 1.0, nextRun)
	assert.Equal(t, 0, index)

	nextRun, index = s.Pop()
	assert.Equal(t, 1.0, nextRun)
	assert.Equal(t, 1, index)

	nextRun, index = s.Pop()
	assert.Equal(t, 3.0, nextRun)
	assert.Equal(t, 3, index)

	nextRun, index = s.Pop()
	assert.Equal(t, 5.0, nextRun)
	assert.Equal(t, 2, index)

	assert.Equal(t, 0, s.Len())
}

func TestHeapPushAfterPop(t *testing.T) {
	s := New()
	s.Push(10.0, 0)
	nextRun, index := s.Pop()
	assert.Equal(t, 10.0, nextRun)
	assert.Equal(t, 0, index)

	s.Push(2.0, 1)
	s.Push(20.0, 2)
	nextRun, index = s.Pop()
	assert.Equal(t, 2.0, nextRun)
	assert.Equal(t, 1, index)
}
