package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFIFO_Order(t *testing.T) {
	require := require.New(t)

	q := NewFIFO[int](4)
	require.True(q.IsEmpty())
	require.Equal(0, q.Len())

	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)
	require.False(q.IsEmpty())
	require.Equal(3, q.Len())

	for want := 1; want <= 3; want++ {
		got, ok := q.Dequeue()
		require.True(ok)
		require.Equal(want, got)
	}

	_, ok := q.Dequeue()
	require.False(ok)
	require.True(q.IsEmpty())
}

func TestFIFO_Peek(t *testing.T) {
	require := require.New(t)

	q := NewFIFO[string](0)

	_, ok := q.Peek()
	require.False(ok)

	q.Enqueue("a")
	q.Enqueue("b")

	head, ok := q.Peek()
	require.True(ok)
	require.Equal("a", head)
	require.Equal(2, q.Len())

	got, ok := q.Dequeue()
	require.True(ok)
	require.Equal("a", got)
}

func TestFIFO_Reset(t *testing.T) {
	require := require.New(t)

	q := NewFIFO[int](2)
	q.Enqueue(1)
	q.Enqueue(2)

	q.Reset()
	require.True(q.IsEmpty())

	_, ok := q.Dequeue()
	require.False(ok)

	// The queue stays usable after a reset.
	q.Enqueue(7)
	got, ok := q.Dequeue()
	require.True(ok)
	require.Equal(7, got)
}

func TestFIFO_Interleaved(t *testing.T) {
	require := require.New(t)

	q := NewFIFO[int](1)

	next := 0
	for i := 0; i < 100; i++ {
		q.Enqueue(i)
		if i%3 == 0 {
			got, ok := q.Dequeue()
			require.True(ok)
			require.Equal(next, got)
			next++
		}
	}

	for !q.IsEmpty() {
		got, ok := q.Dequeue()
		require.True(ok)
		require.Equal(next, got)
		next++
	}
	require.Equal(100, next)
}
