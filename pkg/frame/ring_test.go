package frame

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func numbered(n byte) Message {
	msg := Message{Kind: Binary, Len: 2}
	msg.Data[0], msg.Data[1] = n, ^n
	return msg
}

func TestRingOverwritesOldest(t *testing.T) {
	ring := NewRing(5)
	require.Equal(t, 5, ring.Cap())
	for i := byte(1); i <= 7; i++ {
		ring.Publish(numbered(i))
		require.True(t, ring.Pending() <= ring.Cap())
	}
	require.Equal(t, 5, ring.Pending())
	require.Equal(t, uint64(2), ring.Dropped())
	for i := byte(3); i <= 7; i++ {
		msg, ok := ring.Pop()
		require.True(t, ok)
		require.Equal(t, []byte{i, ^i}, msg.Bytes())
	}
	_, ok := ring.Pop()
	require.False(t, ok)
	require.Equal(t, 0, ring.Pending())
}

func TestRingDefaultSize(t *testing.T) {
	require.Equal(t, DefaultRingSize, NewRing(0).Cap())
}

func TestRingConcurrent(t *testing.T) {
	ring := NewRing(3)
	const total = 1000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			ring.Publish(numbered(byte(i)))
		}
	}()
	received := 0
	for received+int(ring.Dropped()) < total {
		msg, ok := ring.Pop()
		if !ok {
			continue
		}
		p := msg.Bytes()
		require.Equal(t, ^p[0], p[1])
		received++
	}
	wg.Wait()
	require.Equal(t, total, received+int(ring.Dropped())+ring.Pending())
}
