package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStuffBijection(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	payloads := [][]byte{
		{},
		{0x01, 0x02},
		{Escape},
		{Terminator},
		{Escape, Terminator, Escape, Escape},
		[]byte("5,10\n:;#"),
		all,
	}
	for _, p := range payloads {
		stuffed := Stuff(nil, p)
		require.Equal(t, StuffedLen(p), len(stuffed))
		require.Equal(t, bytes.Count(p, []byte{Terminator})*2, bytes.Count(stuffed, []byte{Terminator}))
		out, err := Unstuff(nil, stuffed)
		require.NoError(t, err)
		require.Equal(t, p, append([]byte{}, out...))
	}
}

func TestStuffAppends(t *testing.T) {
	out := Stuff([]byte{BinaryStart}, []byte{2, Terminator})
	require.Equal(t, []byte{BinaryStart, 2, Terminator, Terminator}, out)
}

func TestUnstuffErrors(t *testing.T) {
	for _, p := range [][]byte{
		{Escape},
		{1, Terminator},
		{Escape, 1, Escape},
		{Terminator, Escape},
	} {
		_, err := Unstuff(nil, p)
		require.Equal(t, ErrBadStuffing, err, "%v", p)
	}
}
