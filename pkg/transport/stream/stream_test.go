package stream

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransport(t *testing.T) {
	devSide, hostSide := net.Pipe()
	defer hostSide.Close()
	tr := New(devSide)
	defer tr.Close()

	done := make(chan error, 1)
	require.NoError(t, tr.StartTransmit([]byte("#1\n"), func(err error) { done <- err }))
	buf := make([]byte, 3)
	_, err := io.ReadFull(hostSide, buf)
	require.NoError(t, err)
	require.Equal(t, "#1\n", string(buf))
	require.NoError(t, <-done)

	go tr.WriteEcho('x')
	_, err = io.ReadFull(hostSide, buf[:1])
	require.NoError(t, err)
	require.Equal(t, byte('x'), buf[0])

	go hostSide.Write([]byte("ab"))
	_, err = io.ReadFull(tr, buf[:2])
	require.NoError(t, err)
	require.Equal(t, "ab", string(buf[:2]))
}

func TestTransportTransmitError(t *testing.T) {
	devSide, hostSide := net.Pipe()
	hostSide.Close()
	tr := New(devSide)
	done := make(chan error, 1)
	require.NoError(t, tr.StartTransmit([]byte("x"), func(err error) { done <- err }))
	require.Error(t, <-done)
}
