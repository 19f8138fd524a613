// Package stream adapts any io.ReadWriter (serial port, TCP connection,
// pipe) to a ByteTransport.
package stream

import (
	"io"
	"sync"
)

// Transport implements transport.ByteTransport over an io.ReadWriter.
// Transmits run in their own goroutine; writes never interleave.
type Transport struct {
	rw        io.ReadWriter
	writeLock sync.Mutex
}

// New wraps rw.
func New(rw io.ReadWriter) *Transport {
	return &Transport{rw: rw}
}

// Read implements io.Reader.
func (t *Transport) Read(p []byte) (int, error) {
	return t.rw.Read(p)
}

// Write writes p synchronously.
func (t *Transport) Write(p []byte) (int, error) {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	return t.rw.Write(p)
}

// StartTransmit implements transport.ByteTransport.
func (t *Transport) StartTransmit(p []byte, done func(error)) error {
	go func() {
		_, err := t.Write(p)
		done(err)
	}()
	return nil
}

// WriteEcho implements transport.ByteTransport.
func (t *Transport) WriteEcho(b byte) error {
	_, err := t.Write([]byte{b})
	return err
}

// Close closes the underlying stream if it is an io.Closer.
func (t *Transport) Close() error {
	if c, ok := t.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
