// Package transport defines the byte link a device is served on.
package transport

import "io"

// ByteTransport is a byte link with an asynchronous transmit engine.
type ByteTransport interface {
	// Read delivers received bytes.
	io.Reader
	// StartTransmit sends p in the background and calls done when finished.
	StartTransmit(p []byte, done func(error)) error
	// WriteEcho writes one byte synchronously.
	WriteEcho(b byte) error
}
