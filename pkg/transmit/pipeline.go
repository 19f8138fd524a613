// Package transmit hands responses to an asynchronous transmit engine, one
// at a time.
package transmit

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/regmap.go/pkg/frame"
)

// Engine starts an asynchronous transmit of p and calls done once all of p
// has left, or the transmit failed. p must not be touched by the engine
// after done.
type Engine interface {
	StartTransmit(p []byte, done func(error)) error
}

// Pipeline serializes transmits: a new one starts only after the previous
// one completed.
type Pipeline struct {
	engine Engine
	idle   chan struct{}
	buf    []byte
}

// New creates a Pipeline. bufSize is the initial transmit buffer capacity.
func New(engine Engine, bufSize int) *Pipeline {
	p := &Pipeline{
		engine: engine,
		idle:   make(chan struct{}, 1),
		buf:    make([]byte, 0, bufSize),
	}
	p.idle <- struct{}{}
	return p
}

// Send waits for the previous transmit to complete and starts transmitting
// payload. ASCII payloads are sent as-is; Binary payloads are stuffed and
// framed with the binary start byte and the terminator. Send returns once
// the transmit has started.
func (p *Pipeline) Send(ctx context.Context, kind frame.Kind, payload []byte) error {
	select {
	case <-p.idle:
	case <-ctx.Done():
		return ctx.Err()
	}
	buf := p.buf[:0]
	if kind == frame.Binary {
		buf = append(buf, frame.BinaryStart)
		buf = frame.Stuff(buf, payload)
		buf = append(buf, frame.Terminator)
	} else {
		buf = append(buf, payload...)
	}
	p.buf = buf
	glog.V(2).Infof("TX %s %q", kind, buf)
	if err := p.engine.StartTransmit(buf, p.complete); err != nil {
		p.idle <- struct{}{}
		return err
	}
	return nil
}

func (p *Pipeline) complete(err error) {
	if err != nil {
		glog.Errorf("transmit error: %v", err)
	}
	p.idle <- struct{}{}
}

// Busy indicates a transmit is in flight.
func (p *Pipeline) Busy() bool {
	return len(p.idle) == 0
}

// Wait blocks until no transmit is in flight.
func (p *Pipeline) Wait(ctx context.Context) error {
	select {
	case <-p.idle:
		p.idle <- struct{}{}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
