package device

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/regmap.go/pkg/frame"
	"github.com/robotalks/regmap.go/pkg/register"
	"github.com/robotalks/regmap.go/pkg/transport"
)

// receiveLoop feeds the bytes from the transport into the frame receiver.
// It plays the role of the receive interrupt.
type receiveLoop struct {
	tr       transport.ByteTransport
	receiver *frame.Receiver
	timeout  time.Duration
	echoOn   func() bool

	timer <-chan time.Time
}

// Run processes received bytes until ctx is done or the transport fails.
func (l *receiveLoop) Run(ctx context.Context) error {
	byteCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case p := <-byteCh:
			for _, b := range p {
				if err := l.step(b); err != nil {
					return err
				}
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-l.timer:
			if err := l.apply(l.receiver.Timeout()); err != nil {
				return err
			}
		}
	}
}

func (l *receiveLoop) readLoop(ctx context.Context, byteCh chan []byte, errCh chan error) {
	for {
		buf := make([]byte, frame.MaxMessageLen)
		n, err := l.tr.Read(buf)
		if n > 0 {
			select {
			case byteCh <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if err == io.EOF {
				glog.Info("transport closed")
			}
			errCh <- err
			return
		}
	}
}

// step echoes b before consuming it, so the echo of a terminator leaves
// ahead of the response to the request it completes.
func (l *receiveLoop) step(b byte) error {
	if l.receiver.Echoes(b) && l.echoOn() {
		if err := l.tr.WriteEcho(b); err != nil {
			return err
		}
	}
	return l.apply(l.receiver.Step(b))
}

func (l *receiveLoop) apply(res frame.StepResult) error {
	if l.timeout > 0 {
		switch res.WhatAboutTimer() {
		case frame.TimerRestart:
			l.timer = time.After(l.timeout)
		case frame.TimerStop:
			l.timer = nil
		}
	}
	if res.Signal != register.NoError {
		glog.V(2).Infof("%s frame aborted: %v", res.Kind, res.Signal)
	}
	if res.Published {
		glog.V(2).Infof("%s request queued", res.Kind)
	}
	return nil
}
