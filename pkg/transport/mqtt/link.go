package mqtt

import (
	"io"
	"sync"
)

// Topic suffixes. The host publishes requests on <id>/rx, the device
// publishes responses on <id>/tx.
const (
	RxSuffix = "/rx"
	TxSuffix = "/tx"
)

// Link is a byte link over a pair of topics. It implements
// transport.ByteTransport and io.ReadWriter.
type Link struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	dataCh    chan []byte
	pending   []byte
	closed    chan struct{}
	closeOnce sync.Once
}

// NewLink creates a Link on q.
func NewLink(q *Queue) *Link {
	return &Link{
		Queue:  q,
		dataCh: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (l *Link) WithTopics(sub, pub string) *Link {
	l.SubTopic, l.PubTopic = sub, pub
	return l
}

// ForDevice sets topics for the device side: subscribe id/rx, publish id/tx.
func (l *Link) ForDevice(id string) *Link {
	return l.WithTopics(id+RxSuffix, id+TxSuffix)
}

// ForHost sets topics for the host side: subscribe id/tx, publish id/rx.
func (l *Link) ForHost(id string) *Link {
	return l.WithTopics(id+TxSuffix, id+RxSuffix)
}

// Open connects the queue and subscribes SubTopic.
func (l *Link) Open() error {
	if err := l.Queue.Connect(); err != nil {
		return err
	}
	token := l.Queue.Sub(l.SubTopic, l.handleMsg)
	token.Wait()
	return token.Error()
}

// Read implements io.Reader.
func (l *Link) Read(p []byte) (int, error) {
	for len(l.pending) == 0 {
		select {
		case data := <-l.dataCh:
			l.pending = data
		case <-l.closed:
			return 0, io.EOF
		}
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

// Write publishes p as one message and waits for completion.
func (l *Link) Write(p []byte) (int, error) {
	token := l.Queue.Pub(l.PubTopic, append([]byte{}, p...))
	token.Wait()
	if err := token.Error(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// StartTransmit implements transport.ByteTransport.
func (l *Link) StartTransmit(p []byte, done func(error)) error {
	token := l.Queue.Pub(l.PubTopic, append([]byte{}, p...))
	go func() {
		token.Wait()
		done(token.Error())
	}()
	return nil
}

// WriteEcho implements transport.ByteTransport.
func (l *Link) WriteEcho(b byte) error {
	_, err := l.Write([]byte{b})
	return err
}

// Close unsubscribes and disconnects.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		close(l.closed)
		l.Queue.Unsub(l.SubTopic).Wait()
		l.Queue.Close()
	})
	return nil
}

func (l *Link) handleMsg(_ string, payload []byte) {
	if len(payload) == 0 {
		return
	}
	select {
	case l.dataCh <- payload:
	case <-l.closed:
	}
}
