package frame

import "github.com/robotalks/regmap.go/pkg/register"

// State is the receiver state.
type State int

// Receiver states.
const (
	Idle State = iota
	ExpectBinaryLength
	ReceivingBinaryBody
	ReceivingASCIIBody
)

var stateNames = [...]string{
	Idle:                "idle",
	ExpectBinaryLength:  "binary-length",
	ReceivingBinaryBody: "binary-body",
	ReceivingASCIIBody:  "ascii-body",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "invalid"
}

// InFrame indicates the receiver is in the middle of a frame.
func (s State) InFrame() bool {
	return s != Idle
}

// TimerAction defines what to do with the inter-byte timer.
type TimerAction int

// Timer actions.
const (
	TimerNoChange TimerAction = iota
	TimerRestart
	TimerStop
)

// StepResult is the outcome of consuming one byte.
type StepResult struct {
	State State
	// Published is set when the byte completed a message.
	Published bool
	Kind      Kind
	// Signal is a framing error raised by the byte, NoError otherwise.
	// Kind is then the kind of the aborted frame.
	Signal register.Code
	// Echo is set when the byte belongs to an ASCII frame.
	Echo bool
}

// WhatAboutTimer decides what to do with the inter-byte timer.
func (r StepResult) WhatAboutTimer() TimerAction {
	if r.State.InFrame() {
		return TimerRestart
	}
	return TimerStop
}

// Receiver assembles bytes into messages and publishes them into a Ring.
// It is owned by the receive goroutine.
type Receiver struct {
	ring    *Ring
	state   State
	msg     Message
	wantLen int
}

// NewReceiver creates a Receiver publishing into ring.
func NewReceiver(ring *Ring) *Receiver {
	return &Receiver{ring: ring}
}

// State returns the current state.
func (r *Receiver) State() State {
	return r.state
}

// Echoes reports whether b belongs to an ASCII frame if it is the next
// byte consumed.
func (r *Receiver) Echoes(b byte) bool {
	return r.state == ReceivingASCIIBody || r.state == Idle && b == ASCIIStart
}

// Step consumes one byte.
func (r *Receiver) Step(b byte) (res StepResult) {
	res.Echo = r.Echoes(b)
	switch r.state {
	case Idle:
		switch b {
		case ASCIIStart:
			r.begin(ASCII, ReceivingASCIIBody)
		case BinaryStart:
			r.begin(Binary, ExpectBinaryLength)
		}
	case ExpectBinaryLength:
		if n := int(b); n > 0 && n < MaxMessageLen {
			r.wantLen, r.state = n, ReceivingBinaryBody
		} else {
			r.abort(&res, register.BadLength)
		}
	case ReceivingBinaryBody:
		r.msg.Data[r.msg.Len] = b
		r.msg.Len++
		if r.msg.Len >= r.wantLen {
			r.publish(&res)
		}
	case ReceivingASCIIBody:
		switch {
		case b == CarriageRet:
		case b == Terminator:
			r.publish(&res)
		case r.msg.Len >= MaxMessageLen:
			r.abort(&res, register.BadLength)
		default:
			r.msg.Data[r.msg.Len] = b
			r.msg.Len++
		}
	}
	res.State = r.state
	return
}

// Timeout returns a receiver stuck in the middle of a frame to Idle.
func (r *Receiver) Timeout() (res StepResult) {
	if r.state.InFrame() {
		r.abort(&res, register.Incomplete)
	}
	res.State = r.state
	return
}

// Reset discards any partial frame.
func (r *Receiver) Reset() {
	r.state, r.msg.Len, r.wantLen = Idle, 0, 0
}

func (r *Receiver) begin(kind Kind, state State) {
	r.msg.Kind, r.msg.Len, r.wantLen = kind, 0, 0
	r.state = state
}

func (r *Receiver) abort(res *StepResult, code register.Code) {
	res.Signal, res.Kind = code, r.msg.Kind
	r.ring.Publish(Message{Kind: r.msg.Kind, Err: code})
	r.Reset()
}

func (r *Receiver) publish(res *StepResult) {
	r.ring.Publish(r.msg)
	res.Published, res.Kind = true, r.msg.Kind
	r.Reset()
}
