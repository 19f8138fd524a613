// Package dispatch executes complete request messages against the register
// table and builds the responses.
package dispatch

import (
	"github.com/golang/glog"

	"github.com/robotalks/regmap.go/pkg/codec"
	"github.com/robotalks/regmap.go/pkg/frame"
	"github.com/robotalks/regmap.go/pkg/register"
	"github.com/robotalks/regmap.go/pkg/session"
)

// TxBufferSize is the largest response, before stuffing.
const TxBufferSize = 200

// Reserved register addresses.
const (
	AddrProgrammerTag = 0
	AddrBuildDate     = 1
	AddrBuildTime     = 2
	AddrBuildVersion  = 3
	AddrUserTag       = 4
	AddrPassword      = 5
	AddrSysControl    = 6
	AddrBaudRate      = 7
	AddrEcho          = 8
)

// Values accepted by the system control register.
const (
	SysReset   = 1
	SysPersist = 2
	SysDemote  = 3
	SysDump    = 4
)

// System carries out the system control commands that reach beyond the
// register table.
type System interface {
	// Reset performs a hardware reset.
	Reset()
	// Persist saves the non-volatile registers.
	Persist() error
}

// Response is one frame to transmit. ASCII responses are sent verbatim,
// Binary responses are stuffed and framed by the transmit pipeline.
type Response struct {
	Kind frame.Kind
	Data []byte
}

// Dispatcher executes requests. It is only used from the main loop.
type Dispatcher struct {
	table *register.Table
	guard *session.Guard
	codec *codec.Codec
	sys   System
}

// New creates a Dispatcher.
func New(tbl *register.Table, guard *session.Guard, sys System) *Dispatcher {
	return &Dispatcher{
		table: tbl,
		guard: guard,
		codec: codec.New(tbl, guard),
		sys:   sys,
	}
}

// Codec returns the value codec bound to the session.
func (d *Dispatcher) Codec() *codec.Codec {
	return d.codec
}

// Dispatch executes msg and returns the responses to send in order. A reset
// request returns no response, an aborted frame its framing error.
func (d *Dispatcher) Dispatch(msg *frame.Message) []Response {
	if msg.Err != register.NoError {
		glog.Warningf("%s frame aborted: %v", msg.Kind, msg.Err)
		return []Response{FramingError(msg.Kind, msg.Err)}
	}
	glog.V(2).Infof("RX %s %q", msg.Kind, msg.Bytes())
	var x exec
	if msg.Kind == frame.Binary {
		d.dispatchBinary(&x, msg.Bytes())
	} else {
		d.dispatchASCII(&x, msg.Bytes())
	}
	if x.reset {
		glog.Infof("reset requested")
		if d.sys != nil {
			d.sys.Reset()
		}
		return nil
	}
	return x.out
}

// exec is the state of one request.
type exec struct {
	out   []Response
	reset bool
}

func (x *exec) send(kind frame.Kind, data []byte) {
	x.out = append(x.out, Response{Kind: kind, Data: data})
}

// sysControl runs a system control command.
func (d *Dispatcher) sysControl(x *exec, cmd int64) error {
	switch cmd {
	case SysReset:
		x.reset = true
	case SysPersist:
		if d.sys != nil {
			if err := d.sys.Persist(); err != nil {
				glog.Errorf("persist error: %v", err)
				return register.ErrUnknown
			}
		}
	case SysDemote:
		d.guard.Demote()
	case SysDump:
		x.send(frame.ASCII, d.Dump(nil))
	default:
		return register.ErrBadValue
	}
	return nil
}

func isSysControl(cmd int64) bool {
	return cmd >= SysReset && cmd <= SysDump
}

// FramingError builds the response to a frame the receiver aborted. Binary
// frames get the error frame, ASCII frames a single E<code> item.
func FramingError(kind frame.Kind, code register.Code) Response {
	if kind == frame.Binary {
		return Response{Kind: frame.ASCII, Data: ErrorFrame(code)}
	}
	data := AppendErrorItem([]byte{frame.ASCIIStart}, code)
	return Response{Kind: frame.ASCII, Data: append(data, frame.Terminator)}
}
