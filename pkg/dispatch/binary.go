package dispatch

import (
	"bytes"

	"github.com/robotalks/regmap.go/pkg/codec"
	"github.com/robotalks/regmap.go/pkg/frame"
	"github.com/robotalks/regmap.go/pkg/register"
	"github.com/robotalks/regmap.go/pkg/session"
)

// Binary commands.
const (
	CmdGetList      byte = 1
	CmdMultiGet     byte = 2
	CmdSetList      byte = 3
	CmdGetTypeList  byte = 4
	CmdMultiGetType byte = 5
)

// ErrorFrame builds the binary error response.
func ErrorFrame(code register.Code) []byte {
	return []byte{frame.ErrorStart, byte(code), frame.Terminator}
}

func (d *Dispatcher) dispatchBinary(x *exec, p []byte) {
	if len(p) == 0 {
		x.send(frame.ASCII, ErrorFrame(register.BadLength))
		return
	}
	cmd, payload := p[0], p[1:]
	data := make([]byte, 2, TxBufferSize)
	data[1] = cmd
	var err error
	switch cmd {
	case CmdGetList:
		data, err = d.getList(data, payload)
	case CmdMultiGet:
		data, err = d.multiGet(data, payload)
	case CmdSetList:
		err = d.setList(x, payload)
	case CmdGetTypeList:
		data, err = d.getTypeList(data, payload)
	case CmdMultiGetType:
		data, err = d.multiGetType(data, payload)
	default:
		err = register.ErrUnknown
	}
	if x.reset {
		return
	}
	if err == nil && len(data) > TxBufferSize {
		err = register.ErrBadLength
	}
	if err != nil {
		x.send(frame.ASCII, ErrorFrame(register.CodeOf(err)))
		return
	}
	data[0] = byte(len(data) - 1)
	x.send(frame.Binary, data)
}

func (d *Dispatcher) getList(data, payload []byte) ([]byte, error) {
	var err error
	for _, addr := range payload {
		if data, err = d.codec.EncodeBinary(data, int(addr)); err != nil {
			return data, err
		}
	}
	return data, nil
}

func (d *Dispatcher) multiGet(data, payload []byte) ([]byte, error) {
	if len(payload)%2 != 0 {
		return data, register.ErrIncomplete
	}
	var err error
	for i := 0; i < len(payload); i += 2 {
		addr, count := int(payload[i]), int(payload[i+1])
		for j := 0; j < count; j++ {
			if data, err = d.codec.EncodeBinary(data, addr+j); err != nil {
				return data, err
			}
			if len(data) > TxBufferSize {
				return data, register.ErrBadLength
			}
		}
	}
	return data, nil
}

func (d *Dispatcher) getTypeList(data, payload []byte) ([]byte, error) {
	for _, addr := range payload {
		data = append(data, byte(d.table.TypeOf(int(addr))))
	}
	return data, nil
}

func (d *Dispatcher) multiGetType(data, payload []byte) ([]byte, error) {
	if len(payload)%2 != 0 {
		return data, register.ErrIncomplete
	}
	for i := 0; i < len(payload); i += 2 {
		addr, count := int(payload[i]), int(payload[i+1])
		for j := 0; j < count; j++ {
			data = append(data, byte(d.table.TypeOf(addr+j)))
		}
	}
	return data, nil
}

type setOp struct {
	addr  int
	value []byte
}

// setList validates every group before storing any of them. Validation
// follows the privilege changes the earlier groups of the same request
// will make.
func (d *Dispatcher) setList(x *exec, payload []byte) error {
	pl := &planGuard{elevated: d.guard.Level() == session.Elevated}
	c := codec.New(d.table, pl)
	var ops []setOp
	for i := 0; i < len(payload); {
		addr := int(payload[i])
		i++
		reg, ok := d.table.Metadata(addr)
		if !ok {
			return register.ErrBadAddress
		}
		w := reg.Type.Width()
		if i+w > len(payload) {
			return register.ErrIncomplete
		}
		op := setOp{addr: addr, value: payload[i : i+w]}
		i += w
		if err := d.validateSet(c, pl, op); err != nil {
			return err
		}
		ops = append(ops, op)
	}
	for _, op := range ops {
		if err := d.applySet(x, op); err != nil {
			return err
		}
		if x.reset {
			break
		}
	}
	return nil
}

func (d *Dispatcher) validateSet(c *codec.Codec, pl *planGuard, op setOp) error {
	switch op.addr {
	case AddrPassword:
		pw := cString(op.value)
		switch {
		case pl.elevated:
			pl.secret = &pw
		case pl.secret != nil && *pl.secret == pw, pl.secret == nil && d.guard.Matches(pw):
			pl.elevated = true
		default:
			return register.ErrBadPassword
		}
		return nil
	case AddrSysControl:
		cmd := int64(op.value[0])
		if !isSysControl(cmd) {
			return register.ErrBadValue
		}
		if cmd == SysDemote {
			pl.elevated = false
		}
		return nil
	case AddrBaudRate:
		return register.ErrBadValue
	}
	return c.ValidateBinary(op.addr, op.value)
}

func (d *Dispatcher) applySet(x *exec, op setOp) error {
	switch op.addr {
	case AddrPassword:
		return d.guard.CheckPassword(cString(op.value))
	case AddrSysControl:
		return d.sysControl(x, int64(op.value[0]))
	}
	reg, _ := d.table.Metadata(op.addr)
	reg.Binding.Set(op.value)
	return nil
}

// planGuard tracks the privilege a set-list will have at each group.
type planGuard struct {
	elevated bool
	secret   *string
}

func (g *planGuard) CanRead(p register.Protection) bool {
	return p == register.NoProtection || g.elevated
}

func (g *planGuard) CanWrite(p register.Protection) bool {
	return p == register.NoProtection || g.elevated
}

func cString(p []byte) string {
	if n := bytes.IndexByte(p, 0); n >= 0 {
		p = p[:n]
	}
	return string(p)
}
