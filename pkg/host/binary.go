package host

import (
	"bufio"
	"fmt"

	"github.com/robotalks/regmap.go/pkg/codec"
	"github.com/robotalks/regmap.go/pkg/dispatch"
	"github.com/robotalks/regmap.go/pkg/frame"
	"github.com/robotalks/regmap.go/pkg/register"
)

// Binary sends one binary command and returns the response data following
// the command byte.
func (c *Client) Binary(cmd byte, payload []byte) ([]byte, error) {
	if n := len(payload) + 1; n >= frame.MaxMessageLen {
		return nil, fmt.Errorf("request of %d bytes exceeds %d", n, frame.MaxMessageLen-1)
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	req := make([]byte, 0, len(payload)+3)
	req = append(req, frame.BinaryStart, byte(len(payload)+1), cmd)
	req = append(req, payload...)
	if _, err := c.rw.Write(req); err != nil {
		return nil, err
	}
	c.arm()
	resp, err := ReadBinaryResponse(c.rd)
	if err != nil {
		return nil, err
	}
	if resp[0] != cmd {
		return nil, &ErrBadResponse{Got: resp}
	}
	return resp[1:], nil
}

// ReadBinaryResponse reads one binary response and returns the unstuffed
// command byte and data. An error frame is returned as a register.Code.
// Bytes ahead of the frame start are skipped.
func ReadBinaryResponse(rd *bufio.Reader) ([]byte, error) {
	for {
		b, err := rd.ReadByte()
		if err != nil {
			return nil, err
		}
		switch b {
		case frame.ErrorStart:
			var tail [2]byte
			if _, err := readFull(rd, tail[:]); err != nil {
				return nil, err
			}
			if tail[1] != frame.Terminator {
				return nil, &ErrBadResponse{Got: append([]byte{b}, tail[:]...)}
			}
			return nil, register.Code(tail[0])
		case frame.BinaryStart:
			return readStuffed(rd)
		}
	}
}

func readStuffed(rd *bufio.Reader) ([]byte, error) {
	n, err := unstuffByte(rd)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &ErrBadResponse{Got: []byte{frame.BinaryStart, n}}
	}
	out := make([]byte, n)
	for i := range out {
		if out[i], err = unstuffByte(rd); err != nil {
			return nil, err
		}
	}
	b, err := rd.ReadByte()
	if err != nil {
		return nil, err
	}
	if b != frame.Terminator {
		return nil, frame.ErrBadStuffing
	}
	return out, nil
}

// unstuffByte reads one payload byte. The escape and terminator bytes
// arrive doubled.
func unstuffByte(rd *bufio.Reader) (byte, error) {
	b, err := rd.ReadByte()
	if err != nil {
		return 0, err
	}
	if b == frame.Escape || b == frame.Terminator {
		next, err := rd.ReadByte()
		if err != nil {
			return 0, err
		}
		if next != b {
			return 0, frame.ErrBadStuffing
		}
	}
	return b, nil
}

func readFull(rd *bufio.Reader, p []byte) (int, error) {
	for i := range p {
		b, err := rd.ReadByte()
		if err != nil {
			return i, err
		}
		p[i] = b
	}
	return len(p), nil
}

// GetBinary reads the raw values of addrs, concatenated.
func (c *Client) GetBinary(addrs ...byte) ([]byte, error) {
	return c.Binary(dispatch.CmdGetList, addrs)
}

// MultiGet reads the raw values of n consecutive addresses from addr.
func (c *Client) MultiGet(addr byte, n int) ([]byte, error) {
	return c.Binary(dispatch.CmdMultiGet, []byte{addr, byte(n)})
}

// TypeList reads the types of addrs, Undefined for unused addresses.
func (c *Client) TypeList(addrs ...byte) ([]register.Type, error) {
	data, err := c.Binary(dispatch.CmdGetTypeList, addrs)
	return toTypes(data), err
}

// MultiGetType reads the types of n consecutive addresses from addr.
func (c *Client) MultiGetType(addr byte, n int) ([]register.Type, error) {
	data, err := c.Binary(dispatch.CmdMultiGetType, []byte{addr, byte(n)})
	return toTypes(data), err
}

func toTypes(data []byte) []register.Type {
	if data == nil {
		return nil
	}
	types := make([]register.Type, len(data))
	for i, b := range data {
		types[i] = register.Type(b)
	}
	return types
}

// Assignment is one group of a binary set-list.
type Assignment struct {
	Addr  byte
	Value []byte
}

// SetBinary stores the raw values. The device applies all of them or none.
func (c *Client) SetBinary(assignments ...Assignment) error {
	var payload []byte
	for _, a := range assignments {
		payload = append(append(payload, a.Addr), a.Value...)
	}
	data, err := c.Binary(dispatch.CmdSetList, payload)
	if err == nil && len(data) != 0 {
		err = &ErrBadResponse{Got: data}
	}
	return err
}

// ReadValues reads addrs over the binary link and formats them as text,
// the types being queried first.
func (c *Client) ReadValues(addrs ...byte) ([]string, error) {
	types, err := c.TypeList(addrs...)
	if err != nil {
		return nil, err
	}
	for i, t := range types {
		if t == register.Undefined {
			return nil, fmt.Errorf("register %d: %v", addrs[i], register.ErrBadAddress)
		}
	}
	data, err := c.GetBinary(addrs...)
	if err != nil {
		return nil, err
	}
	return FormatValues(types, data)
}

// FormatValues splits data by the widths of types and formats each value.
func FormatValues(types []register.Type, data []byte) ([]string, error) {
	vals := make([]string, 0, len(types))
	for _, t := range types {
		w := t.Width()
		if w > len(data) {
			return vals, register.ErrIncomplete
		}
		vals = append(vals, string(codec.AppendText(nil, t, data[:w])))
		data = data[w:]
	}
	return vals, nil
}

// EncodeValue converts text into the raw value of type t.
func EncodeValue(t register.Type, text string) ([]byte, error) {
	if t == register.Undefined || !t.IsValid() {
		return nil, register.ErrBadAddress
	}
	p := make([]byte, t.Width())
	if err := codec.ParseText(p, t, text); err != nil {
		return nil, err
	}
	return p, nil
}
