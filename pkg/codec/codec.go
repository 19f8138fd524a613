// Package codec encodes, decodes and validates register values on the
// binary and ASCII wires.
package codec

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/robotalks/regmap.go/pkg/register"
)

// Guard decides what the current session may see and store.
type Guard interface {
	CanRead(register.Protection) bool
	CanWrite(register.Protection) bool
}

// Text returned for values the session may not read and for unused addresses.
const (
	MaskedText = "**"
	UnusedText = "?"
)

// Codec converts register values between storage and the wire.
type Codec struct {
	Table *register.Table
	Guard Guard
}

// New creates a Codec.
func New(tbl *register.Table, guard Guard) *Codec {
	return &Codec{Table: tbl, Guard: guard}
}

// EncodeBinary appends the little-endian value of addr to dst. A value the
// session may not read is replaced by the same number of zero bytes.
func (c *Codec) EncodeBinary(dst []byte, addr int) ([]byte, error) {
	reg, ok := c.Table.Metadata(addr)
	if !ok {
		return dst, register.ErrBadAddress
	}
	n := reg.Type.Width()
	start := len(dst)
	for i := 0; i < n; i++ {
		dst = append(dst, 0)
	}
	if c.Guard.CanRead(reg.Protection) {
		reg.Binding.Get(dst[start:])
	}
	return dst, nil
}

// EncodeASCII appends the text form of addr to dst.
func (c *Codec) EncodeASCII(dst []byte, addr int) []byte {
	reg, ok := c.Table.Metadata(addr)
	if !ok {
		return append(dst, UnusedText...)
	}
	if !c.Guard.CanRead(reg.Protection) {
		return append(dst, MaskedText...)
	}
	var raw [register.StringLen]byte
	reg.Binding.Get(raw[:])
	return AppendText(dst, reg.Type, raw[:reg.Type.Width()])
}

// TypeName returns the ASCII type name of addr.
func (c *Codec) TypeName(addr int) string {
	return c.Table.TypeOf(addr).String()
}

// DecodeText parses text and stores it into addr.
func (c *Codec) DecodeText(addr int, text string) error {
	reg, err := c.writable(addr)
	if err != nil {
		return err
	}
	var raw [register.StringLen]byte
	p := raw[:reg.Type.Width()]
	if err := ParseText(p, reg.Type, text); err != nil {
		return err
	}
	reg.Binding.Set(p)
	return nil
}

// ValidateBinary checks p could be stored into addr without storing it.
func (c *Codec) ValidateBinary(addr int, p []byte) error {
	reg, err := c.writable(addr)
	if err != nil {
		return err
	}
	return CheckBinary(reg.Type, p)
}

// DecodeBinary stores the little-endian value p into addr.
func (c *Codec) DecodeBinary(addr int, p []byte) error {
	if err := c.ValidateBinary(addr, p); err != nil {
		return err
	}
	reg, _ := c.Table.Metadata(addr)
	reg.Binding.Set(p)
	return nil
}

func (c *Codec) writable(addr int) (*register.Register, error) {
	reg, ok := c.Table.Metadata(addr)
	if !ok || !reg.IsWritable() {
		return nil, register.ErrBadAddress
	}
	if !c.Guard.CanWrite(reg.Protection) {
		return nil, register.ErrBadPassword
	}
	return reg, nil
}

// AppendText formats the little-endian value p of type typ.
func AppendText(dst []byte, typ register.Type, p []byte) []byte {
	switch typ {
	case register.Uint8:
		return strconv.AppendUint(dst, uint64(p[0]), 10)
	case register.Int8:
		return strconv.AppendInt(dst, int64(int8(p[0])), 10)
	case register.Uint16:
		return strconv.AppendUint(dst, uint64(binary.LittleEndian.Uint16(p)), 10)
	case register.Int16:
		return strconv.AppendInt(dst, int64(int16(binary.LittleEndian.Uint16(p))), 10)
	case register.Uint32:
		return strconv.AppendUint(dst, uint64(binary.LittleEndian.Uint32(p)), 10)
	case register.Int32:
		return strconv.AppendInt(dst, int64(int32(binary.LittleEndian.Uint32(p))), 10)
	case register.Float32:
		f := math.Float32frombits(binary.LittleEndian.Uint32(p))
		return strconv.AppendFloat(dst, float64(f), 'f', 6, 32)
	case register.String:
		for _, b := range p {
			if b == 0 {
				break
			}
			dst = append(dst, b)
		}
		return dst
	}
	return append(dst, UnusedText...)
}

type intRange struct{ min, max int64 }

var intRanges = [...]intRange{
	register.Uint8:  {0, math.MaxUint8},
	register.Int8:   {math.MinInt8, math.MaxInt8},
	register.Uint16: {0, math.MaxUint16},
	register.Int16:  {math.MinInt16, math.MaxInt16},
	register.Uint32: {0, math.MaxUint32},
	register.Int32:  {math.MinInt32, math.MaxInt32},
}

// ParseText parses text as a value of typ into p (typ.Width() bytes).
// The whole token must parse and be in range, otherwise ErrBadValue.
func ParseText(p []byte, typ register.Type, text string) error {
	switch typ {
	case register.Uint8, register.Int8, register.Uint16, register.Int16, register.Uint32, register.Int32:
		v, ok := ParseInt(text)
		if !ok {
			return register.ErrBadValue
		}
		if r := intRanges[typ]; v < r.min || v > r.max {
			return register.ErrBadValue
		}
		putInt(p, typ.Width(), v)
		return nil
	case register.Float32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return register.ErrBadValue
		}
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(f)))
		return nil
	case register.String:
		if len(text) > register.StringLen {
			return register.ErrBadValue
		}
		n := copy(p, text)
		for ; n < len(p); n++ {
			p[n] = 0
		}
		return nil
	}
	return register.ErrUnknown
}

// ParseInt parses a decimal, 0x hexadecimal or 0 octal integer token.
func ParseInt(text string) (int64, bool) {
	if text == "" || strings.ContainsRune(text, '_') {
		return 0, false
	}
	v, err := strconv.ParseInt(text, 0, 64)
	return v, err == nil
}

// CheckBinary validates the little-endian value p of typ.
func CheckBinary(typ register.Type, p []byte) error {
	if len(p) != typ.Width() || typ == register.Undefined {
		return register.ErrBadValue
	}
	if typ == register.Float32 {
		f := math.Float32frombits(binary.LittleEndian.Uint32(p))
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return register.ErrBadValue
		}
	}
	return nil
}

func putInt(p []byte, width int, v int64) {
	switch width {
	case 1:
		p[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(p, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(p, uint32(v))
	}
}
