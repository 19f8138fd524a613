package register

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Binding is a typed reference to storage owned by the firmware.
// The value is exchanged as Type().Width() little-endian bytes.
type Binding interface {
	Type() Type
	// Get writes the value into p, len(p) >= Type().Width().
	Get(p []byte)
	// Set stores the value from p, len(p) == Type().Width().
	Set(p []byte)
}

type uint8Binding struct{ v *uint8 }

// BindUint8 binds a uint8 variable.
func BindUint8(v *uint8) Binding { return uint8Binding{v} }

func (b uint8Binding) Type() Type   { return Uint8 }
func (b uint8Binding) Get(p []byte) { p[0] = *b.v }
func (b uint8Binding) Set(p []byte) { *b.v = p[0] }

type int8Binding struct{ v *int8 }

// BindInt8 binds an int8 variable.
func BindInt8(v *int8) Binding { return int8Binding{v} }

func (b int8Binding) Type() Type   { return Int8 }
func (b int8Binding) Get(p []byte) { p[0] = byte(*b.v) }
func (b int8Binding) Set(p []byte) { *b.v = int8(p[0]) }

type uint16Binding struct{ v *uint16 }

// BindUint16 binds a uint16 variable.
func BindUint16(v *uint16) Binding { return uint16Binding{v} }

func (b uint16Binding) Type() Type   { return Uint16 }
func (b uint16Binding) Get(p []byte) { binary.LittleEndian.PutUint16(p, *b.v) }
func (b uint16Binding) Set(p []byte) { *b.v = binary.LittleEndian.Uint16(p) }

type int16Binding struct{ v *int16 }

// BindInt16 binds an int16 variable.
func BindInt16(v *int16) Binding { return int16Binding{v} }

func (b int16Binding) Type() Type   { return Int16 }
func (b int16Binding) Get(p []byte) { binary.LittleEndian.PutUint16(p, uint16(*b.v)) }
func (b int16Binding) Set(p []byte) { *b.v = int16(binary.LittleEndian.Uint16(p)) }

type uint32Binding struct{ v *uint32 }

// BindUint32 binds a uint32 variable.
func BindUint32(v *uint32) Binding { return uint32Binding{v} }

func (b uint32Binding) Type() Type   { return Uint32 }
func (b uint32Binding) Get(p []byte) { binary.LittleEndian.PutUint32(p, *b.v) }
func (b uint32Binding) Set(p []byte) { *b.v = binary.LittleEndian.Uint32(p) }

type int32Binding struct{ v *int32 }

// BindInt32 binds an int32 variable.
func BindInt32(v *int32) Binding { return int32Binding{v} }

func (b int32Binding) Type() Type   { return Int32 }
func (b int32Binding) Get(p []byte) { binary.LittleEndian.PutUint32(p, uint32(*b.v)) }
func (b int32Binding) Set(p []byte) { *b.v = int32(binary.LittleEndian.Uint32(p)) }

type float32Binding struct{ v *float32 }

// BindFloat32 binds a float32 variable.
func BindFloat32(v *float32) Binding { return float32Binding{v} }

func (b float32Binding) Type() Type { return Float32 }
func (b float32Binding) Get(p []byte) {
	binary.LittleEndian.PutUint32(p, math.Float32bits(*b.v))
}
func (b float32Binding) Set(p []byte) {
	*b.v = math.Float32frombits(binary.LittleEndian.Uint32(p))
}

type stringBinding struct{ v *string }

// BindStr binds a string variable. Values are zero padded to StringLen on the
// wire and longer values are truncated.
func BindStr(v *string) Binding { return stringBinding{v} }

func (b stringBinding) Type() Type { return String }

func (b stringBinding) Get(p []byte) {
	n := copy(p[:StringLen], *b.v)
	for i := n; i < StringLen; i++ {
		p[i] = 0
	}
}

func (b stringBinding) Set(p []byte) {
	if n := bytes.IndexByte(p, 0); n >= 0 {
		p = p[:n]
	}
	*b.v = string(p)
}

// FuncBinding adapts a getter/setter pair, e.g. for storage shared with
// another goroutine. Set may be nil for registers that are never stored.
type FuncBinding struct {
	Typ   Type
	GetFn func(p []byte)
	SetFn func(p []byte)
}

// Type implements Binding.
func (b *FuncBinding) Type() Type { return b.Typ }

// Get implements Binding.
func (b *FuncBinding) Get(p []byte) { b.GetFn(p) }

// Set implements Binding.
func (b *FuncBinding) Set(p []byte) {
	if b.SetFn != nil {
		b.SetFn(p)
	}
}
