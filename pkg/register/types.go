// Package register provides the address-indexed table of typed registers.
package register

// Type is the value type tag of a register. It fixes the wire width and the
// text format of the value.
type Type byte

// Register types.
const (
	Undefined Type = iota
	Uint8
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Float32
	String
)

// StringLen is the fixed length of String registers.
const StringLen = 20

var typeWidths = [...]int{0, 1, 1, 2, 2, 4, 4, 4, StringLen}

var typeNames = [...]string{"?", "UINT8", "INT8", "UINT16", "INT16", "UINT32", "INT32", "FLOAT", "STRING"}

// Width is the number of bytes the type occupies on the binary wire.
func (t Type) Width() int {
	if t.IsValid() {
		return typeWidths[t]
	}
	return 0
}

// String returns the type name as reported on the ASCII wire.
func (t Type) String() string {
	if t.IsValid() {
		return typeNames[t]
	}
	return "?"
}

// IsValid indicates t is a known tag.
func (t Type) IsValid() bool {
	return t <= String
}

// Access indicates whether the host may write the register.
type Access byte

// Access modes.
const (
	ReadOnly Access = iota
	ReadWrite
)

// Persistence indicates whether the register survives a reset.
type Persistence byte

// Persistence modes.
const (
	Volatile Persistence = iota
	NonVolatile
)

// Protection is the privilege required to touch a register.
// Levels are ordered: NoProtection < WriteProtected < ReadWriteProtected.
type Protection byte

// Protection levels.
const (
	NoProtection Protection = iota
	WriteProtected
	ReadWriteProtected
)
