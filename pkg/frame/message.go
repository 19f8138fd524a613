// Package frame turns a byte stream into complete request messages and
// defines the framing bytes shared by requests and responses.
package frame

import "github.com/robotalks/regmap.go/pkg/register"

// MaxMessageLen is the capacity of one message slot.
const MaxMessageLen = 50

// Kind tags the encoding of a message.
type Kind byte

// Message kinds.
const (
	ASCII Kind = iota
	Binary
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == Binary {
		return "binary"
	}
	return "ascii"
}

// Framing bytes.
const (
	ASCIIStart  byte = '#'
	BinaryStart byte = ':'
	ErrorStart  byte = ';'
	Terminator  byte = '\n'
	CarriageRet byte = '\r'
	// Escape is doubled inside stuffed payloads, as is Terminator.
	Escape = BinaryStart
)

// Message is one complete request. For Binary messages Data holds the
// command byte and the payload, the length byte is Len. A frame the
// receiver aborted is queued as an empty message carrying Err, so it is
// answered in arrival order.
type Message struct {
	Kind Kind
	Err  register.Code
	Len  int
	Data [MaxMessageLen]byte
}

// Bytes returns the message content.
func (m *Message) Bytes() []byte {
	return m.Data[:m.Len]
}
