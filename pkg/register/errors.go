package register

import "fmt"

// Code is an error code carried on the wire.
type Code byte

// Error codes.
const (
	NoError     Code = 0
	Unknown     Code = 1
	BadChecksum Code = 2 // reserved, nothing computes a checksum
	BadAddress  Code = 3
	BadValue    Code = 4
	BadPassword Code = 5
	// BadLength and Incomplete are only reported on the binary path and by
	// the frame receiver.
	BadLength  Code = 6
	Incomplete Code = 7
)

var codeNames = [...]string{
	NoError:     "no error",
	Unknown:     "unknown",
	BadChecksum: "bad checksum",
	BadAddress:  "bad address",
	BadValue:    "bad value",
	BadPassword: "bad password",
	BadLength:   "bad length",
	Incomplete:  "incomplete",
}

// Error implements error.
func (c Code) Error() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("error code %d", byte(c))
}

// Errors usable with errors.Is.
var (
	ErrUnknown     error = Unknown
	ErrBadAddress  error = BadAddress
	ErrBadValue    error = BadValue
	ErrBadPassword error = BadPassword
	ErrBadLength   error = BadLength
	ErrIncomplete  error = Incomplete
)

// CodeOf maps an error to its wire code. Errors that are not a Code map to
// Unknown, nil maps to NoError.
func CodeOf(err error) Code {
	if err == nil {
		return NoError
	}
	if c, ok := err.(Code); ok {
		return c
	}
	return Unknown
}
