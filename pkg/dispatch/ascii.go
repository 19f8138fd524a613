package dispatch

import (
	"bytes"
	"strconv"

	"github.com/robotalks/regmap.go/pkg/codec"
	"github.com/robotalks/regmap.go/pkg/frame"
	"github.com/robotalks/regmap.go/pkg/register"
)

// ASCII operand prefixes.
const (
	OpRead = '?'
	OpType = '%'
)

// room left for ",E6\n" once the response is full
const asciiReserve = 4

// asciiOut collects the comma joined items of an ASCII response.
type asciiOut struct {
	buf  []byte
	full bool
}

func appendSep(dst []byte) []byte {
	if len(dst) == 0 {
		return append(dst, frame.ASCIIStart)
	}
	return append(dst, ',')
}

// AppendErrorItem appends the inline error marker E<code>.
func AppendErrorItem(dst []byte, code register.Code) []byte {
	return strconv.AppendUint(append(dst, 'E'), uint64(code), 10)
}

func (o *asciiOut) add(fn func([]byte) []byte) {
	if o.full {
		return
	}
	mark := len(o.buf)
	buf := fn(appendSep(o.buf))
	if len(buf) > TxBufferSize-asciiReserve {
		buf = AppendErrorItem(appendSep(buf[:mark]), register.BadLength)
		o.full = true
	}
	o.buf = buf
}

func (o *asciiOut) fail(code register.Code) {
	o.add(func(dst []byte) []byte { return AppendErrorItem(dst, code) })
}

func isSeparator(r rune) bool {
	return r == ',' || r == '\r' || r == '\n'
}

func (d *Dispatcher) dispatchASCII(x *exec, p []byte) {
	tokens := bytes.FieldsFunc(p, isSeparator)
	var out asciiOut
	for i := 0; i+1 < len(tokens) && !x.reset; i += 2 {
		addr, addrOK := parseAddress(tokens[i])
		op := tokens[i+1]
		switch op[0] {
		case OpRead, OpType:
			n, ok := parseCount(op[1:])
			if !ok {
				out.fail(register.BadValue)
				continue
			}
			if n == 0 {
				out.add(func(dst []byte) []byte { return dst })
				continue
			}
			for j := 0; j < n; j++ {
				a := -1
				if addrOK {
					a = (addr + j) % register.Size
				}
				if op[0] == OpRead {
					out.add(func(dst []byte) []byte { return d.codec.EncodeASCII(dst, a) })
				} else {
					out.add(func(dst []byte) []byte { return append(dst, d.codec.TypeName(a)...) })
				}
			}
		default:
			err := register.ErrBadAddress
			if addrOK {
				err = d.writeText(x, addr, string(op))
			}
			if err != nil {
				out.fail(register.CodeOf(err))
			}
		}
	}
	if x.reset || len(out.buf) == 0 {
		return
	}
	x.send(frame.ASCII, append(out.buf, frame.Terminator))
}

func (d *Dispatcher) writeText(x *exec, addr int, text string) error {
	switch addr {
	case AddrPassword:
		return d.guard.CheckPassword(text)
	case AddrSysControl:
		cmd, ok := codec.ParseInt(text)
		if !ok {
			return register.ErrBadValue
		}
		return d.sysControl(x, cmd)
	case AddrBaudRate:
		return register.ErrBadValue
	}
	return d.codec.DecodeText(addr, text)
}

func parseAddress(tok []byte) (int, bool) {
	v, ok := codec.ParseInt(string(tok))
	if !ok || v < 0 || v >= register.Size {
		return 0, false
	}
	return int(v), true
}

// parseCount parses the optional count after ? or %. A zero count
// answers with an empty item.
func parseCount(tok []byte) (int, bool) {
	if len(tok) == 0 {
		return 1, true
	}
	v, ok := codec.ParseInt(string(tok))
	if !ok || v < 0 {
		return 0, false
	}
	if v > register.Size {
		v = register.Size
	}
	return int(v), true
}
