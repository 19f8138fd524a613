package dispatch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/robotalks/regmap.go/pkg/register"
)

// DumpHeader is the first line of a table dump.
const DumpHeader = "| ADR | RW | N | P | TYPE   | VALUE"

// Dump appends a text table of every used register to dst, one line per
// register after the header, terminated by an empty line.
func (d *Dispatcher) Dump(dst []byte) []byte {
	buf := bytes.NewBuffer(dst)
	buf.WriteString(DumpHeader)
	buf.WriteByte('\n')
	var val []byte
	d.table.Each(func(reg *register.Register) {
		rw := "ro"
		if reg.IsWritable() {
			rw = "rw"
		}
		val = d.codec.EncodeASCII(val[:0], int(reg.Address))
		fmt.Fprintf(buf, "| %03d | %s | %d | %d | %-6s | %s\n",
			reg.Address, rw, reg.Persistence, reg.Protection,
			strings.ToLower(reg.Type.String()), val)
	})
	buf.WriteByte('\n')
	return buf.Bytes()
}
