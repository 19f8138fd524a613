package register

import (
	"fmt"

	"github.com/golang/glog"
)

// Size is the number of addressable slots.
const Size = 256

// Register is the metadata of one table slot.
type Register struct {
	Address     byte
	Type        Type
	Access      Access
	Persistence Persistence
	Protection  Protection
	Binding     Binding
}

// IsWritable indicates the host may store into the register.
func (r *Register) IsWritable() bool {
	return r.Access == ReadWrite
}

// Table is the fixed, address-indexed register table.
// It is populated at startup and only read afterwards.
type Table struct {
	regs [Size]Register
	used [Size]bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Define marks addr as used and binds it to storage. Defining an address
// twice replaces the previous register.
func (t *Table) Define(addr byte, typ Type, access Access, persist Persistence, prot Protection, b Binding) error {
	if b == nil {
		return fmt.Errorf("register %d: nil binding", addr)
	}
	if !typ.IsValid() || typ == Undefined {
		return fmt.Errorf("register %d: invalid type %d", addr, typ)
	}
	if b.Type() != typ {
		return fmt.Errorf("register %d: binding type %s mismatches %s", addr, b.Type(), typ)
	}
	if t.used[addr] {
		glog.Warningf("register %d redefined", addr)
	}
	t.regs[addr] = Register{
		Address:     addr,
		Type:        typ,
		Access:      access,
		Persistence: persist,
		Protection:  prot,
		Binding:     b,
	}
	t.used[addr] = true
	return nil
}

// MustDefine is Define which panics on error.
func (t *Table) MustDefine(addr byte, typ Type, access Access, persist Persistence, prot Protection, b Binding) {
	if err := t.Define(addr, typ, access, persist, prot, b); err != nil {
		panic(err)
	}
}

// Metadata returns the register at addr. ok is false for unused or
// out-of-range addresses.
func (t *Table) Metadata(addr int) (reg *Register, ok bool) {
	if addr < 0 || addr >= Size || !t.used[addr] {
		return nil, false
	}
	return &t.regs[addr], true
}

// TypeOf returns the type of addr, Undefined if unused.
func (t *Table) TypeOf(addr int) Type {
	if reg, ok := t.Metadata(addr); ok {
		return reg.Type
	}
	return Undefined
}

// Each calls fn on every used register in address order.
func (t *Table) Each(fn func(*Register)) {
	for i := range t.regs {
		if t.used[i] {
			fn(&t.regs[i])
		}
	}
}
