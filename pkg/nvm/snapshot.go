// Package nvm saves and restores the non-volatile registers.
package nvm

import (
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/regmap.go/pkg/codec"
	"github.com/robotalks/regmap.go/pkg/register"
)

// Snapshot holds the values of the non-volatile registers.
type Snapshot struct {
	Registers []*Entry `protobuf:"bytes,1,rep,name=registers,proto3" json:"registers,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Snapshot) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Snapshot) Reset() { *m = Snapshot{} }

// String implements proto.Message.
func (m *Snapshot) String() string { return proto.CompactTextString(m) }

// Entry is the value of one register.
type Entry struct {
	Address uint32 `protobuf:"varint,1,opt,name=address,proto3" json:"address,omitempty"`
	Type    uint32 `protobuf:"varint,2,opt,name=type,proto3" json:"type,omitempty"`
	Value   []byte `protobuf:"bytes,3,opt,name=value,proto3" json:"value,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Entry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Entry) Reset() { *m = Entry{} }

// String implements proto.Message.
func (m *Entry) String() string { return proto.CompactTextString(m) }

// Capture takes a snapshot of every NonVolatile register in tbl.
func Capture(tbl *register.Table) *Snapshot {
	snap := &Snapshot{}
	tbl.Each(func(reg *register.Register) {
		if reg.Persistence != register.NonVolatile {
			return
		}
		val := make([]byte, reg.Type.Width())
		reg.Binding.Get(val)
		snap.Registers = append(snap.Registers, &Entry{
			Address: uint32(reg.Address),
			Type:    uint32(reg.Type),
			Value:   val,
		})
	})
	return snap
}

// Apply stores the snapshot values back into tbl. Entries which no longer
// match a NonVolatile register of the same type are skipped. It returns the
// number of registers restored.
func Apply(tbl *register.Table, snap *Snapshot) int {
	var restored int
	for _, ent := range snap.Registers {
		reg, ok := tbl.Metadata(int(ent.Address))
		if !ok || reg.Persistence != register.NonVolatile || uint32(reg.Type) != ent.Type {
			glog.Warningf("nvm: skip register %d", ent.Address)
			continue
		}
		if err := codec.CheckBinary(reg.Type, ent.Value); err != nil {
			glog.Warningf("nvm: register %d: %v", ent.Address, err)
			continue
		}
		reg.Binding.Set(ent.Value)
		restored++
	}
	return restored
}
