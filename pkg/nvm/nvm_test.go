package nvm

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/regmap.go/pkg/register"
)

type regs struct {
	tag  string
	baud uint32
	vol  uint8
}

func newTable(r *regs) *register.Table {
	tbl := register.NewTable()
	tbl.MustDefine(4, register.String, register.ReadWrite, register.NonVolatile, register.NoProtection, register.BindStr(&r.tag))
	tbl.MustDefine(7, register.Uint32, register.ReadWrite, register.NonVolatile, register.WriteProtected, register.BindUint32(&r.baud))
	tbl.MustDefine(8, register.Uint8, register.ReadWrite, register.Volatile, register.NoProtection, register.BindUint8(&r.vol))
	return tbl
}

func TestCaptureApply(t *testing.T) {
	src := &regs{tag: "bench-1", baud: 115200, vol: 9}
	snap := Capture(newTable(src))
	require.Len(t, snap.Registers, 2)
	require.Equal(t, uint32(4), snap.Registers[0].Address)
	require.Equal(t, uint32(7), snap.Registers[1].Address)

	dst := &regs{}
	require.Equal(t, 2, Apply(newTable(dst), snap))
	require.Equal(t, "bench-1", dst.tag)
	require.Equal(t, uint32(115200), dst.baud)
	require.Equal(t, uint8(0), dst.vol)
}

func TestApplySkipsMismatch(t *testing.T) {
	snap := &Snapshot{Registers: []*Entry{
		{Address: 4, Type: uint32(register.Uint8), Value: []byte{1}},
		{Address: 8, Type: uint32(register.Uint8), Value: []byte{1}},
		{Address: 7, Type: uint32(register.Uint32), Value: []byte{1, 2}},
		{Address: 99, Type: uint32(register.Uint8), Value: []byte{1}},
		{Address: 7, Type: uint32(register.Uint32), Value: []byte{0x80, 0x25, 0, 0}},
	}}
	r := &regs{tag: "keep"}
	require.Equal(t, 1, Apply(newTable(r), snap))
	require.Equal(t, "keep", r.tag)
	require.Equal(t, uint8(0), r.vol)
	require.Equal(t, uint32(9600), r.baud)
}

func TestEncodeDecode(t *testing.T) {
	snap := Capture(newTable(&regs{tag: "x", baud: 1}))
	data, err := Encode(snap)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, snap.String(), out.String())

	data[0] ^= 0xff
	_, err = Decode(data)
	require.Equal(t, ErrCorrupt, err)
	_, err = Decode(nil)
	require.Equal(t, ErrCorrupt, err)
}

func TestFileStore(t *testing.T) {
	dir, err := ioutil.TempDir("", "nvm")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store := NewFileStore(filepath.Join(dir, "regs.nvm"))
	_, err = store.Load()
	require.Equal(t, ErrNoSnapshot, err)

	src := &regs{tag: "saved", baud: 57600}
	require.NoError(t, store.Save(Capture(newTable(src))))
	snap, err := store.Load()
	require.NoError(t, err)
	dst := &regs{}
	require.Equal(t, 2, Apply(newTable(dst), snap))
	require.Equal(t, "saved", dst.tag)
	require.Equal(t, uint32(57600), dst.baud)
}

func TestMemStore(t *testing.T) {
	var store MemStore
	_, err := store.Load()
	require.Equal(t, ErrNoSnapshot, err)
	require.NoError(t, store.Save(&Snapshot{}))
	snap, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, snap.Registers)
}
