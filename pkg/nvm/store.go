package nvm

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/protobuf/proto"
	"github.com/sigurn/crc8"
)

var (
	// ErrNoSnapshot indicates nothing has been saved yet.
	ErrNoSnapshot = errors.New("no snapshot")
	// ErrCorrupt indicates the saved snapshot fails the checksum.
	ErrCorrupt = errors.New("corrupt snapshot")
)

// Store keeps one snapshot.
type Store interface {
	Save(*Snapshot) error
	Load() (*Snapshot, error)
}

var crcTable = crc8.MakeTable(crc8.Params{Poly: 0x07, Init: 0x00, RefIn: false, RefOut: false, XorOut: 0x00, Check: 0xF4, Name: "CRC-8"})

// Encode serializes snap followed by a CRC-8 of the serialized bytes.
func Encode(snap *Snapshot) ([]byte, error) {
	data, err := proto.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return append(data, crc8.Checksum(data, crcTable)), nil
}

// Decode reverses Encode.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, ErrCorrupt
	}
	body, sum := data[:len(data)-1], data[len(data)-1]
	if crc8.Checksum(body, crcTable) != sum {
		return nil, ErrCorrupt
	}
	snap := &Snapshot{}
	if err := proto.Unmarshal(body, snap); err != nil {
		return nil, fmt.Errorf("%v: %v", ErrCorrupt, err)
	}
	return snap, nil
}

// FileStore keeps the snapshot in a file.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	tmp, err := ioutil.TempFile(filepath.Dir(s.Path), ".nvm-")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

// Load implements Store.
func (s *FileStore) Load() (*Snapshot, error) {
	data, err := ioutil.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// MemStore keeps the encoded snapshot in memory.
type MemStore struct {
	lock sync.Mutex
	data []byte
}

// Save implements Store.
func (s *MemStore) Save(snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	s.lock.Lock()
	s.data = data
	s.lock.Unlock()
	return nil
}

// Load implements Store.
func (s *MemStore) Load() (*Snapshot, error) {
	s.lock.Lock()
	data := s.data
	s.lock.Unlock()
	if data == nil {
		return nil, ErrNoSnapshot
	}
	return Decode(data)
}
