package device

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/regmap.go/pkg/dispatch"
	"github.com/robotalks/regmap.go/pkg/nvm"
	"github.com/robotalks/regmap.go/pkg/register"
	"github.com/robotalks/regmap.go/pkg/transport/stream"
)

type testLink struct {
	t      *testing.T
	dev    *Device
	host   net.Conn
	rd     *bufio.Reader
	cancel context.CancelFunc
	done   chan error
}

func testConfig() Config {
	config := DefaultConfig()
	config.Echo = false
	config.BuildDate = "Oct 15 2026"
	config.BuildTime = "12:00:00"
	config.Store = &nvm.MemStore{}
	return config
}

func startDevice(t *testing.T, config Config, setup ...func(*Device)) *testLink {
	devSide, hostSide := net.Pipe()
	dev := New(config)
	for _, fn := range setup {
		fn(dev)
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &testLink{
		t:      t,
		dev:    dev,
		host:   hostSide,
		rd:     bufio.NewReader(hostSide),
		cancel: cancel,
		done:   make(chan error, 1),
	}
	tr := stream.New(devSide)
	go func() {
		l.done <- dev.Serve(ctx, tr)
		tr.Close()
	}()
	return l
}

func (l *testLink) close() {
	l.cancel()
	l.host.Close()
	<-l.done
}

func (l *testLink) send(req string) {
	_, err := l.host.Write([]byte(req))
	require.NoError(l.t, err)
}

func (l *testLink) expect(want string) {
	require.NoError(l.t, l.host.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, len(want))
	_, err := io.ReadFull(l.rd, buf)
	require.NoError(l.t, err)
	require.Equal(l.t, want, string(buf))
}

func (l *testLink) roundTrip(req, want string) {
	l.send(req)
	l.expect(want)
}

func TestDeviceSystemRegisters(t *testing.T) {
	l := startDevice(t, testConfig())
	defer l.close()

	l.roundTrip("#0,?,1,?,2,?\n", "#cake!,Oct 15 2026,12:00:00\n")
	l.roundTrip("#3,?,4,?,5,?\n", "#1,hi,**\n")
	l.roundTrip("#0,%9\n", "#STRING,STRING,STRING,UINT16,STRING,STRING,UINT8,UINT32,UINT8\n")
	l.roundTrip("#7,?,7,9600,8,?\n", "#**,E4,0\n")
	l.roundTrip("#5,abc123,7,?\n", "#921600\n")
	l.roundTrip("#0,x,3,2\n", "#E3,E3\n")
}

func TestDeviceEcho(t *testing.T) {
	config := testConfig()
	config.Echo = true
	l := startDevice(t, config)
	defer l.close()

	l.roundTrip("#4,?\n", "#4,?\n#hi\n")
	l.roundTrip("#1,?\r\n", "#1,?\r\n#Oct 15 2026\n")
	l.roundTrip(":\x02\x01\x03", ":\x03\x01\x01\x00\n")
	l.roundTrip("#8,0,8,?\n", "#8,0,8,?\n#0\n")
	l.roundTrip("#4,?\n", "#hi\n")
	require.False(t, l.dev.EchoEnabled())
}

func TestDeviceBinary(t *testing.T) {
	l := startDevice(t, testConfig())
	defer l.close()

	l.roundTrip(":\x02\x01\x03", ":\x03\x01\x01\x00\n")
	l.roundTrip(":\x03\x05\x07\x02", ":\x03\x05\x05\x03\n")
	l.roundTrip(":\x02\x01\x07", ":\x05\x01\x00\x00\x00\x00\n")
	l.roundTrip("#5,abc123,6,?\n", "#0\n")
	// 921600 = 0x000e1000, no byte needs stuffing
	l.roundTrip(":\x02\x01\x07", ":\x05\x01\x00\x10\x0e\x00\n")
	l.roundTrip(":\x02\x09\x00", ";\x01\n")
}

func TestDeviceStuffedResponse(t *testing.T) {
	l := startDevice(t, testConfig(), func(dev *Device) {
		v := uint16(0x0a3a)
		require.NoError(t, dev.AddRegisters(func(tbl *register.Table) error {
			return tbl.Define(20, register.Uint16, register.ReadOnly, register.Volatile, register.NoProtection, register.BindUint16(&v))
		}))
	})
	defer l.close()

	l.roundTrip(":\x02\x01\x14", ":\x03\x01::\n\n\n")
}

func TestDeviceFramingErrors(t *testing.T) {
	config := testConfig()
	config.RxTimeout = 20 * time.Millisecond
	l := startDevice(t, config)
	defer l.close()

	l.roundTrip(":\x00", ";\x06\n")
	l.roundTrip(":\x04\x01", ";\x07\n")
	l.roundTrip("#0", "#E7\n")
	l.roundTrip("#0,?\n", "#cake!\n")
}

func TestDeviceFramingErrorsInArrivalOrder(t *testing.T) {
	l := startDevice(t, testConfig())
	defer l.close()

	l.roundTrip("#0,?\n:\x00#3,?\n", "#cake!\n;\x06\n#1\n")
	l.roundTrip(":\x00#3,?\n:\x00", ";\x06\n#1\n;\x06\n")
}

func TestDevicePasswordFlow(t *testing.T) {
	l := startDevice(t, testConfig())
	defer l.close()

	l.roundTrip("#5,nope,5,?\n", "#E5,**\n")
	l.roundTrip("#5,abc123,5,?\n", "#abc123\n")
	l.roundTrip("#5,s3cret,5,?\n", "#s3cret\n")
	l.roundTrip("#6,3,5,?\n", "#**\n")
	l.roundTrip("#5,abc123,5,s3cret,5,?\n", "#E5,s3cret\n")
}

func TestDevicePersistAndReset(t *testing.T) {
	config := testConfig()
	store := config.Store
	l := startDevice(t, config)
	defer l.close()

	l.roundTrip("#4,bench,6,2,4,?\n", "#bench\n")
	l.roundTrip("#4,temp,4,?\n", "#temp\n")
	l.roundTrip("#5,abc123,5,?\n", "#abc123\n")
	l.send("#6,1\n")
	l.roundTrip("#4,?,5,?\n", "#bench,**\n")

	snap, err := store.Load()
	require.NoError(t, err)
	require.Len(t, snap.Registers, 3)

	// a new device picks up the saved registers
	l2 := startDevice(t, config)
	defer l2.close()
	l2.roundTrip("#4,?\n", "#bench\n")
}

func TestDeviceResetter(t *testing.T) {
	resets := make(chan struct{}, 1)
	config := testConfig()
	config.Resetter = ResetFunc(func() { resets <- struct{}{} })
	l := startDevice(t, config)
	defer l.close()

	l.send(":\x05\x03\x08\x01\x06\x01")
	select {
	case <-resets:
	case <-time.After(2 * time.Second):
		t.Fatal("reset not requested")
	}
	// the echo flag set ahead of the reset in the same request is stored
	l.roundTrip("#8,?\n", "#8,?\n#1\n")
}

func TestDeviceDump(t *testing.T) {
	l := startDevice(t, testConfig())
	defer l.close()

	l.send("#6,4\n")
	require.NoError(t, l.host.SetReadDeadline(time.Now().Add(2*time.Second)))
	var lines []string
	for {
		line, err := l.rd.ReadString('\n')
		require.NoError(t, err)
		if line == "\n" {
			break
		}
		lines = append(lines, line)
	}
	require.Len(t, lines, 10)
	require.Equal(t, dispatch.DumpHeader+"\n", lines[0])
	require.Equal(t, "| 000 | ro | 0 | 0 | string | cake!\n", lines[1])
	require.Equal(t, "| 005 | rw | 1 | 2 | string | **\n", lines[6])
	require.Equal(t, "| 007 | rw | 1 | 1 | uint32 | **\n", lines[8])
}

func TestBaudDivisor(t *testing.T) {
	require.Equal(t, uint32(7), BaudDivisor(60000000, 921600))
	require.Equal(t, uint32(64), BaudDivisor(60000000, 115200))
	require.Equal(t, uint32(0), BaudDivisor(60000000, 0))
	require.Equal(t, uint32(0), BaudDivisor(100, 921600))
}
