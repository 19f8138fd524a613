// Package device runs the register protocol over a byte transport: the
// receive goroutine assembles requests, the main loop executes them and
// transmits the responses.
package device

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/regmap.go/pkg/dispatch"
	"github.com/robotalks/regmap.go/pkg/frame"
	"github.com/robotalks/regmap.go/pkg/nvm"
	"github.com/robotalks/regmap.go/pkg/register"
	"github.com/robotalks/regmap.go/pkg/session"
	"github.com/robotalks/regmap.go/pkg/transmit"
	"github.com/robotalks/regmap.go/pkg/transport"
)

// Device owns the register table and the protocol state.
type Device struct {
	config Config

	table      *register.Table
	guard      *session.Guard
	dispatcher *dispatch.Dispatcher
	ring       *frame.Ring
	loadOnce   sync.Once

	progTag  string
	userTag  string
	password string
	sysctl   uint8
	baud     uint32
	echo     uint32
}

// New creates a Device with the system registers defined.
func New(config Config) *Device {
	if config.RingSize <= 0 {
		config.RingSize = frame.DefaultRingSize
	}
	d := &Device{
		config:   config,
		table:    register.NewTable(),
		ring:     frame.NewRing(config.RingSize),
		progTag:  config.ProgrammerTag,
		userTag:  config.UserTag,
		password: config.Password,
		baud:     config.Baud,
	}
	if config.Echo {
		d.echo = 1
	}
	d.guard = session.NewGuard(&d.password)
	d.dispatcher = dispatch.New(d.table, d.guard, d)
	d.defineSystemRegisters()
	glog.Infof("device up: baud %d divisor %d", config.Baud, BaudDivisor(config.ClockHz, config.Baud))
	return d
}

func (d *Device) defineSystemRegisters() {
	t := d.table
	buildDate, buildTime, version := d.config.BuildDate, d.config.BuildTime, d.config.BuildVersion
	t.MustDefine(dispatch.AddrProgrammerTag, register.String, register.ReadOnly, register.Volatile, register.NoProtection, register.BindStr(&d.progTag))
	t.MustDefine(dispatch.AddrBuildDate, register.String, register.ReadOnly, register.Volatile, register.NoProtection, register.BindStr(&buildDate))
	t.MustDefine(dispatch.AddrBuildTime, register.String, register.ReadOnly, register.Volatile, register.NoProtection, register.BindStr(&buildTime))
	t.MustDefine(dispatch.AddrBuildVersion, register.Uint16, register.ReadOnly, register.Volatile, register.NoProtection, register.BindUint16(&version))
	t.MustDefine(dispatch.AddrUserTag, register.String, register.ReadWrite, register.NonVolatile, register.NoProtection, register.BindStr(&d.userTag))
	t.MustDefine(dispatch.AddrPassword, register.String, register.ReadWrite, register.NonVolatile, register.ReadWriteProtected, register.BindStr(&d.password))
	t.MustDefine(dispatch.AddrSysControl, register.Uint8, register.ReadWrite, register.Volatile, register.NoProtection, register.BindUint8(&d.sysctl))
	t.MustDefine(dispatch.AddrBaudRate, register.Uint32, register.ReadWrite, register.NonVolatile, register.WriteProtected, register.BindUint32(&d.baud))
	// echo is also read by the receive goroutine
	t.MustDefine(dispatch.AddrEcho, register.Uint8, register.ReadWrite, register.Volatile, register.NoProtection, &register.FuncBinding{
		Typ:   register.Uint8,
		GetFn: func(p []byte) { p[0] = byte(atomic.LoadUint32(&d.echo)) },
		SetFn: func(p []byte) { atomic.StoreUint32(&d.echo, uint32(p[0])) },
	})
}

// AddRegisters lets the firmware define application registers. It must be
// called before Serve.
func (d *Device) AddRegisters(fn func(*register.Table) error) error {
	return fn(d.table)
}

// Table exposes the register table.
func (d *Device) Table() *register.Table {
	return d.table
}

// Guard exposes the session privilege.
func (d *Device) Guard() *session.Guard {
	return d.guard
}

// Ring exposes the request ring.
func (d *Device) Ring() *frame.Ring {
	return d.ring
}

// EchoEnabled reports the echo register.
func (d *Device) EchoEnabled() bool {
	return atomic.LoadUint32(&d.echo)&1 != 0
}

// Serve runs the device on tr until ctx is done or tr fails. The first call
// restores the non-volatile registers. The caller closes tr to stop the
// receive goroutine.
func (d *Device) Serve(ctx context.Context, tr transport.ByteTransport) error {
	d.loadOnce.Do(d.restore)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rx := &receiveLoop{
		tr:       tr,
		receiver: frame.NewReceiver(d.ring),
		timeout:  d.config.RxTimeout,
		echoOn:   d.EchoEnabled,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- rx.Run(ctx) }()

	pipe := transmit.New(tr, 2*dispatch.TxBufferSize+2)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case msg := <-d.ring.Ready():
			for _, resp := range d.dispatcher.Dispatch(&msg) {
				if err := pipe.Send(ctx, resp.Kind, resp.Data); err != nil {
					return err
				}
			}
		}
	}
}

// Reset implements dispatch.System.
func (d *Device) Reset() {
	if r := d.config.Resetter; r != nil {
		r.Reset()
		return
	}
	d.SoftReset()
}

// SoftReset returns the session and the non-volatile registers to their
// power-on state without restarting. Requests already received are kept.
func (d *Device) SoftReset() {
	d.guard.Reset()
	d.sysctl = 0
	d.restore()
	glog.Info("device reset")
}

// Persist implements dispatch.System.
func (d *Device) Persist() error {
	if d.config.Store == nil {
		glog.Warning("persist requested without a store")
		return nil
	}
	snap := nvm.Capture(d.table)
	if err := d.config.Store.Save(snap); err != nil {
		return err
	}
	glog.Infof("persisted %d registers", len(snap.Registers))
	return nil
}

func (d *Device) restore() {
	if d.config.Store == nil {
		return
	}
	snap, err := d.config.Store.Load()
	if err != nil {
		if err != nvm.ErrNoSnapshot {
			glog.Errorf("nvm load error: %v", err)
		}
		return
	}
	glog.Infof("restored %d registers", nvm.Apply(d.table, snap))
}

// Resetter is the hardware reset primitive.
type Resetter interface {
	Reset()
}

// ResetFunc is the func form of Resetter.
type ResetFunc func()

// Reset implements Resetter.
func (f ResetFunc) Reset() { f() }
