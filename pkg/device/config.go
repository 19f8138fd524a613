package device

import (
	"time"

	"github.com/robotalks/regmap.go/pkg/frame"
	"github.com/robotalks/regmap.go/pkg/nvm"
)

// Config defines the device identity and link parameters.
type Config struct {
	// ClockHz is the peripheral clock feeding the baud generator.
	ClockHz uint32
	// Baud is the configured link speed, reported by the baud register.
	Baud uint32
	// Echo enables echoing of ASCII frames.
	Echo bool
	// RingSize is the number of completed requests buffered.
	RingSize int
	// RxTimeout aborts a frame after this much silence, 0 disables.
	RxTimeout time.Duration

	ProgrammerTag string
	UserTag       string
	Password      string
	BuildDate     string
	BuildTime     string
	BuildVersion  uint16

	// Store persists the non-volatile registers, nil disables persistence.
	Store nvm.Store
	// Resetter performs the hardware reset, nil uses the soft reset.
	Resetter Resetter
}

// Defaults.
const (
	DefaultClockHz      = 60000000
	DefaultBaud         = 921600
	DefaultPassword     = "abc123"
	DefaultUserTag      = "hi"
	DefaultProgTag      = "cake!"
	DefaultBuildVersion = 1
)

// DefaultConfig returns the factory settings.
func DefaultConfig() Config {
	return Config{
		ClockHz:       DefaultClockHz,
		Baud:          DefaultBaud,
		Echo:          true,
		RingSize:      frame.DefaultRingSize,
		ProgrammerTag: DefaultProgTag,
		UserTag:       DefaultUserTag,
		Password:      DefaultPassword,
		BuildDate:     buildStamp.Format("Jan _2 2006"),
		BuildTime:     buildStamp.Format("15:04:05"),
		BuildVersion:  DefaultBuildVersion,
	}
}

var buildStamp = time.Now()

// BaudDivisor computes the high speed baud generator divisor.
func BaudDivisor(clockHz, baud uint32) uint32 {
	if baud == 0 {
		return 0
	}
	div := clockHz / (8 * baud)
	if div == 0 {
		return 0
	}
	return div - 1
}
