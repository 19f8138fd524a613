// Package env provides the common configuration of the daemon and the
// tools: defaults, REGMAP_* environment variables, command line flags and
// an optional TOML file.
package env

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/robotalks/regmap.go/pkg/device"
	"github.com/robotalks/regmap.go/pkg/frame"
	"github.com/robotalks/regmap.go/pkg/nvm"
)

// Config provides the link and device settings.
type Config struct {
	// URL specifies the link, e.g.
	// serial:///dev/ttyUSB0?baud=115200, tcp://localhost:7000,
	// ws://localhost:8080/regmap, mqtt://host:1883/regmap/
	URL string
	// ID names the device on shared links (MQTT topics).
	ID string

	NVMPath   string
	Password  string
	UserTag   string
	Baud      uint
	ClockHz   uint
	Echo      bool
	RingSize  int
	RxTimeout time.Duration
}

var defaultConfig = Config{
	URL:      "tcp://localhost:7000",
	Password: device.DefaultPassword,
	UserTag:  device.DefaultUserTag,
	Baud:     device.DefaultBaud,
	ClockHz:  device.DefaultClockHz,
	Echo:     true,
	RingSize: frame.DefaultRingSize,
}

func init() {
	if val := os.Getenv("REGMAP_URL"); val != "" {
		defaultConfig.URL = val
	}
	if val := os.Getenv("REGMAP_ID"); val != "" {
		defaultConfig.ID = val
	} else {
		defaultConfig.ID = DeviceID()
	}
	if val := os.Getenv("REGMAP_NVM"); val != "" {
		defaultConfig.NVMPath = val
	}
	if val := os.Getenv("REGMAP_PASSWORD"); val != "" {
		defaultConfig.Password = val
	}
}

// SetupFlags sets up the link flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.URL, "url", defaultConfig.URL, "Link URL (serial://, tcp://, ws://, mqtt://)")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Device ID on shared links")
}

// SetupDeviceFlags sets up the flags of the device emulator.
func SetupDeviceFlags() {
	SetupFlags()
	flag.StringVar(&defaultConfig.NVMPath, "nvm", defaultConfig.NVMPath, "File keeping the non-volatile registers")
	flag.StringVar(&defaultConfig.Password, "password", defaultConfig.Password, "Factory password")
	flag.StringVar(&defaultConfig.UserTag, "user-tag", defaultConfig.UserTag, "Factory user tag")
	flag.UintVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Baud rate")
	flag.UintVar(&defaultConfig.ClockHz, "clock", defaultConfig.ClockHz, "Peripheral clock in Hz")
	flag.BoolVar(&defaultConfig.Echo, "echo", defaultConfig.Echo, "Echo ASCII requests")
	flag.IntVar(&defaultConfig.RingSize, "ring", defaultConfig.RingSize, "Number of requests buffered")
	flag.DurationVar(&defaultConfig.RxTimeout, "rx-timeout", defaultConfig.RxTimeout, "Abort a frame after this much silence, 0 disables")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

type fileConfig struct {
	URL       string `toml:"url"`
	ID        string `toml:"id"`
	NVMPath   string `toml:"nvm"`
	Password  string `toml:"password"`
	UserTag   string `toml:"user_tag"`
	Baud      uint   `toml:"baud"`
	ClockHz   uint   `toml:"clock_hz"`
	Echo      bool   `toml:"echo"`
	RingSize  int    `toml:"ring_size"`
	RxTimeout string `toml:"rx_timeout"`
}

// LoadFile overlays the keys defined in a TOML file.
func (c *Config) LoadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %v", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}
	if meta.IsDefined("url") {
		c.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("id") {
		c.ID = strings.TrimSpace(raw.ID)
	}
	if meta.IsDefined("nvm") {
		c.NVMPath = strings.TrimSpace(raw.NVMPath)
	}
	if meta.IsDefined("password") {
		c.Password = raw.Password
	}
	if meta.IsDefined("user_tag") {
		c.UserTag = raw.UserTag
	}
	if meta.IsDefined("baud") {
		c.Baud = raw.Baud
	}
	if meta.IsDefined("clock_hz") {
		c.ClockHz = raw.ClockHz
	}
	if meta.IsDefined("echo") {
		c.Echo = raw.Echo
	}
	if meta.IsDefined("ring_size") {
		c.RingSize = raw.RingSize
	}
	if meta.IsDefined("rx_timeout") {
		d, err := time.ParseDuration(raw.RxTimeout)
		if err != nil {
			return fmt.Errorf("load config: rx_timeout: %v", err)
		}
		c.RxTimeout = d
	}
	return nil
}

// ApplyFile loads a TOML file into the default config. Flags given on the
// command line keep precedence over the file.
func ApplyFile(path string) error {
	set := make(map[string]string)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = f.Value.String() })
	if err := defaultConfig.LoadFile(path); err != nil {
		return err
	}
	for name, val := range set {
		if err := flag.Set(name, val); err != nil {
			return err
		}
	}
	return nil
}

// DeviceConfig builds the device settings.
func (c *Config) DeviceConfig() device.Config {
	conf := device.DefaultConfig()
	conf.Password = c.Password
	conf.UserTag = c.UserTag
	conf.Baud = uint32(c.Baud)
	conf.ClockHz = uint32(c.ClockHz)
	conf.Echo = c.Echo
	conf.RingSize = c.RingSize
	conf.RxTimeout = c.RxTimeout
	if c.NVMPath != "" {
		conf.Store = nvm.NewFileStore(c.NVMPath)
	}
	return conf
}
