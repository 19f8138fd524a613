// Package serial opens UART devices as byte transports.
package serial

import (
	"fmt"
	"net/url"
	"strconv"

	"go.bug.st/serial"

	"github.com/robotalks/regmap.go/pkg/transport/stream"
)

// DefaultBaudRate matches the power-on value of the baud rate register.
const DefaultBaudRate = 921600

// Open opens a serial port in 8N1 mode.
func Open(path string, baud int) (*stream.Transport, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s error: %v", path, err)
	}
	return stream.New(port), nil
}

// OpenURL opens serial:///dev/ttyUSB0?baud=115200.
func OpenURL(u *url.URL, baud int) (*stream.Transport, error) {
	if val := u.Query().Get("baud"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid baud %q: %v", val, err)
		}
		baud = n
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	return Open(path, baud)
}

// Ports lists the serial ports on the machine.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
