// Package host talks to a register device from the host side of the link.
package host

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robotalks/regmap.go/pkg/dispatch"
	"github.com/robotalks/regmap.go/pkg/frame"
	"github.com/robotalks/regmap.go/pkg/register"
)

// ErrBadResponse indicates the device replied with something unexpected.
type ErrBadResponse struct {
	Got []byte
}

// Error implements error.
func (e *ErrBadResponse) Error() string {
	return fmt.Sprintf("bad response %q", e.Got)
}

type deadliner interface {
	SetReadDeadline(time.Time) error
}

// Client issues requests one at a time.
type Client struct {
	// Timeout bounds every response when the link supports read deadlines.
	Timeout time.Duration

	rw   io.ReadWriter
	rd   *bufio.Reader
	lock sync.Mutex
}

// NewClient creates a Client over rw.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{
		Timeout: time.Second,
		rw:      rw,
		rd:      bufio.NewReader(rw),
	}
}

func (c *Client) arm() {
	if d, ok := c.rw.(deadliner); ok && c.Timeout > 0 {
		d.SetReadDeadline(time.Now().Add(c.Timeout))
	}
}

// Request sends one ASCII request made of the clauses and returns the
// response items.
func (c *Client) Request(clauses ...string) ([]string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	req := asciiRequest(clauses)
	if _, err := c.rw.Write(req); err != nil {
		return nil, err
	}
	line, err := c.readLine(req)
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[0] != frame.ASCIIStart {
		return nil, &ErrBadResponse{Got: line}
	}
	return strings.Split(string(line[1:len(line)-1]), ","), nil
}

// Send writes an ASCII request which produces no response.
func (c *Client) Send(clauses ...string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, err := c.rw.Write(asciiRequest(clauses))
	return err
}

func asciiRequest(clauses []string) []byte {
	req := []byte{frame.ASCIIStart}
	req = append(req, strings.Join(clauses, ",")...)
	return append(req, frame.Terminator)
}

// readLine reads one response line, skipping the echo of req.
func (c *Client) readLine(req []byte) ([]byte, error) {
	c.arm()
	for {
		line, err := c.rd.ReadBytes(frame.Terminator)
		if err != nil {
			return nil, err
		}
		if req != nil && bytes.Equal(line, req) {
			req = nil
			continue
		}
		return line, nil
	}
}

// Item converts a response item into an error if it is an E<code> marker.
func Item(item string) (string, error) {
	if len(item) > 1 && item[0] == 'E' {
		if code, err := strconv.ParseUint(item[1:], 10, 8); err == nil {
			return "", register.Code(code)
		}
	}
	return item, nil
}

// Get reads the text value of addr.
func (c *Client) Get(addr int) (string, error) {
	vals, err := c.GetN(addr, 1)
	if err != nil {
		return "", err
	}
	return vals[0], nil
}

// GetN reads n consecutive addresses starting at addr.
func (c *Client) GetN(addr, n int) ([]string, error) {
	return c.list(addr, dispatch.OpRead, n)
}

// Types reads the type names of n consecutive addresses.
func (c *Client) Types(addr, n int) ([]string, error) {
	return c.list(addr, dispatch.OpType, n)
}

func (c *Client) list(addr int, op byte, n int) ([]string, error) {
	items, err := c.Request(strconv.Itoa(addr), string(op)+strconv.Itoa(n))
	if err != nil {
		return nil, err
	}
	if len(items) != n {
		if _, err := Item(items[len(items)-1]); err != nil {
			return nil, err
		}
		return nil, &ErrBadResponse{Got: []byte(strings.Join(items, ","))}
	}
	return items, nil
}

// Set writes the text value into addr. A type query of address 0 follows
// the write so the device always answers.
func (c *Client) Set(addr int, value string) error {
	items, err := c.Request(strconv.Itoa(addr), value, "0", string(dispatch.OpType))
	if err != nil {
		return err
	}
	if len(items) > 1 {
		_, err = Item(items[0])
		if err == nil {
			err = &ErrBadResponse{Got: []byte(strings.Join(items, ","))}
		}
	}
	return err
}

// Login elevates the session, or replaces the password when already
// elevated.
func (c *Client) Login(password string) error {
	return c.Set(dispatch.AddrPassword, password)
}

// Logout demotes the session.
func (c *Client) Logout() error {
	return c.Set(dispatch.AddrSysControl, strconv.Itoa(dispatch.SysDemote))
}

// Persist saves the non-volatile registers.
func (c *Client) Persist() error {
	return c.Set(dispatch.AddrSysControl, strconv.Itoa(dispatch.SysPersist))
}

// Reset resets the device. No response is expected.
func (c *Client) Reset() error {
	return c.Send(strconv.Itoa(dispatch.AddrSysControl), strconv.Itoa(dispatch.SysReset))
}

// Dump returns the lines of the register table dump, header included.
func (c *Client) Dump() ([]string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	req := asciiRequest([]string{strconv.Itoa(dispatch.AddrSysControl), strconv.Itoa(dispatch.SysDump)})
	if _, err := c.rw.Write(req); err != nil {
		return nil, err
	}
	var lines []string
	for {
		line, err := c.readLine(req)
		if err != nil {
			return lines, err
		}
		req = nil
		if len(line) == 1 {
			return lines, nil
		}
		lines = append(lines, string(line[:len(line)-1]))
	}
}
