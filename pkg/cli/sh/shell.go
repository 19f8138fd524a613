package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/regmap.go/pkg/codec"
	"github.com/robotalks/regmap.go/pkg/env"
	"github.com/robotalks/regmap.go/pkg/host"
	"github.com/robotalks/regmap.go/pkg/register"
	"github.com/robotalks/regmap.go/pkg/transport/serial"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is an open link to a device.
type Conn struct {
	URL    string
	Link   io.ReadWriteCloser
	Client *host.Client
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&PortsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Do runs a request with the connected client and prints the result.
func Do(c *ishell.Context, fn func(*host.Client) (interface{}, error)) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	res, err := fn(s.Conn.Client)
	if err != nil {
		c.Err(err)
		return err
	}
	out, err := FormatResult(res, s.OutputJSON)
	if err != nil {
		c.Err(err)
		return err
	}
	c.Println(out)
	return nil
}

// FormatResult renders a request result: nil prints OK, lists print one
// item per line.
func FormatResult(res interface{}, asJSON bool) (string, error) {
	if asJSON {
		if res == nil {
			res = map[string]bool{"ok": true}
		}
		out, err := json.Marshal(res)
		return string(out), err
	}
	switch v := res.(type) {
	case nil:
		return "OK", nil
	case []string:
		return strings.Join(v, "\n"), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// ParseAddr parses a register address.
func ParseAddr(arg string) (int, error) {
	v, ok := codec.ParseInt(arg)
	if !ok || v < 0 || v >= register.Size {
		return 0, fmt.Errorf("Invalid ADDR %q", arg)
	}
	return int(v), nil
}

// ParseCount parses an optional count argument, 1 when absent.
func ParseCount(args []string, index int) (int, error) {
	if len(args) <= index {
		return 1, nil
	}
	v, ok := codec.ParseInt(args[index])
	if !ok || v <= 0 || v > register.Size {
		return 0, fmt.Errorf("Invalid COUNT %q", args[index])
	}
	return int(v), nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the link named by url.
func (s *Shell) Connect(url string) error {
	conf := *s.Config
	conf.URL = url
	link, err := conf.Dial()
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Conn = &Conn{URL: url, Link: link, Client: host.NewClient(link)}
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", url))
	return nil
}

// Disconnect closes the current link.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Link.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.URL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.URL)
		}
		if err := s.Connect(s.Config.URL); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.URL, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			url := s.Config.URL
			if len(c.Args) > 0 {
				url = c.Args[0]
			}
			if err := s.Connect(url); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := serial.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			out, err := FormatResult(ports, ShellFrom(c).OutputJSON)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
