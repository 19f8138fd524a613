package regs

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/regmap.go/pkg/cli/sh"
	"github.com/robotalks/regmap.go/pkg/host"
	"github.com/robotalks/regmap.go/pkg/register"
)

var (
	// GetCmd reads registers in ASCII mode.
	GetCmd = ishell.Cmd{
		Name:    "get",
		Aliases: []string{"g"},
		Help:    "ADDR [COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			addr, n, err := addrCount(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(cl *host.Client) (interface{}, error) {
				return cl.GetN(addr, n)
			})
		}),
	}

	// TypesCmd reads register type names in ASCII mode.
	TypesCmd = ishell.Cmd{
		Name:    "types",
		Aliases: []string{"t"},
		Help:    "ADDR [COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			addr, n, err := addrCount(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(cl *host.Client) (interface{}, error) {
				return cl.Types(addr, n)
			})
		}),
	}

	// SetCmd writes one register in ASCII mode.
	SetCmd = ishell.Cmd{
		Name:    "set",
		Aliases: []string{"s"},
		Help:    "ADDR VALUE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("ADDR and VALUE required"))
				return
			}
			addr, err := sh.ParseAddr(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(cl *host.Client) (interface{}, error) {
				return nil, cl.Set(addr, c.Args[1])
			})
		}),
	}

	// LoginCmd elevates the session.
	LoginCmd = ishell.Cmd{
		Name: "login",
		Help: "[PASSWORD]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var password string
			if len(c.Args) > 0 {
				password = c.Args[0]
			} else {
				c.Print("Password: ")
				password = c.ReadPassword()
			}
			sh.Do(c, func(cl *host.Client) (interface{}, error) {
				return nil, cl.Login(password)
			})
		}),
	}

	// LogoutCmd demotes the session.
	LogoutCmd = ishell.Cmd{
		Name: "logout",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Do(c, func(cl *host.Client) (interface{}, error) {
				return nil, cl.Logout()
			})
		}),
	}

	// PersistCmd saves non-volatile registers.
	PersistCmd = ishell.Cmd{
		Name: "persist",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Do(c, func(cl *host.Client) (interface{}, error) {
				return nil, cl.Persist()
			})
		}),
	}

	// ResetCmd resets the device.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Do(c, func(cl *host.Client) (interface{}, error) {
				return nil, cl.Reset()
			})
		}),
	}

	// DumpCmd prints the register table.
	DumpCmd = ishell.Cmd{
		Name: "dump",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Do(c, func(cl *host.Client) (interface{}, error) {
				return cl.Dump()
			})
		}),
	}

	// BGetCmd reads registers in binary mode.
	BGetCmd = ishell.Cmd{
		Name: "bget",
		Help: "ADDR...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			addrs, err := addrList(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(cl *host.Client) (interface{}, error) {
				return cl.ReadValues(addrs...)
			})
		}),
	}

	// BTypesCmd reads register types in binary mode.
	BTypesCmd = ishell.Cmd{
		Name: "btypes",
		Help: "ADDR [COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			addr, n, err := addrCount(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(cl *host.Client) (interface{}, error) {
				types, err := cl.MultiGetType(byte(addr), n)
				if err != nil {
					return nil, err
				}
				return TypeNames(types), nil
			})
		}),
	}

	// BSetCmd writes registers in binary mode, all or none.
	BSetCmd = ishell.Cmd{
		Name: "bset",
		Help: "ADDR VALUE [ADDR VALUE...]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			pairs, err := ParsePairs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(cl *host.Client) (interface{}, error) {
				return nil, SetPairs(cl, pairs)
			})
		}),
	}
)

// Pair is an address and the text of its new value.
type Pair struct {
	Addr  byte
	Value string
}

// ParsePairs parses ADDR VALUE argument pairs.
func ParsePairs(args []string) ([]Pair, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, fmt.Errorf("ADDR VALUE pairs required")
	}
	pairs := make([]Pair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		addr, err := sh.ParseAddr(args[i])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Addr: byte(addr), Value: args[i+1]})
	}
	return pairs, nil
}

// SetPairs queries the register types and writes all values in one
// binary set-list.
func SetPairs(cl *host.Client, pairs []Pair) error {
	addrs := make([]byte, len(pairs))
	for i, p := range pairs {
		addrs[i] = p.Addr
	}
	types, err := cl.TypeList(addrs...)
	if err != nil {
		return err
	}
	if len(types) != len(pairs) {
		return register.ErrIncomplete
	}
	assignments := make([]host.Assignment, len(pairs))
	for i, p := range pairs {
		val, err := host.EncodeValue(types[i], p.Value)
		if err != nil {
			return fmt.Errorf("register %d: %v", p.Addr, err)
		}
		assignments[i] = host.Assignment{Addr: p.Addr, Value: val}
	}
	return cl.SetBinary(assignments...)
}

// TypeNames names each type the way the ASCII type query does.
func TypeNames(types []register.Type) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}

func addrCount(args []string) (int, int, error) {
	if len(args) < 1 {
		return 0, 0, fmt.Errorf("ADDR required")
	}
	addr, err := sh.ParseAddr(args[0])
	if err != nil {
		return 0, 0, err
	}
	n, err := sh.ParseCount(args, 1)
	return addr, n, err
}

func addrList(args []string) ([]byte, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("ADDR required")
	}
	addrs := make([]byte, len(args))
	for i, arg := range args {
		addr, err := sh.ParseAddr(arg)
		if err != nil {
			return nil, err
		}
		addrs[i] = byte(addr)
	}
	return addrs, nil
}

func init() {
	sh.AddCmds(
		&GetCmd,
		&TypesCmd,
		&SetCmd,
		&LoginCmd,
		&LogoutCmd,
		&PersistCmd,
		&ResetCmd,
		&DumpCmd,
		&BGetCmd,
		&BTypesCmd,
		&BSetCmd,
	)
}
