package main

import (
	"github.com/robotalks/regmap.go/pkg/cli/sh"
	"github.com/robotalks/regmap.go/pkg/env"

	_ "github.com/robotalks/regmap.go/pkg/cli/cmds/regs"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
