package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/regmap.go/pkg/device"
	"github.com/robotalks/regmap.go/pkg/env"
	"github.com/robotalks/regmap.go/pkg/framework"
)

var (
	configFile    string
	statsInterval = time.Minute
)

func init() {
	env.SetupDeviceFlags()
	flag.StringVar(&configFile, "config", configFile, "TOML config file.")
	flag.DurationVar(&statsInterval, "stats", statsInterval, "Interval of ring statistics, 0 disables.")
}

func reportStats(dev *device.Device) framework.RunFunc {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		var dropped uint64
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if n := dev.Ring().Dropped(); n != dropped {
					glog.Warningf("ring: %d requests dropped, %d pending", n-dropped, dev.Ring().Pending())
					dropped = n
				}
			}
		}
	}
}

func main() {
	flag.Parse()
	if configFile != "" {
		if err := env.ApplyFile(configFile); err != nil {
			log.Fatalln(err)
		}
	}

	conf := env.NewConfig()
	dev := device.New(conf.DeviceConfig())
	runner := framework.NewRunner().HandleSignals()
	runner.Go(framework.NamedRun("link", framework.RunFunc(func(ctx context.Context) error {
		return conf.Serve(ctx, dev)
	})))
	if statsInterval > 0 {
		runner.Go(framework.NamedRun("stats", reportStats(dev)))
	}
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
