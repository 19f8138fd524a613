package env

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/golang/glog"

	"github.com/robotalks/regmap.go/pkg/device"
	fx "github.com/robotalks/regmap.go/pkg/framework"
	"github.com/robotalks/regmap.go/pkg/transport/mqtt"
	"github.com/robotalks/regmap.go/pkg/transport/serial"
	"github.com/robotalks/regmap.go/pkg/transport/stream"
	"github.com/robotalks/regmap.go/pkg/transport/websocket"
)

// Serve serves dev on the link named by URL until ctx is done.
func (c *Config) Serve(ctx context.Context, dev *device.Device) error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	switch u.Scheme {
	case "serial":
		tr, err := serial.OpenURL(u, int(c.Baud))
		if err != nil {
			return err
		}
		glog.Infof("serving on %s", u.Path)
		return fx.RunWithContextCloser(ctx, tr, func() error { return dev.Serve(ctx, tr) })
	case "tcp":
		ln, err := net.Listen("tcp", u.Host)
		if err != nil {
			return err
		}
		return ServeListener(ctx, dev, ln)
	case "ws":
		path := u.Path
		if path == "" {
			path = "/"
		}
		mux := http.NewServeMux()
		mux.Handle(path, WebsocketHandler(ctx, dev))
		server := &http.Server{Addr: u.Host, Handler: mux}
		glog.Infof("serving on ws://%s%s", u.Host, path)
		return fx.RunWithContextCancel(ctx, func() { server.Close() }, server.ListenAndServe)
	case "mqtt":
		link, err := c.openMQTT(true)
		if err != nil {
			return err
		}
		glog.Infof("serving on %s as %s", c.URL, c.ID)
		return fx.RunWithContextCloser(ctx, link, func() error { return dev.Serve(ctx, link) })
	default:
		return fmt.Errorf("unknown URL scheme: %q", u.Scheme)
	}
}

// connGate lets one connection at a time drive the device.
type connGate chan struct{}

func newConnGate() connGate {
	return make(connGate, 1)
}

func (g connGate) serve(ctx context.Context, dev *device.Device, tr *stream.Transport, peer string) {
	select {
	case g <- struct{}{}:
	case <-ctx.Done():
		tr.Close()
		return
	}
	defer func() { <-g }()
	glog.Infof("%s connected", peer)
	err := fx.RunWithContextCloser(ctx, tr, func() error { return dev.Serve(ctx, tr) })
	if err != nil && err != io.EOF && err != context.Canceled {
		glog.Warningf("%s: %v", peer, err)
	}
	glog.Infof("%s disconnected", peer)
}

// ServeListener accepts stream connections on ln and serves them one at a
// time.
func ServeListener(ctx context.Context, dev *device.Device, ln net.Listener) error {
	glog.Infof("serving on tcp://%s", ln.Addr())
	gate := newConnGate()
	return fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			go gate.serve(ctx, dev, stream.New(conn), conn.RemoteAddr().String())
		}
	})
}

// WebsocketHandler serves websocket connections one at a time.
func WebsocketHandler(ctx context.Context, dev *device.Device) http.Handler {
	gate := newConnGate()
	return websocket.Handler(func(tr *stream.Transport) {
		gate.serve(ctx, dev, tr, "websocket")
	})
}

// Dial opens the host side of the link named by URL.
func (c *Config) Dial() (io.ReadWriteCloser, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	switch u.Scheme {
	case "serial":
		return serial.OpenURL(u, int(c.Baud))
	case "tcp":
		return net.Dial("tcp", u.Host)
	case "ws":
		return websocket.Dial(c.URL)
	case "mqtt":
		return c.openMQTT(false)
	default:
		return nil, fmt.Errorf("unknown URL scheme: %q", u.Scheme)
	}
}

func (c *Config) openMQTT(deviceSide bool) (*mqtt.Link, error) {
	if c.ID == "" {
		return nil, fmt.Errorf("device id must be specified")
	}
	q, err := mqtt.NewQueueFromURL(c.URL)
	if err != nil {
		return nil, err
	}
	link := mqtt.NewLink(q)
	if deviceSide {
		link.ForDevice(c.ID)
	} else {
		link.ForHost(c.ID)
	}
	if err := link.Open(); err != nil {
		return nil, fmt.Errorf("connect %s error: %v", c.URL, err)
	}
	return link, nil
}
