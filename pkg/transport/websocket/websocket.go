// Package websocket carries the byte link over binary websocket frames.
package websocket

import (
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/robotalks/regmap.go/pkg/transport/stream"
)

// Wrap wraps an established connection. Every write is sent as one binary
// frame; reads see the frames as a continuous stream.
func Wrap(conn *websocket.Conn) *stream.Transport {
	conn.PayloadType = websocket.BinaryFrame
	return stream.New(conn)
}

// Handler creates an http.Handler serving each connection with serve.
// The connection closes when serve returns.
func Handler(serve func(*stream.Transport)) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		serve(Wrap(conn))
	})
}

// Dial connects to a websocket endpoint, e.g. ws://host:port/path.
func Dial(url string) (*stream.Transport, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return Wrap(conn), nil
}
