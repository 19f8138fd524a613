package main

import (
	"bytes"
	"fmt"

	"github.com/robotalks/regmap.go/pkg/frame"
	"github.com/robotalks/regmap.go/pkg/register"
)

// describeRequest renders a payload published on a request topic.
func describeRequest(p []byte) string {
	if len(p) == 0 {
		return "(empty)"
	}
	switch p[0] {
	case frame.ASCIIStart:
		return fmt.Sprintf("ascii %q", bytes.TrimRight(p, "\r\n"))
	case frame.BinaryStart:
		if len(p) < 3 || int(p[1]) != len(p)-2 {
			return fmt.Sprintf("binary (partial) % x", p[1:])
		}
		return fmt.Sprintf("binary cmd=0x%02x % x", p[2], p[3:])
	}
	return fmt.Sprintf("%q", p)
}

// describeResponse renders a payload published on a response topic.
func describeResponse(p []byte) string {
	if len(p) == 0 {
		return "(empty)"
	}
	body := bytes.TrimSuffix(p, []byte{frame.Terminator})
	switch p[0] {
	case frame.ErrorStart:
		if len(body) == 2 {
			code := register.Code(body[1] - '0')
			return fmt.Sprintf("error %d: %v", code, code)
		}
	case frame.BinaryStart:
		data, err := frame.Unstuff(nil, body[1:])
		if err != nil || len(data) < 2 || int(data[0]) != len(data)-1 {
			return fmt.Sprintf("binary (malformed) %q", p)
		}
		return fmt.Sprintf("binary cmd=0x%02x % x", data[1], data[2:])
	}
	return fmt.Sprintf("%q", p)
}
