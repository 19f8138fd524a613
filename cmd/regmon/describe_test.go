package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribeRequest(t *testing.T) {
	require.Equal(t, `ascii "#0?"`, describeRequest([]byte("#0?\n")))
	require.Equal(t, "binary cmd=0x01 04 05", describeRequest([]byte{':', 3, 1, 4, 5}))
	require.Equal(t, "binary (partial) 03 01", describeRequest([]byte{':', 3, 1}))
	require.Equal(t, `"4"`, describeRequest([]byte("4")))
	require.Equal(t, "(empty)", describeRequest(nil))
}

func TestDescribeResponse(t *testing.T) {
	require.Equal(t, `"cake!\n"`, describeResponse([]byte("cake!\n")))
	require.Equal(t, "binary cmd=0x01 3a 0a", describeResponse([]byte(":\x03\x01::\n\n\n")))
	require.Equal(t, `binary (malformed) ":\x03\x01:\n"`, describeResponse([]byte(":\x03\x01:\n")))
	require.Contains(t, describeResponse([]byte(";2\n")), "error 2")
}
