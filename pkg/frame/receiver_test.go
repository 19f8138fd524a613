package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/regmap.go/pkg/register"
)

type receiverTestStep struct {
	in     []byte
	expect StepResult
	final  StepResult
}

type receiverTestStepBuilder struct {
	steps []receiverTestStep
}

func receiverTestSteps() *receiverTestStepBuilder {
	return &receiverTestStepBuilder{}
}

func (b *receiverTestStepBuilder) on(expect StepResult, in ...byte) *receiverTestStepBuilder {
	b.steps = append(b.steps, receiverTestStep{in: in, expect: expect, final: expect})
	return b
}

func (b *receiverTestStepBuilder) idle(in ...byte) *receiverTestStepBuilder {
	return b.on(StepResult{State: Idle}, in...)
}

func (b *receiverTestStepBuilder) ascii(in ...byte) *receiverTestStepBuilder {
	return b.on(StepResult{State: ReceivingASCIIBody, Echo: true}, in...)
}

func (b *receiverTestStepBuilder) binaryStart() *receiverTestStepBuilder {
	return b.on(StepResult{State: ExpectBinaryLength}, BinaryStart)
}

func (b *receiverTestStepBuilder) binary(length byte, in ...byte) *receiverTestStepBuilder {
	return b.binaryStart().on(StepResult{State: ReceivingBinaryBody}, append([]byte{length}, in...)...)
}

func (b *receiverTestStepBuilder) timeout() *receiverTestStepBuilder {
	b.steps = append(b.steps, receiverTestStep{})
	return b
}

func (b *receiverTestStepBuilder) final(res StepResult) *receiverTestStepBuilder {
	b.steps[len(b.steps)-1].final = res
	return b
}

func (b *receiverTestStepBuilder) published(kind Kind) *receiverTestStepBuilder {
	return b.final(StepResult{State: Idle, Published: true, Kind: kind, Echo: kind == ASCII})
}

func (b *receiverTestStepBuilder) signal(kind Kind, code register.Code) *receiverTestStepBuilder {
	last := b.steps[len(b.steps)-1]
	return b.final(StepResult{State: Idle, Kind: kind, Signal: code, Echo: last.expect.Echo})
}

func (b *receiverTestStepBuilder) build() []receiverTestStep {
	return b.steps
}

type expectedMessage struct {
	kind Kind
	data []byte
	err  register.Code
}

func TestReceiver(t *testing.T) {
	testCases := []struct {
		name  string
		steps []receiverTestStep
		msgs  []expectedMessage
	}{
		{
			name: "ascii request",
			steps: receiverTestSteps().
				ascii([]byte("#5,10\n")...).published(ASCII).
				build(),
			msgs: []expectedMessage{{kind: ASCII, data: []byte("5,10")}},
		},
		{
			name: "ascii ignores noise and cr",
			steps: receiverTestSteps().
				idle('x', 'y', '\n', '\r').
				ascii([]byte("#1,?\r\n")...).published(ASCII).
				build(),
			msgs: []expectedMessage{{kind: ASCII, data: []byte("1,?")}},
		},
		{
			name: "binary completes on declared length",
			steps: receiverTestSteps().
				binary(4, 1, 5, 6, 7).published(Binary).
				idle(0x99).
				build(),
			msgs: []expectedMessage{{kind: Binary, data: []byte{1, 5, 6, 7}}},
		},
		{
			name: "binary body carries framing bytes",
			steps: receiverTestSteps().
				binary(4, 1, '\n', '#', ':').published(Binary).
				build(),
			msgs: []expectedMessage{{kind: Binary, data: []byte{1, '\n', '#', ':'}}},
		},
		{
			name: "binary zero length",
			steps: receiverTestSteps().
				binaryStart().on(StepResult{State: Idle}, 0).signal(Binary, register.BadLength).
				idle(1, 2).
				build(),
			msgs: []expectedMessage{{kind: Binary, err: register.BadLength}},
		},
		{
			name: "binary length too large",
			steps: receiverTestSteps().
				binaryStart().on(StepResult{State: Idle}, MaxMessageLen).signal(Binary, register.BadLength).
				binary(MaxMessageLen-1, bytes.Repeat([]byte{3}, MaxMessageLen-1)...).published(Binary).
				build(),
			msgs: []expectedMessage{
				{kind: Binary, err: register.BadLength},
				{kind: Binary, data: bytes.Repeat([]byte{3}, MaxMessageLen-1)},
			},
		},
		{
			name: "ascii overflow",
			steps: receiverTestSteps().
				ascii(append([]byte{'#'}, bytes.Repeat([]byte{'1'}, MaxMessageLen)...)...).
				on(StepResult{State: Idle, Echo: true}, '1').signal(ASCII, register.BadLength).
				idle('\n').
				ascii([]byte("#8,?\n")...).published(ASCII).
				build(),
			msgs: []expectedMessage{
				{kind: ASCII, err: register.BadLength},
				{kind: ASCII, data: []byte("8,?")},
			},
		},
		{
			name: "ascii at capacity",
			steps: receiverTestSteps().
				ascii(append(append([]byte{'#'}, bytes.Repeat([]byte{'1'}, MaxMessageLen)...), '\n')...).published(ASCII).
				build(),
			msgs: []expectedMessage{{kind: ASCII, data: bytes.Repeat([]byte{'1'}, MaxMessageLen)}},
		},
		{
			name: "timeout in the middle of binary frame",
			steps: receiverTestSteps().
				binary(4, 1, 2).
				timeout().final(StepResult{State: Idle, Kind: Binary, Signal: register.Incomplete}).
				ascii([]byte("#0,?\n")...).published(ASCII).
				build(),
			msgs: []expectedMessage{
				{kind: Binary, err: register.Incomplete},
				{kind: ASCII, data: []byte("0,?")},
			},
		},
		{
			name: "timeout when idle",
			steps: receiverTestSteps().
				timeout().final(StepResult{State: Idle}).
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ring := NewRing(DefaultRingSize)
			rcv := NewReceiver(ring)
			for n, s := range tc.steps {
				var res StepResult
				if l := len(s.in); l == 0 {
					res = rcv.Timeout()
				} else {
					for i, b := range s.in {
						res = rcv.Step(b)
						if i+1 < l {
							require.Equalf(t, s.expect, res, "step[%d][%d] expect mismatch", n, i)
						}
					}
				}
				require.Equalf(t, s.final, res, "step[%d] final mismatch", n)
			}
			require.Equal(t, len(tc.msgs), ring.Pending())
			for _, m := range tc.msgs {
				msg, ok := ring.Pop()
				require.True(t, ok)
				require.Equal(t, m.kind, msg.Kind)
				require.Equal(t, m.err, msg.Err)
				if m.err == register.NoError {
					require.Equal(t, m.data, msg.Bytes())
				} else {
					require.Zero(t, msg.Len)
				}
			}
		})
	}
}

func TestReceiverReset(t *testing.T) {
	ring := NewRing(1)
	rcv := NewReceiver(ring)
	rcv.Step(BinaryStart)
	rcv.Step(3)
	rcv.Step(1)
	require.Equal(t, ReceivingBinaryBody, rcv.State())
	rcv.Reset()
	require.Equal(t, Idle, rcv.State())
	for _, b := range []byte("#1,2\n") {
		rcv.Step(b)
	}
	msg, ok := ring.Pop()
	require.True(t, ok)
	require.Equal(t, "1,2", string(msg.Bytes()))
}

func TestTimerAction(t *testing.T) {
	require.Equal(t, TimerRestart, StepResult{State: ReceivingASCIIBody}.WhatAboutTimer())
	require.Equal(t, TimerRestart, StepResult{State: ExpectBinaryLength}.WhatAboutTimer())
	require.Equal(t, TimerStop, StepResult{State: Idle, Published: true}.WhatAboutTimer())
}

func TestReceiverEchoes(t *testing.T) {
	rcv := NewReceiver(NewRing(1))
	require.False(t, rcv.Echoes(BinaryStart))
	require.False(t, rcv.Echoes('x'))
	require.True(t, rcv.Echoes(ASCIIStart))
	rcv.Step(ASCIIStart)
	require.True(t, rcv.Echoes('\r'))
	require.True(t, rcv.Echoes(Terminator))
	rcv.Step(Terminator)
	require.False(t, rcv.Echoes(Terminator))
	rcv.Step(BinaryStart)
	require.False(t, rcv.Echoes(ASCIIStart))
}
