package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed runs pulses through d and returns every finalized message.
func feed(d *Decoder, pulses ...PulseClass) []Message {
	var out []Message
	for _, p := range pulses {
		if m, ok := d.OnPulse(p); ok {
			out = append(out, m)
		}
	}
	return out
}

func TestDecoder_FullFrame(t *testing.T) {
	var d Decoder
	f := Frame{Button: 0x12, Mode: AcceptedMode}

	msgs := feed(&d, f.MarshalPulses()...)
	require.Len(t, msgs, 1)
	assert.Equal(t, Message{Button: 0x12, Mode: AcceptedMode}, msgs[0])
	assert.Equal(t, State{}, d.State())
	assert.True(t, d.Waiting())
}

func TestDecoder_BitOrder(t *testing.T) {
	var d Decoder
	// bits 0, 7 and 10 set
	pulses := []PulseClass{Start, One, Zero, Zero, Zero, Zero, Zero, Zero, One, Zero, Zero, One}
	assert.Empty(t, feed(&d, pulses...))
	assert.Equal(t, State{Buffer: 0x481, Index: 11, Valid: true}, d.State())

	m, ok := d.OnPulse(One)
	require.True(t, ok)
	assert.Equal(t, uint8(0x01), m.Button)
	assert.Equal(t, uint8(0x19), m.Mode)
}

func TestDecoder_BitsWithoutStartIgnored(t *testing.T) {
	var d Decoder
	for _, p := range []PulseClass{One, Zero, One, One, Ignore} {
		_, ok := d.OnPulse(p)
		assert.False(t, ok)
		assert.Equal(t, State{}, d.State())
	}
}

func TestDecoder_IgnoreKeepsState(t *testing.T) {
	var d Decoder
	feed(&d, Start, One, Zero, One)
	before := d.State()

	_, ok := d.OnPulse(Ignore)
	assert.False(t, ok)
	assert.Equal(t, before, d.State())
}

func TestDecoder_StartRestarts(t *testing.T) {
	var d Decoder
	feed(&d, Start, One, One, One, One, One)
	require.Equal(t, uint8(5), d.State().Index)

	_, ok := d.OnPulse(Start)
	assert.False(t, ok)
	assert.Equal(t, State{Valid: true}, d.State())

	f := Frame{Button: 0x04, Mode: AcceptedMode}
	msgs := feed(&d, f.MarshalPulses()[1:]...)
	require.Len(t, msgs, 1)
	assert.Equal(t, f.Message(), msgs[0])
}

func TestDecoder_ResetAfterFinalize(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
	}{
		{"accepted mode", Frame{Button: 0x00, Mode: AcceptedMode}},
		{"rejected mode", Frame{Button: 0x00, Mode: 0x1A}},
		{"untranslated button", Frame{Button: 0x7F, Mode: AcceptedMode}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decoder
			msgs := feed(&d, tt.frame.MarshalPulses()...)
			require.Len(t, msgs, 1)
			assert.Equal(t, uint8(0), d.State().Index)
			assert.False(t, d.State().Valid)

			// the next bit is dropped until a START arrives
			_, ok := d.OnPulse(One)
			assert.False(t, ok)
			assert.Equal(t, State{}, d.State())
		})
	}
}

func TestDecoder_BackToBackFrames(t *testing.T) {
	var d Decoder
	a := Frame{Button: 0x01, Mode: AcceptedMode}
	b := Frame{Button: 0x15, Mode: AcceptedMode}

	pulses := append(a.MarshalPulses(), b.MarshalPulses()...)
	msgs := feed(&d, pulses...)
	require.Len(t, msgs, 2)
	assert.Equal(t, a.Message(), msgs[0])
	assert.Equal(t, b.Message(), msgs[1])
}

func TestSplitBuffer(t *testing.T) {
	assert.Equal(t, Message{Button: 0x7F, Mode: 0x1F}, SplitBuffer(0xFFF))
	assert.Equal(t, Message{Button: 0x3B, Mode: 0x01}, SplitBuffer(0x0BB))
	assert.Equal(t, Message{}, SplitBuffer(0x000))
}
