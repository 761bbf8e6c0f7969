package ir

const (
	// MessageBits is the number of data bits following a START mark.
	MessageBits = 12

	buttonMask = 0x7F
	modeShift  = 7
	modeMask   = 0x1F
)

// Message is a finalized 12-bit message split into its fields.
type Message struct {
	Button uint8 // bits 0..6
	Mode   uint8 // bits 7..11
}

// SplitBuffer splits a 12-bit buffer into button and mode.
func SplitBuffer(buf uint16) Message {
	return Message{
		Button: uint8(buf & buttonMask),
		Mode:   uint8((buf >> modeShift) & modeMask),
	}
}

// State is a snapshot of the decoder.
type State struct {
	Buffer uint16
	Index  uint8
	Valid  bool
}

// Decoder assembles pulse classes into messages. The zero value is waiting for
// a START mark. A Decoder must be owned by a single goroutine.
type Decoder struct {
	buf   uint16
	index uint8
	valid bool
}

// OnPulse feeds one pulse class. When the twelfth data bit arrives it returns
// the finalized message with ok set, and the decoder is back to waiting.
//
// START always restarts accumulation. ONE and ZERO are dropped until a START
// has been seen. Ignore never changes state.
func (d *Decoder) OnPulse(c PulseClass) (m Message, ok bool) {
	switch c {
	case Start:
		d.buf = 0
		d.index = 0
		d.valid = true
		return Message{}, false
	case One:
		if !d.valid {
			return Message{}, false
		}
		d.buf |= 1 << d.index
		d.index++
	case Zero:
		if !d.valid {
			return Message{}, false
		}
		d.index++
	default:
		return Message{}, false
	}

	if d.index < MessageBits {
		return Message{}, false
	}

	m = SplitBuffer(d.buf)
	d.Reset()
	return m, true
}

// Reset returns the decoder to waiting.
func (d *Decoder) Reset() {
	d.buf = 0
	d.index = 0
	d.valid = false
}

// State returns the current decoder state.
func (d *Decoder) State() State {
	return State{Buffer: d.buf, Index: d.index, Valid: d.valid}
}

// Waiting reports whether the decoder needs a START before accepting bits.
func (d *Decoder) Waiting() bool {
	return !d.valid
}
