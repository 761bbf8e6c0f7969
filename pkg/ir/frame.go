package ir

import "time"

// Nominal mark and space lengths of the protocol.
const (
	StartMark   = 2400 * time.Microsecond
	OneMark     = 1200 * time.Microsecond
	ZeroMark    = 600 * time.Microsecond
	Space       = 600 * time.Microsecond
	FramePeriod = 45 * time.Millisecond
)

// FrameMarks is the number of marks in one frame, START included.
const FrameMarks = MessageBits + 1

// Frame is a button press that can be encoded into marks.
type Frame struct {
	Button uint8
	Mode   uint8
}

// Buffer returns the 12-bit message buffer of the frame.
func (f Frame) Buffer() uint16 {
	return uint16(f.Button&buttonMask) | uint16(f.Mode&modeMask)<<modeShift
}

// Message returns the message the frame decodes to.
func (f Frame) Message() Message {
	return SplitBuffer(f.Buffer())
}

// MarshalPulses returns the pulse classes of the frame, LSB first.
func (f Frame) MarshalPulses() []PulseClass {
	out := make([]PulseClass, FrameMarks)
	out[0] = Start

	buf := f.Buffer()
	for bit := 0; bit < MessageBits; bit++ {
		if (buf>>bit)&1 == 1 {
			out[bit+1] = One
		} else {
			out[bit+1] = Zero
		}
	}
	return out
}

// MarshalMarks returns the nominal mark lengths of the frame.
func (f Frame) MarshalMarks() []time.Duration {
	pulses := f.MarshalPulses()
	out := make([]time.Duration, len(pulses))
	for i, p := range pulses {
		out[i] = MarkFor(p)
	}
	return out
}

// MarkFor returns the nominal mark length of a class; Ignore has none.
func MarkFor(c PulseClass) time.Duration {
	switch c {
	case Start:
		return StartMark
	case One:
		return OneMark
	case Zero:
		return ZeroMark
	default:
		return 0
	}
}
