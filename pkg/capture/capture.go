package capture

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itohio/irkeys/pkg/ir"
)

// Capture is one raw timer measurement: the length of a single IR mark.
type Capture struct {
	Timestamp time.Time
	Ticks     uint32
}

// Pulse is a classified capture.
type Pulse struct {
	Timestamp    time.Time
	Ticks        uint32
	Milliseconds uint64 // Truncated duration as seen by the classifier
	Class        ir.PulseClass
}

// Converter is a function type that converts a Capture channel into a Pulse channel.
type Converter func(in <-chan Capture) <-chan Pulse

// NewConverter creates a converter that classifies captures with q.
// The output channel is closed once the input channel is closed.
func NewConverter(q ir.Quantizer, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Capture) <-chan Pulse {
		out := make(chan Pulse, bufSize)

		go func() {
			defer close(out)

			for c := range in {
				select {
				case out <- Classify(c, q):
				case <-time.After(time.Second):
					logrus.Warn("Converter output channel full, dropping pulse")
				}
			}
		}()

		return out
	}
}

// Classify converts a single capture.
func Classify(c Capture, q ir.Quantizer) Pulse {
	return Pulse{
		Timestamp:    c.Timestamp,
		Ticks:        c.Ticks,
		Milliseconds: q.Milliseconds(c.Ticks),
		Class:        q.Classify(c.Ticks),
	}
}

// FromMarks turns mark lengths into captures of a timer running at clockHz.
// Each mark is stamped at its end; marks are separated by space.
func FromMarks(start time.Time, marks []time.Duration, space time.Duration, clockHz uint64) []Capture {
	out := make([]Capture, 0, len(marks))
	at := start
	for _, m := range marks {
		at = at.Add(m)
		out = append(out, Capture{Timestamp: at, Ticks: ir.TicksFor(m, clockHz)})
		at = at.Add(space)
	}
	return out
}

// FrameCaptures returns the captures of one nominal frame starting at start.
func FrameCaptures(start time.Time, f ir.Frame, clockHz uint64) []Capture {
	return FromMarks(start, f.MarshalMarks(), ir.Space, clockHz)
}
