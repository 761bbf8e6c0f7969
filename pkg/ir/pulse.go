// Package ir decodes the 12-bit pulse-width remote protocol.
//
// It has no dependencies beyond the standard library so the same decoder runs
// in the TinyGo firmware and in the host tools.
package ir

import (
	"math"
	"math/bits"
	"time"
)

// PulseClass is the symbolic class of one measured mark.
type PulseClass uint8

const (
	Ignore PulseClass = iota
	Zero
	One
	Start
)

// String returns a short name for the class.
func (c PulseClass) String() string {
	switch c {
	case Start:
		return "START"
	case One:
		return "ONE"
	case Zero:
		return "ZERO"
	default:
		return "IGNORE"
	}
}

const (
	// ClockHz is the timer clock of the receiver board (41.78 MHz core clock).
	ClockHz = 41_780_000
)

// Quantizer converts raw timer ticks into whole milliseconds: ticks * K / Denom.
type Quantizer struct {
	K     uint64
	Denom uint64
}

// DefaultQuantizer matches a timer clocked at ClockHz.
var DefaultQuantizer = Quantizer{K: 24, Denom: 1_000_000}

// Milliseconds returns the truncated duration of ticks.
func (q Quantizer) Milliseconds(ticks uint32) uint64 {
	if q.Denom == 0 {
		return 0
	}
	return uint64(ticks) * q.K / q.Denom
}

// Classify maps ticks onto a pulse class. Only exact 0, 1 and 2 ms buckets are
// recognized; everything else is Ignore.
func (q Quantizer) Classify(ticks uint32) PulseClass {
	if q.Denom == 0 {
		return Ignore
	}
	switch q.Milliseconds(ticks) {
	case 2:
		return Start
	case 1:
		return One
	case 0:
		return Zero
	default:
		return Ignore
	}
}

// Classify uses DefaultQuantizer.
func Classify(ticks uint32) PulseClass {
	return DefaultQuantizer.Classify(ticks)
}

// TicksFor converts d into ticks of a timer running at clockHz, saturating at
// the uint32 range.
func TicksFor(d time.Duration, clockHz uint64) uint32 {
	if d <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(d), clockHz)
	if hi >= uint64(time.Second) {
		return math.MaxUint32
	}
	ticks, _ := bits.Div64(hi, lo, uint64(time.Second))
	if ticks > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ticks)
}

// DurationFor converts ticks of a timer running at clockHz into a duration.
func DurationFor(ticks uint32, clockHz uint64) time.Duration {
	if clockHz == 0 {
		return 0
	}
	return time.Duration(uint64(ticks) * uint64(time.Second) / clockHz)
}
