package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itohio/irkeys/pkg/ir"
)

// ParseLine parses a capture dump line.
// Format: ticks, or unix_micros,ticks
// Example: 1234567890123,100272
// Lines without a timestamp return a zero Timestamp; Scan stamps them with a Clock.
func ParseLine(line string) (Capture, error) {
	parts := strings.Split(line, ",")
	switch len(parts) {
	case 1:
		ticks, err := parseTicks(parts[0])
		if err != nil {
			return Capture{}, err
		}
		return Capture{Ticks: ticks}, nil
	case 2:
		micros, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return Capture{}, fmt.Errorf("invalid timestamp: %w", err)
		}
		ticks, err := parseTicks(parts[1])
		if err != nil {
			return Capture{}, err
		}
		return Capture{Timestamp: time.Unix(0, micros*1000), Ticks: ticks}, nil
	default:
		return Capture{}, fmt.Errorf("invalid line format: expected 1 or 2 comma-separated values, got %d", len(parts))
	}
}

func parseTicks(s string) (uint32, error) {
	ticks, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid ticks: %w", err)
	}
	return uint32(ticks), nil
}

// FormatLine formats c in the two-field dump format.
func FormatLine(c Capture) string {
	return strconv.FormatInt(c.Timestamp.UnixMicro(), 10) + "," + strconv.FormatUint(uint64(c.Ticks), 10)
}

// Clock stamps captures read without a timestamp. Marks follow each other
// separated by ir.Space. Every START mark after the first opens a new frame one
// frame period plus Gap after the previous one, so a Gap of at least the
// receiver dead time turns every START-led group into its own press.
type Clock struct {
	ClockHz   uint64
	Quantizer ir.Quantizer
	Gap       time.Duration

	next    time.Time // Earliest start of the next mark
	frame   time.Time // Start of the current frame
	started bool
}

// NewClock returns a Clock starting at the unix epoch.
func NewClock(clockHz uint64, q ir.Quantizer, gap time.Duration) *Clock {
	return &Clock{
		ClockHz:   clockHz,
		Quantizer: q,
		Gap:       gap,
		next:      time.Unix(0, 0),
	}
}

// Stamp fills in a missing timestamp. Timestamped captures move the clock
// forward so later bare lines follow them.
func (k *Clock) Stamp(c Capture) Capture {
	if !c.Timestamp.IsZero() {
		if c.Timestamp.After(k.next) {
			k.next = c.Timestamp.Add(ir.Space)
		}
		return c
	}

	at := k.next
	if k.Quantizer.Classify(c.Ticks) == ir.Start {
		if k.started {
			if end := k.frame.Add(ir.FramePeriod); end.After(at) {
				at = end
			}
			at = at.Add(k.Gap)
		}
		k.frame = at
		k.started = true
	}

	c.Timestamp = at.Add(ir.DurationFor(c.Ticks, k.ClockHz))
	k.next = c.Timestamp.Add(ir.Space)
	return c
}

// Scan reads a capture dump from r. Blank lines and lines starting with '#'
// are skipped; malformed lines are logged and skipped. Lines without a
// timestamp are stamped by clock; a nil clock uses the default timer and no
// extra gap. The returned channel is closed at EOF, on a read error or when
// ctx is cancelled.
func Scan(ctx context.Context, r io.Reader, clock *Clock, bufSize int) <-chan Capture {
	if bufSize <= 0 {
		bufSize = 100
	}
	if clock == nil {
		clock = NewClock(ir.ClockHz, ir.DefaultQuantizer, 0)
	}
	out := make(chan Capture, bufSize)

	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			c, err := ParseLine(line)
			if err != nil {
				logrus.WithField("line", lineNo).WithError(err).Warn("Failed to parse capture")
				continue
			}
			c = clock.Stamp(c)

			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logrus.WithError(err).Error("Error reading captures")
		}
	}()

	return out
}
