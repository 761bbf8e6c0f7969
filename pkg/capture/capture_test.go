package capture

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/irkeys/pkg/ir"
)

func TestClassify(t *testing.T) {
	now := time.Now()
	p := Classify(Capture{Timestamp: now, Ticks: 100272}, ir.DefaultQuantizer)
	assert.Equal(t, now, p.Timestamp)
	assert.Equal(t, uint32(100272), p.Ticks)
	assert.Equal(t, uint64(2), p.Milliseconds)
	assert.Equal(t, ir.Start, p.Class)
}

func TestFrameCaptures(t *testing.T) {
	start := time.Unix(100, 0)
	f := ir.Frame{Button: 0x12, Mode: ir.AcceptedMode}
	caps := FrameCaptures(start, f, ir.ClockHz)
	require.Len(t, caps, ir.FrameMarks)

	assert.Equal(t, start.Add(ir.StartMark), caps[0].Timestamp)
	assert.Equal(t, start.Add(ir.StartMark+ir.Space+ir.ZeroMark), caps[1].Timestamp)

	want := f.MarshalPulses()
	for i, c := range caps {
		assert.Equal(t, want[i], ir.Classify(c.Ticks), "mark %d", i)
		if i > 0 {
			assert.True(t, c.Timestamp.After(caps[i-1].Timestamp))
		}
	}
}

func TestNewConverter(t *testing.T) {
	converter := NewConverter(ir.DefaultQuantizer, 0)
	input := make(chan Capture, ir.FrameMarks)

	f := ir.Frame{Button: 0x3B, Mode: ir.AcceptedMode}
	for _, c := range FrameCaptures(time.Now(), f, ir.ClockHz) {
		input <- c
	}
	close(input)

	var got []ir.PulseClass
	for p := range converter(input) {
		got = append(got, p.Class)
	}
	assert.Equal(t, f.MarshalPulses(), got)
}

// TestConverter_GracefulShutdown tests that the converter closes its output
// channel when the input channel is closed.
func TestConverter_GracefulShutdown(t *testing.T) {
	input := make(chan Capture)
	output := NewConverter(ir.DefaultQuantizer, 10)(input)

	done := make(chan int)
	go func() {
		count := 0
		for range output {
			count++
		}
		done <- count
	}()

	for i := 0; i < 3; i++ {
		input <- Capture{Timestamp: time.Now(), Ticks: 50136}
	}
	close(input)

	select {
	case count := <-done:
		assert.Equal(t, 3, count)
	case <-time.After(2 * time.Second):
		t.Fatal("Converter output did not close within timeout")
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantTicks uint32
		wantTime  time.Time
		wantErr   bool
	}{
		{
			name:      "with timestamp",
			line:      "1234567890123,100272",
			wantTicks: 100272,
			wantTime:  time.Unix(0, 1234567890123*1000),
		},
		{
			name:      "with spaces",
			line:      "1234567890123, 25068",
			wantTicks: 25068,
			wantTime:  time.Unix(0, 1234567890123*1000),
		},
		{
			name:      "ticks only",
			line:      "50136",
			wantTicks: 50136,
		},
		{
			name:    "too many fields",
			line:    "1,2,3",
			wantErr: true,
		},
		{
			name:    "non-numeric ticks",
			line:    "1234567890123,abc",
			wantErr: true,
		},
		{
			name:    "non-numeric timestamp",
			line:    "abc,100272",
			wantErr: true,
		},
		{
			name:    "negative ticks",
			line:    "-5",
			wantErr: true,
		},
		{
			name:    "ticks overflow",
			line:    "4294967296",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTicks, got.Ticks)
			if !tt.wantTime.IsZero() {
				assert.Equal(t, tt.wantTime.UnixNano(), got.Timestamp.UnixNano())
			} else {
				assert.True(t, got.Timestamp.IsZero())
			}
		})
	}
}

func TestFormatLine(t *testing.T) {
	c := Capture{Timestamp: time.Unix(0, 1234567890123*1000), Ticks: 100272}
	line := FormatLine(c)
	assert.Equal(t, "1234567890123,100272", line)

	parsed, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, c.Ticks, parsed.Ticks)
	assert.True(t, c.Timestamp.Equal(parsed.Timestamp))
}

func TestScan(t *testing.T) {
	dump := `# captured on the bench
1000,100272

1600,garbage
2200,50136
25068
`
	var got []Capture
	for c := range Scan(context.Background(), strings.NewReader(dump), nil, 0) {
		got = append(got, c)
	}
	require.Len(t, got, 3)
	assert.Equal(t, uint32(100272), got[0].Ticks)
	assert.Equal(t, int64(1000), got[0].Timestamp.UnixMicro())
	assert.Equal(t, uint32(50136), got[1].Ticks)
	assert.Equal(t, uint32(25068), got[2].Ticks)
	assert.True(t, got[2].Timestamp.After(got[1].Timestamp))
}

func bareTicks(frames ...ir.Frame) string {
	var sb strings.Builder
	for _, f := range frames {
		for _, m := range f.MarshalMarks() {
			fmt.Fprintln(&sb, ir.TicksFor(m, ir.ClockHz))
		}
	}
	return sb.String()
}

func TestClock_Stamp(t *testing.T) {
	k := NewClock(ir.ClockHz, ir.DefaultQuantizer, 100*time.Millisecond)
	f := ir.Frame{Button: 0x05, Mode: ir.AcceptedMode}

	var first []Capture
	for _, m := range f.MarshalMarks() {
		first = append(first, k.Stamp(Capture{Ticks: ir.TicksFor(m, ir.ClockHz)}))
	}
	want := FrameCaptures(time.Unix(0, 0), f, ir.ClockHz)
	require.Len(t, first, len(want))
	for i := range want {
		assert.InDelta(t, want[i].Timestamp.UnixNano(), first[i].Timestamp.UnixNano(), float64(time.Microsecond), "mark %d", i)
	}

	start := k.Stamp(Capture{Ticks: ir.TicksFor(ir.StartMark, ir.ClockHz)})
	last := first[len(first)-1].Timestamp
	assert.GreaterOrEqual(t, start.Timestamp.Sub(last), 100*time.Millisecond)
	assert.Equal(t, ir.FramePeriod+100*time.Millisecond+ir.StartMark, start.Timestamp.Sub(time.Unix(0, 0)))
}

func TestClock_FollowsTimestamps(t *testing.T) {
	k := NewClock(1_000_000, ir.Quantizer{K: 1, Denom: 1000}, 0)
	at := time.UnixMicro(5_000_000)

	stamped := k.Stamp(Capture{Timestamp: at, Ticks: 2400})
	assert.Equal(t, at, stamped.Timestamp)

	bare := k.Stamp(Capture{Ticks: 600})
	assert.Equal(t, at.Add(ir.Space+ir.ZeroMark), bare.Timestamp)
}

func TestScan_BareTicks(t *testing.T) {
	dump := bareTicks(
		ir.Frame{Button: 0x00, Mode: ir.AcceptedMode},
		ir.Frame{Button: 0x01, Mode: ir.AcceptedMode},
	)
	clock := NewClock(ir.ClockHz, ir.DefaultQuantizer, 100*time.Millisecond)

	var got []Capture
	for c := range Scan(context.Background(), strings.NewReader(dump), clock, 0) {
		got = append(got, c)
	}
	require.Len(t, got, 2*ir.FrameMarks)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Timestamp.After(got[i-1].Timestamp), "capture %d", i)
	}
	gap := got[ir.FrameMarks].Timestamp.Sub(got[ir.FrameMarks-1].Timestamp)
	assert.Greater(t, gap, 100*time.Millisecond)
}

func TestScan_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lines := strings.Repeat("1000,100272\n", 50)
	out := Scan(ctx, strings.NewReader(lines), nil, 1)

	<-out
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range out {
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Scan did not stop after cancel")
	}
}
