package scope

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/irkeys/pkg/capture"
	"github.com/itohio/irkeys/pkg/config"
	"github.com/itohio/irkeys/pkg/ir"
	"github.com/itohio/irkeys/pkg/receiver"
)

func framePulses(start time.Time, f ir.Frame) []capture.Pulse {
	var out []capture.Pulse
	for _, c := range capture.FrameCaptures(start, f, ir.ClockHz) {
		out = append(out, capture.Classify(c, ir.DefaultQuantizer))
	}
	return out
}

func TestVisible(t *testing.T) {
	start := time.Unix(0, 0)
	pulses := framePulses(start, ir.Frame{Button: 1, Mode: ir.AcceptedMode})

	assert.Len(t, visible(pulses, start, start.Add(time.Second)), ir.FrameMarks)
	assert.Empty(t, visible(pulses, start.Add(time.Second), start.Add(2*time.Second)))
	assert.Len(t, visible(pulses, start, pulses[0].Timestamp), 1)
	assert.Len(t, visible(pulses, pulses[1].Timestamp, start.Add(time.Second)), ir.FrameMarks-1)
	assert.Empty(t, visible(nil, start, start.Add(time.Second)))
}

func TestVisibleEvents(t *testing.T) {
	start := time.Unix(0, 0)
	events := []receiver.Event{
		{Timestamp: start},
		{Timestamp: start.Add(time.Second)},
	}
	assert.Len(t, visibleEvents(events, start, start.Add(time.Millisecond)), 1)
	assert.Len(t, visibleEvents(events, start, start.Add(time.Second)), 2)
}

func TestMarkDuration(t *testing.T) {
	ticks := ir.TicksFor(ir.StartMark, ir.ClockHz)
	assert.InDelta(t, float64(ir.StartMark), float64(markDuration(ticks, ir.ClockHz)), float64(time.Microsecond))
	assert.Zero(t, markDuration(ticks, 0))
}

func TestClassLevel(t *testing.T) {
	assert.Greater(t, classLevel(ir.Start), classLevel(ir.One))
	assert.Greater(t, classLevel(ir.One), classLevel(ir.Zero))
	assert.Greater(t, classLevel(ir.Zero), classLevel(ir.Ignore))
}

func TestEventLabel(t *testing.T) {
	msg := ir.Message{Button: 0x12, Mode: 1}
	assert.Equal(t, "0x12/1 '+'", eventLabel(receiver.Event{Message: msg, Accepted: true, Char: '+'}))
	assert.Equal(t, "0x12/1", eventLabel(receiver.Event{Message: msg}))
}

func TestScopeWidget_UpdateData(t *testing.T) {
	test.NewTempApp(t)

	s := New(config.Default())
	w := test.NewWindow(s)
	defer w.Close()
	w.Resize(fyne.NewSize(800, 300))

	start := time.Unix(100, 0)
	pulses := framePulses(start, ir.Frame{Button: 0x12, Mode: ir.AcceptedMode})
	events := []receiver.Event{{
		Timestamp: pulses[len(pulses)-1].Timestamp,
		Message:   ir.Message{Button: 0x12, Mode: ir.AcceptedMode},
		Accepted:  true,
		Char:      '+',
	}}
	s.UpdateData(pulses, events)

	s.mu.RLock()
	xMax := s.xMax
	xMin := s.xMin
	s.mu.RUnlock()
	assert.Equal(t, pulses[len(pulses)-1].Timestamp.Add(ir.Space), xMax)
	assert.Equal(t, DefaultSpan, xMax.Sub(xMin))

	r := test.WidgetRenderer(s)
	require.NotNil(t, r)
	r.Refresh()
	// background, grid, one bar per mark and the event marker with its label
	assert.GreaterOrEqual(t, len(r.Objects()), 1+ir.FrameMarks+2)

	s.SetSpan(time.Second)
	s.mu.RLock()
	assert.Equal(t, time.Second, s.xMax.Sub(s.xMin))
	s.mu.RUnlock()
}
