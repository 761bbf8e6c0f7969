package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/irkeys/pkg/capture"
	"github.com/itohio/irkeys/pkg/config"
	"github.com/itohio/irkeys/pkg/ir"
	"github.com/itohio/irkeys/pkg/receiver"
)

// DefaultSpan shows one held press of three frames.
const DefaultSpan = 160 * time.Millisecond

// ScopeWidget is a custom Fyne widget that displays the received pulse train
// logic-analyzer style, with decoded messages labeled.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu     sync.RWMutex
	pulses []capture.Pulse
	events []receiver.Event
	span   time.Duration

	// Visible time range
	xMin, xMax time.Time
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg:    cfg,
		pulses: make([]capture.Pulse, 0),
		events: make([]receiver.Event, 0),
		span:   DefaultSpan,
	}
	s.updateRange()
	s.ExtendBaseWidget(s)
	// Trigger initial refresh to display empty scope
	s.Refresh()
	return s
}

// SetSpan changes the visible time span.
func (s *ScopeWidget) SetSpan(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.span = d
	s.updateRange()
	s.mu.Unlock()
	s.Refresh()
}

// UpdateData updates the widget with the receiver history.
// This should be called from the receiver callback using fyne.Do().
func (s *ScopeWidget) UpdateData(pulses []capture.Pulse, events []receiver.Event) {
	s.mu.Lock()
	s.pulses = pulses
	s.events = events
	s.updateRange()
	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// updateRange ends the visible range at the newest pulse.
func (s *ScopeWidget) updateRange() {
	if len(s.pulses) == 0 {
		s.xMax = time.Now()
	} else {
		s.xMax = s.pulses[len(s.pulses)-1].Timestamp.Add(ir.Space)
	}
	s.xMin = s.xMax.Add(-s.span)
}

// visible returns the pulses that end inside [from, to]. pulses are ordered by
// timestamp.
func visible(pulses []capture.Pulse, from, to time.Time) []capture.Pulse {
	i := 0
	for i < len(pulses) && pulses[i].Timestamp.Before(from) {
		i++
	}
	j := len(pulses)
	for j > i && pulses[j-1].Timestamp.After(to) {
		j--
	}
	return pulses[i:j]
}

// visibleEvents returns the events inside [from, to].
func visibleEvents(events []receiver.Event, from, to time.Time) []receiver.Event {
	var out []receiver.Event
	for _, ev := range events {
		if !ev.Timestamp.Before(from) && !ev.Timestamp.After(to) {
			out = append(out, ev)
		}
	}
	return out
}

// markDuration converts a capture back into a mark length.
func markDuration(ticks uint32, clockHz uint64) time.Duration {
	if clockHz == 0 {
		return 0
	}
	return time.Duration(uint64(ticks) * uint64(time.Second) / clockHz)
}

// classLevel is the bar height of a class as a fraction of the plot height.
func classLevel(c ir.PulseClass) float32 {
	switch c {
	case ir.Start:
		return 1
	case ir.One:
		return 0.66
	case ir.Zero:
		return 0.33
	default:
		return 0.15
	}
}

// classColor is the bar color of a class.
func classColor(c ir.PulseClass) color.Color {
	switch c {
	case ir.Start:
		return color.RGBA{R: 255, G: 165, B: 0, A: 255} // Orange
	case ir.One:
		return color.RGBA{R: 100, G: 200, B: 255, A: 255} // Light blue
	case ir.Zero:
		return color.RGBA{R: 0, G: 100, B: 200, A: 255} // Dark blue
	default:
		return color.RGBA{R: 200, G: 60, B: 60, A: 255} // Red
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:    s,
		grid:     grid,
		objects:  []fyne.CanvasObject{grid},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
