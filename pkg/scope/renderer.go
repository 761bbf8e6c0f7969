package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/irkeys/pkg/capture"
	"github.com/itohio/irkeys/pkg/ir"
	"github.com/itohio/irkeys/pkg/receiver"
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// plot is the drawing area inside the margins.
type plot struct {
	x, y, width, height float32
	xMin, xMax          time.Time
}

func (p plot) xFor(t time.Time) float32 {
	span := p.xMax.Sub(p.xMin)
	if span <= 0 {
		return p.x
	}
	return p.x + float32(t.Sub(p.xMin).Seconds()/span.Seconds())*p.width
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 200)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	// Background fills entire widget
	r.grid.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	xMin := r.scope.xMin
	xMax := r.scope.xMax
	pulses := visible(r.scope.pulses, xMin, xMax)
	events := visibleEvents(r.scope.events, xMin, xMax)
	clockHz := r.scope.cfg.Decoder.ClockHz
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep grid)
	r.objects = []fyne.CanvasObject{r.grid}

	marginLeft := float32(50.0)
	marginRight := float32(20.0)
	marginTop := float32(30.0)
	marginBottom := float32(30.0)

	p := plot{
		x:      marginLeft,
		y:      marginTop,
		width:  size.Width - marginLeft - marginRight,
		height: size.Height - marginTop - marginBottom,
		xMin:   xMin,
		xMax:   xMax,
	}

	r.drawGrid(p)
	r.drawPulses(p, pulses, clockHz)
	r.drawEvents(p, events)
}

// drawGrid draws the class levels and the time axis.
func (r *scopeRenderer) drawGrid(p plot) {
	gridColor := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	textColor := color.RGBA{R: 150, G: 150, B: 150, A: 255}

	for _, c := range []ir.PulseClass{ir.Start, ir.One, ir.Zero} {
		y := p.y + p.height - classLevel(c)*p.height
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(p.x, y)
		line.Position2 = fyne.NewPos(p.x+p.width, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		text := canvas.NewText(c.String(), textColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	numVLines := 8
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.width/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, p.y)
		line.Position2 = fyne.NewPos(x, p.y+p.height)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		offset := time.Duration(i) * p.xMax.Sub(p.xMin) / time.Duration(numVLines)
		text := canvas.NewText(formatOffset(offset), textColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.y+p.height+5))
		r.objects = append(r.objects, text)
	}
}

// drawPulses draws each mark as a bar ending at its capture timestamp.
func (r *scopeRenderer) drawPulses(p plot, pulses []capture.Pulse, clockHz uint64) {
	for _, pulse := range pulses {
		start := pulse.Timestamp.Add(-markDuration(pulse.Ticks, clockHz))
		x1 := max(p.xFor(start), p.x)
		x2 := p.xFor(pulse.Timestamp)
		h := classLevel(pulse.Class) * p.height

		bar := canvas.NewRectangle(classColor(pulse.Class))
		bar.Move(fyne.NewPos(x1, p.y+p.height-h))
		bar.Resize(fyne.NewSize(max(x2-x1, 1), h))
		r.objects = append(r.objects, bar)
	}
}

// drawEvents labels finalized messages above the plot.
func (r *scopeRenderer) drawEvents(p plot, events []receiver.Event) {
	for _, ev := range events {
		x := p.xFor(ev.Timestamp)

		marker := canvas.NewLine(color.RGBA{R: 200, G: 200, B: 200, A: 255})
		marker.Position1 = fyne.NewPos(x, p.y)
		marker.Position2 = fyne.NewPos(x, p.y+p.height)
		marker.StrokeWidth = 1
		r.objects = append(r.objects, marker)

		textColor := color.RGBA{R: 255, G: 165, B: 0, A: 255}
		if !ev.Accepted || ev.Char == 0 {
			textColor = color.RGBA{R: 200, G: 60, B: 60, A: 255}
		}
		text := canvas.NewText(eventLabel(ev), textColor)
		text.TextSize = 12
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-30, p.y-22))
		r.objects = append(r.objects, text)
	}
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

func eventLabel(ev receiver.Event) string {
	label := fmt.Sprintf("0x%02X/%d", ev.Message.Button, ev.Message.Mode)
	if ev.Accepted && ev.Char != 0 {
		label += " " + fmt.Sprintf("%q", ev.Char)
	}
	return label
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
}
