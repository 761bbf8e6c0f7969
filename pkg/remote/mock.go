package remote

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/sirupsen/logrus"

	"github.com/itohio/irkeys/pkg/capture"
	"github.com/itohio/irkeys/pkg/config"
	"github.com/itohio/irkeys/pkg/ir"
	"github.com/itohio/irkeys/pkg/receiver"
)

const (
	// Jitter beyond this many standard deviations is clipped.
	maxSigma = 3
	// Noise marks are long enough to always classify as Ignore.
	minNoise = 3 * time.Millisecond
	maxNoise = 8 * time.Millisecond
	// Gap between a noise mark and the frame that follows it.
	noiseGap = 10 * time.Millisecond
)

// Mock simulates a remote control pointed at the receiver. Button presses are
// encoded as frames and decoded by a real Receiver whose output feeds Keys.
type Mock struct {
	cfg   *config.Config
	table ir.Table
	rng   *rand.Rand

	keys     chan Key
	receiver *receiver.Receiver
	done     chan struct{}

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	closed    bool

	// Synthetic clock: press n starts at start + n*slot.
	start time.Time
	slot  time.Duration
}

// NewMock creates a new simulated remote.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	table, err := cfg.Table()
	if err != nil {
		logrus.WithError(err).Warn("Invalid keymap, using default table")
		table = ir.DefaultTable()
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := uint64(time.Now().UnixNano())

	m := &Mock{
		cfg:    cfg,
		table:  table,
		rng:    rand.New(rand.NewPCG(now, now>>1)),
		keys:   make(chan Key, DefaultBufferSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	m.receiver = receiver.New(cfg, table, keyWriter{keys: m.keys})
	return m
}

// Connect starts pressing buttons.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.closed {
		return ErrClosed
	}

	m.connected = true
	m.start = time.Now()
	m.slot = m.pressSlot()

	captures := make(chan capture.Capture, DefaultBufferSize)
	pulses := capture.NewConverter(m.cfg.Quantizer(), DefaultBufferSize)(captures)

	go func() {
		defer close(m.done)
		m.receiver.ProcessPulses(pulses)
	}()
	go m.generate(captures)

	return nil
}

// Close stops the simulation. It waits for the in-flight pulses to be decoded
// before the keys channel is closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.cancel()
	m.connected = false
	m.closed = true
	m.mu.Unlock()

	<-m.done
	close(m.keys)

	return nil
}

// Keys returns the channel for reading decoded keys.
func (m *Mock) Keys() <-chan Key {
	return m.keys
}

// IsConnected returns whether the simulation is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Receiver returns the receiver decoding the simulated signal.
func (m *Mock) Receiver() *receiver.Receiver {
	return m.receiver
}

// pressSlot returns the synthetic length of one press. Presses never overlap
// and the next press always starts after the dead time of the previous one.
func (m *Mock) pressSlot() time.Duration {
	repeats := max(m.cfg.Mock.Repeats, 1)
	slot := time.Duration(repeats)*ir.FramePeriod + m.cfg.Decoder.DeadTime + noiseGap + maxNoise
	return max(slot, m.cfg.Mock.PressInterval)
}

// generate presses the configured sequence on a ticker until the context is
// cancelled, then closes captures.
func (m *Mock) generate(captures chan<- capture.Capture) {
	defer close(captures)

	interval := m.cfg.Mock.PressInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sequence := m.cfg.Mock.Sequence
	if len(sequence) == 0 {
		logrus.Warn("Mock sequence is empty, nothing to press")
		<-m.ctx.Done()
		return
	}

	for n := 0; ; n++ {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
		}

		button := uint8(sequence[n%len(sequence)]) & 0x7F
		at := m.start.Add(time.Duration(n) * m.slot)
		for _, c := range m.press(at, button) {
			select {
			case captures <- c:
			case <-m.ctx.Done():
				return
			}
		}
	}
}

// press returns the captures of a held button starting at at.
func (m *Mock) press(at time.Time, button uint8) []capture.Capture {
	clockHz := m.cfg.Decoder.ClockHz
	if clockHz == 0 {
		clockHz = ir.ClockHz
	}

	var out []capture.Capture
	if m.cfg.Mock.NoiseRate > 0 && m.rng.Float64() < m.cfg.Mock.NoiseRate {
		noise := minNoise + time.Duration(m.rng.Int64N(int64(maxNoise-minNoise)))
		out = append(out, capture.FromMarks(at, []time.Duration{noise}, 0, clockHz)...)
	}
	at = at.Add(noiseGap + maxNoise)

	f := ir.Frame{Button: button, Mode: m.cfg.Mock.Mode}
	for r := 0; r < max(m.cfg.Mock.Repeats, 1); r++ {
		marks := f.MarshalMarks()
		for i := range marks {
			marks[i] = m.jitter(marks[i])
		}
		out = append(out, capture.FromMarks(at.Add(time.Duration(r)*ir.FramePeriod), marks, ir.Space, clockHz)...)
	}
	return out
}

// jitter scales d by a normally distributed factor with the configured
// relative deviation.
func (m *Mock) jitter(d time.Duration) time.Duration {
	sigma := float32(m.cfg.Mock.Jitter)
	if sigma <= 0 {
		return d
	}

	// Box-Muller
	u1 := 1 - m.rng.Float32()
	u2 := m.rng.Float32()
	z := math32.Sqrt(-2*math32.Log(u1)) * math32.Cos(2*math32.Pi*u2)
	z = math32.Max(-maxSigma, math32.Min(maxSigma, z))

	scale := math32.Max(0, 1+sigma*z)
	return time.Duration(float32(d) * scale)
}
