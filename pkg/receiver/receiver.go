package receiver

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itohio/irkeys/pkg/capture"
	"github.com/itohio/irkeys/pkg/config"
	"github.com/itohio/irkeys/pkg/ir"
)

// Event is the outcome of one finalized message.
type Event struct {
	Timestamp time.Time
	Message   ir.Message
	Accepted  bool // Mode matched
	Char      byte // Translated character, 0 when none
	Emitted   bool // Char was written to the output without error
}

// Stats counts what the receiver has seen since it was created.
type Stats struct {
	Pulses       uint64
	Starts       uint64
	Ones         uint64
	Zeros        uint64
	Ignored      uint64
	DroppedBits  uint64 // ONE/ZERO without a preceding START
	Restarts     uint64 // START while a message was in progress
	Messages     uint64
	RejectedMode uint64
	Untranslated uint64
	Emitted      uint64
	EmitErrors   uint64
	Suppressed   uint64 // Pulses dropped inside the dead time
}

// UpdateFunc receives copies of the pulse and event history.
type UpdateFunc func(pulses []capture.Pulse, events []Event)

// Receiver owns the decoder state. Pulses must be delivered by a single
// goroutine (ProcessPulses or HandlePulse); history accessors are safe for
// concurrent use.
type Receiver struct {
	table    ir.Table
	mode     uint8
	deadTime time.Duration
	window   time.Duration
	out      io.ByteWriter

	decoder   ir.Decoder
	deadUntil time.Time

	mu     sync.RWMutex
	pulses []capture.Pulse // FIFO history, removed by timestamp
	events []Event         // FIFO history, removed by timestamp
	stats  Stats
	state  ir.State

	callbacks []UpdateFunc
	cbMu      sync.RWMutex

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// New creates a Receiver that writes accepted characters to out.
// out may be nil, in which case characters are only recorded as events.
func New(cfg *config.Config, table ir.Table, out io.ByteWriter) *Receiver {
	return &Receiver{
		table:    table,
		mode:     cfg.Decoder.Mode,
		deadTime: cfg.Decoder.DeadTime,
		window:   cfg.Decoder.HistoryWindow,
		out:      out,
		pulses:   make([]capture.Pulse, 0),
		events:   make([]Event, 0),
	}
}

// ProcessPulses handles pulses until the input channel closes.
func (r *Receiver) ProcessPulses(input <-chan capture.Pulse) {
	for p := range input {
		r.HandlePulse(p)
	}
	r.mu.Lock()
	r.shutdown = true
	r.mu.Unlock()
}

// HandlePulse feeds a single pulse through the decoder.
func (r *Receiver) HandlePulse(p capture.Pulse) {
	r.mu.Lock()

	r.pulses = append(r.pulses, p)
	r.prune(p.Timestamp)
	r.stats.Pulses++

	var (
		ev       Event
		finished bool
		index    int
	)
	if p.Timestamp.Before(r.deadUntil) {
		r.stats.Suppressed++
	} else {
		r.count(p.Class)
		var msg ir.Message
		msg, finished = r.decoder.OnPulse(p.Class)
		if finished {
			r.deadUntil = p.Timestamp.Add(r.deadTime)
			ev = r.finalize(p.Timestamp, msg)
			index = len(r.events) - 1
		}
	}
	r.state = r.decoder.State()
	shouldNotify := !r.shutdown
	r.mu.Unlock()

	if finished && ev.Char != 0 && r.out != nil {
		r.emit(index, ev.Char)
	}

	if shouldNotify {
		r.notifyCallbacks()
	}
}

// count updates per-class statistics. Must be called before the decoder
// sees the pulse.
func (r *Receiver) count(c ir.PulseClass) {
	switch c {
	case ir.Start:
		r.stats.Starts++
		if !r.decoder.Waiting() {
			r.stats.Restarts++
		}
	case ir.One, ir.Zero:
		if c == ir.One {
			r.stats.Ones++
		} else {
			r.stats.Zeros++
		}
		if r.decoder.Waiting() {
			r.stats.DroppedBits++
		}
	default:
		r.stats.Ignored++
	}
}

// finalize records the event of a finished message.
func (r *Receiver) finalize(at time.Time, msg ir.Message) Event {
	r.stats.Messages++
	ev := Event{
		Timestamp: at,
		Message:   msg,
		Accepted:  msg.Mode == r.mode,
	}

	log := logrus.WithFields(logrus.Fields{
		"button": msg.Button,
		"mode":   msg.Mode,
	})

	switch c, ok := r.table.Translate(msg, r.mode); {
	case !ev.Accepted:
		r.stats.RejectedMode++
		log.Debug("Message with foreign mode dropped")
	case !ok:
		r.stats.Untranslated++
		log.Debug("Button has no translation")
	default:
		ev.Char = c
		log.WithField("char", string(rune(c))).Debug("Message decoded")
	}

	r.events = append(r.events, ev)
	return ev
}

// emit writes c to the output and marks the event at index with the result.
// Errors are counted, never retried.
func (r *Receiver) emit(index int, c byte) {
	err := r.out.WriteByte(c)

	r.mu.Lock()
	if err != nil {
		r.stats.EmitErrors++
	} else {
		r.stats.Emitted++
	}
	if index >= 0 && index < len(r.events) {
		r.events[index].Emitted = err == nil
	}
	r.mu.Unlock()

	if err != nil {
		logrus.WithError(err).Warn("Failed to emit character")
	}
}

// prune removes history older than the window relative to now.
func (r *Receiver) prune(now time.Time) {
	if r.window <= 0 {
		return
	}
	cutoff := now.Add(-r.window)

	i := 0
	for i < len(r.pulses) && !r.pulses[i].Timestamp.After(cutoff) {
		i++
	}
	if i > 0 {
		r.pulses = r.pulses[i:]
	}

	j := 0
	for j < len(r.events) && !r.events[j].Timestamp.After(cutoff) {
		j++
	}
	if j > 0 {
		r.events = r.events[j:]
	}
}

// Pulses returns a copy of the pulse history.
func (r *Receiver) Pulses() []capture.Pulse {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]capture.Pulse, len(r.pulses))
	copy(result, r.pulses)
	return result
}

// Events returns a copy of the event history.
func (r *Receiver) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Event, len(r.events))
	copy(result, r.events)
	return result
}

// Stats returns the current counters.
func (r *Receiver) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// State returns the decoder state after the last handled pulse.
func (r *Receiver) State() ir.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// OnUpdate registers a callback invoked after every handled pulse.
// The callback should copy data quickly and return as fast as possible.
func (r *Receiver) OnUpdate(callback UpdateFunc) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}

// ResetShutdown allows callbacks again after the input channel closed.
// This should be called before starting a new pulse stream.
func (r *Receiver) ResetShutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdown = false
}

// notifyCallbacks invokes all registered callbacks with copies of the history.
func (r *Receiver) notifyCallbacks() {
	r.cbMu.RLock()
	callbacks := make([]UpdateFunc, len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.cbMu.RUnlock()

	if len(callbacks) == 0 {
		return
	}

	pulses := r.Pulses()
	events := r.Events()
	for _, cb := range callbacks {
		if cb != nil {
			cb(pulses, events)
		}
	}
}
