package remote

import (
	"errors"
	"time"
)

// Key is one character received from the remote receiver.
type Key struct {
	Timestamp time.Time
	Char      byte
}

// Device defines the interface for key sources (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Keys() <-chan Key
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)

// ErrClosed is returned when connecting a device that was already closed.
// The keys channel of a closed device stays closed.
var ErrClosed = errors.New("device is closed")

// ErrKeysFull is returned by a key writer when the consumer is not keeping up.
var ErrKeysFull = errors.New("keys channel full")

// keyWriter is an io.ByteWriter that delivers characters into a key channel
// without blocking.
type keyWriter struct {
	keys chan<- Key
}

func (w keyWriter) WriteByte(c byte) error {
	select {
	case w.keys <- Key{Timestamp: time.Now(), Char: c}:
		return nil
	default:
		return ErrKeysFull
	}
}
