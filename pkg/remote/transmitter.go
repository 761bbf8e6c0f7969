package remote

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/itohio/irkeys/pkg/config"
)

// Transmitter writes characters to a serial port with the receiver's wire
// format. It lets a host stand in for the receiver MCU.
type Transmitter struct {
	mu   sync.Mutex
	conn io.WriteCloser
}

var (
	_ io.ByteWriter = (*Transmitter)(nil)
	_ io.Closer     = (*Transmitter)(nil)
)

// OpenTransmitter opens the configured serial port for writing.
func OpenTransmitter(cfg config.SerialConfig) (*Transmitter, error) {
	port, err := openPort(cfg)
	if err != nil {
		return nil, err
	}
	return &Transmitter{conn: port}, nil
}

// NewTransmitter wraps an already open connection.
func NewTransmitter(conn io.WriteCloser) *Transmitter {
	return &Transmitter{conn: conn}
}

// WriteByte sends a single character.
func (t *Transmitter) WriteByte(c byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return fmt.Errorf("transmitter closed")
	}
	if _, err := t.conn.Write([]byte{c}); err != nil {
		return fmt.Errorf("failed to send character: %w", err)
	}
	if d, ok := t.conn.(serial.Port); ok {
		if err := d.Drain(); err != nil {
			return fmt.Errorf("failed to drain serial port: %w", err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (t *Transmitter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
