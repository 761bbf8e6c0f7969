package remote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/itohio/irkeys/pkg/config"
)

const (
	// DefaultBaudRate is the UART rate of the receiver firmware.
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default size for the keys channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the receiver MCU.
type Serial struct {
	cfg     config.SerialConfig
	bufSize int

	conn      serial.Port
	keys      chan Key
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	closed    bool
}

// New creates a new Serial device with the specified port settings and buffer size.
func New(cfg config.SerialConfig, bufSize int) *Serial {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		cfg:       cfg,
		bufSize:   bufSize,
		keys:      make(chan Key, bufSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Mode converts the serial configuration into a port mode.
// Zero values fall back to 8 data bits, even parity and one stop bit.
func Mode(cfg config.SerialConfig) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   serial.EvenParity,
		StopBits: serial.OneStopBit,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = DefaultBaudRate
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}

	switch strings.ToLower(cfg.Parity) {
	case "", "even":
	case "odd":
		mode.Parity = serial.OddParity
	case "none":
		mode.Parity = serial.NoParity
	default:
		return nil, fmt.Errorf("unknown parity %q", cfg.Parity)
	}

	switch cfg.StopBits {
	case 0, 1:
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", cfg.StopBits)
	}

	return mode, nil
}

// openPort opens a serial port with the configured wire format.
func openPort(cfg config.SerialConfig) (serial.Port, error) {
	mode, err := Mode(cfg)
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	return port, nil
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil && len(details) > 0 {
		result := make([]Port, 0, len(details))
		for _, d := range details {
			desc := d.Name
			if d.IsUSB {
				desc = fmt.Sprintf("%s %s:%s", d.Product, d.VID, d.PID)
			}
			result = append(result, Port{Name: d.Name, Description: strings.TrimSpace(desc)})
		}
		return result, nil
	}

	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(names))
	for _, name := range names {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts reading keys. A closed device
// cannot be connected again; create a new one instead.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}
	if d.closed {
		return ErrClosed
	}

	port, err := openPort(d.cfg)
	if err != nil {
		return err
	}

	d.conn = port
	d.connected = true

	go d.readKeys(port)

	logrus.WithField("port", d.cfg.Port).Info("Connected to receiver")
	return nil
}

// Close closes the connection and stops reading keys.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing serial port")
		}
		d.conn = nil
	}

	d.connected = false
	d.closed = true
	return nil
}

// Keys returns the channel for reading keys. It is closed once the reader
// stops after Close or a port error.
func (d *Serial) Keys() <-chan Key {
	return d.keys
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readKeys reads bytes from the serial port and turns them into keys.
func (d *Serial) readKeys(r io.Reader) {
	defer close(d.keys)
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Panic in readKeys: %v", r)
		}
	}()

	readByteLoop(d.ctx, bufio.NewReader(r), d.keys)
}

// readByteLoop forwards bytes from r into keys until ctx is cancelled or r fails.
// NUL bytes carry no translation and are skipped.
func readByteLoop(ctx context.Context, r io.ByteReader, keys chan<- Key) {
	for {
		c, err := r.ReadByte()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				logrus.WithError(err).Error("Error reading from serial port")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if c == 0 {
			continue
		}

		select {
		case keys <- Key{Timestamp: time.Now(), Char: c}:
		case <-ctx.Done():
			return
		default:
			logrus.Warn("Keys channel full, dropping key")
		}
	}
}
