package remote

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/itohio/irkeys/pkg/config"
)

func TestNew(t *testing.T) {
	cfg := config.SerialConfig{Port: "COM3", BaudRate: 9600}
	dev := New(cfg, 100)
	assert.NotNil(t, dev)
	assert.Equal(t, "COM3", dev.cfg.Port)
	assert.Equal(t, 9600, dev.cfg.BaudRate)
	assert.Equal(t, 100, dev.bufSize)
	assert.NotNil(t, dev.keys)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New(config.SerialConfig{Port: "COM3"}, 0)
	assert.NotNil(t, dev)
	assert.Equal(t, DefaultBaudRate, dev.cfg.BaudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_CloseWithoutConnect(t *testing.T) {
	dev := New(config.SerialConfig{Port: "COM3"}, 0)
	assert.NoError(t, dev.Close())
	assert.False(t, dev.IsConnected())
}

func TestSerial_ConnectAfterClose(t *testing.T) {
	dev := New(config.SerialConfig{Port: "COM3"}, 0)

	// Simulate a live connection whose reader has already stopped.
	dev.connected = true
	close(dev.keys)

	require.NoError(t, dev.Close())
	assert.ErrorIs(t, dev.Connect(), ErrClosed)
	assert.False(t, dev.IsConnected())
	assert.NoError(t, dev.Close())

	_, ok := <-dev.Keys()
	assert.False(t, ok)
}

func TestMode(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SerialConfig
		want    serial.Mode
		wantErr bool
	}{
		{
			name: "receiver wire format",
			cfg:  config.SerialConfig{BaudRate: 9600, Parity: "even", StopBits: 1, DataBits: 8},
			want: serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.EvenParity, StopBits: serial.OneStopBit},
		},
		{
			name: "zero values",
			cfg:  config.SerialConfig{},
			want: serial.Mode{BaudRate: DefaultBaudRate, DataBits: 8, Parity: serial.EvenParity, StopBits: serial.OneStopBit},
		},
		{
			name: "odd parity two stop bits",
			cfg:  config.SerialConfig{BaudRate: 19200, Parity: "ODD", StopBits: 2, DataBits: 7},
			want: serial.Mode{BaudRate: 19200, DataBits: 7, Parity: serial.OddParity, StopBits: serial.TwoStopBits},
		},
		{
			name: "no parity",
			cfg:  config.SerialConfig{Parity: "none"},
			want: serial.Mode{BaudRate: DefaultBaudRate, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit},
		},
		{
			name:    "unknown parity",
			cfg:     config.SerialConfig{Parity: "mark"},
			wantErr: true,
		},
		{
			name:    "unsupported stop bits",
			cfg:     config.SerialConfig{StopBits: 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Mode(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestReadByteLoop(t *testing.T) {
	keys := make(chan Key, 10)
	r := bytes.NewReader([]byte{'1', 0, '2', '\n', 0})

	readByteLoop(context.Background(), r, keys)
	close(keys)

	var got []byte
	for k := range keys {
		got = append(got, k.Char)
		assert.False(t, k.Timestamp.IsZero())
	}
	assert.Equal(t, []byte("12\n"), got)
}

func TestReadByteLoop_DropsWhenFull(t *testing.T) {
	keys := make(chan Key, 2)
	r := bytes.NewReader([]byte("12345"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		readByteLoop(context.Background(), r, keys)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readByteLoop blocked on a full channel")
	}
	assert.Len(t, keys, 2)
	assert.Equal(t, byte('1'), (<-keys).Char)
	assert.Equal(t, byte('2'), (<-keys).Char)
}

func TestReadByteLoop_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	keys := make(chan Key, 10)
	readByteLoop(ctx, bytes.NewReader([]byte("123")), keys)
	assert.Empty(t, keys)
}

func TestKeyWriter(t *testing.T) {
	keys := make(chan Key, 1)
	w := keyWriter{keys: keys}

	require.NoError(t, w.WriteByte('+'))
	assert.ErrorIs(t, w.WriteByte('-'), ErrKeysFull)
	assert.Equal(t, byte('+'), (<-keys).Char)
}

type bufferCloser struct {
	bytes.Buffer
	closed bool
	err    error
}

func (b *bufferCloser) Write(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	return b.Buffer.Write(p)
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestTransmitter(t *testing.T) {
	conn := &bufferCloser{}
	tx := NewTransmitter(conn)

	for _, c := range []byte("12\n+") {
		require.NoError(t, tx.WriteByte(c))
	}
	assert.Equal(t, "12\n+", conn.String())

	require.NoError(t, tx.Close())
	assert.True(t, conn.closed)
	assert.Error(t, tx.WriteByte('1'))
	assert.NoError(t, tx.Close())
}

func TestTransmitter_WriteError(t *testing.T) {
	busy := errors.New("busy")
	tx := NewTransmitter(&bufferCloser{err: busy})
	assert.ErrorIs(t, tx.WriteByte('1'), busy)
}
