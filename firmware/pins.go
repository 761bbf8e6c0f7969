//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	// IR receiver output, active low while a mark is received
	PIN_IR = machine.GP15

	// Heartbeat LED
	PIN_LED         = machine.LED
	HEARTBEAT_DELAY = 500 * time.Millisecond

	// Serial configuration, must match the host: 9600 baud, 8 data bits,
	// even parity, 1 stop bit
	UART_BAUD_RATE = 9600
	UART_DATA_BITS = 8
	UART_STOP_BITS = 1
	PIN_UART_TX    = machine.UART0_TX_PIN
	PIN_UART_RX    = machine.UART0_RX_PIN

	// Marks are measured in microseconds
	QUANT_K     = 1
	QUANT_DENOM = 1000

	// Ignore everything after a decoded press for this long, repeated frames
	// of a held button fall inside it
	DEAD_TIME = 100 * time.Millisecond

	// Marks buffered between the interrupt and the main loop; one frame fits
	MARK_BUFFER = 16
)
