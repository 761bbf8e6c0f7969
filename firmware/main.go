//go:build tinygo
//go:generate tinygo flash -target=pico

package main

import (
	"machine"
	"time"

	"github.com/itohio/irkeys/pkg/ir"
)

var (
	uart = machine.UART0

	quantizer = ir.Quantizer{K: QUANT_K, Denom: QUANT_DENOM}
	table     = ir.DefaultTable()
	decoder   ir.Decoder

	// Mark lengths in microseconds, filled by the pin interrupt
	marks = make(chan uint32, MARK_BUFFER)

	// Start of the current mark, only touched by the interrupt handler
	markStart int64
)

func main() {
	PIN_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	go heartbeat()

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
		TX:       PIN_UART_TX,
		RX:       PIN_UART_RX,
	})
	if err := uart.SetFormat(UART_DATA_BITS, UART_STOP_BITS, machine.ParityEven); err != nil {
		println("uart format:", err.Error())
	}

	PIN_IR.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	if err := PIN_IR.SetInterrupt(machine.PinToggle, onEdge); err != nil {
		println("ir interrupt:", err.Error())
	}

	for us := range marks {
		msg, done := decoder.OnPulse(quantizer.Classify(us))
		if !done {
			continue
		}

		if c, ok := table.Translate(msg, ir.AcceptedMode); ok {
			uart.WriteByte(c)
		}

		time.Sleep(DEAD_TIME)
		drain()
	}
}

// onEdge measures marks. The receiver output is low during a mark, so the
// falling edge starts it and the rising edge ends it.
func onEdge(pin machine.Pin) {
	now := time.Now().UnixMicro()
	if !pin.Get() {
		markStart = now
		return
	}
	if markStart == 0 {
		return
	}

	width := now - markStart
	markStart = 0
	if width <= 0 || width > 1<<31 {
		return
	}

	select {
	case marks <- uint32(width):
	default:
	}
}

// drain drops marks captured during the dead time.
func drain() {
	for {
		select {
		case <-marks:
		default:
			return
		}
	}
}

func heartbeat() {
	for {
		PIN_LED.High()
		time.Sleep(HEARTBEAT_DELAY)
		PIN_LED.Low()
		time.Sleep(HEARTBEAT_DELAY)
	}
}
