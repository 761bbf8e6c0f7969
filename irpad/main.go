// irpad is a virtual remote control. Its buttons are encoded into IR frames,
// decoded by the same receiver as the hardware and the resulting characters
// are optionally forwarded over a serial port, standing in for the receiver
// MCU.
package main

import (
	"flag"
	"fmt"
	"io"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/itohio/irkeys/pkg/capture"
	"github.com/itohio/irkeys/pkg/config"
	"github.com/itohio/irkeys/pkg/ir"
	"github.com/itohio/irkeys/pkg/receiver"
	"github.com/itohio/irkeys/pkg/remote"
	"github.com/itohio/irkeys/pkg/scope"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyUSB0)")
		configFlag = flag.String("config", "irkeys.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Watch a simulated remote instead of forwarding to a serial port")
	)
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	table, err := cfg.Table()
	if err != nil {
		logrus.Fatalf("Invalid keymap: %v", err)
	}

	application := app.NewWithID("com.itohio.irpad")
	window := application.NewWindow("IR Remote")
	window.Resize(fyne.NewSize(1000, 500))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configFile: *configFlag,
		table:      table,
		window:     window,
		useMock:    *mockFlag,
		mode:       cfg.Decoder.Mode,
	}
	state.output = widget.NewLabel("")
	state.output.Wrapping = fyne.TextWrapBreak
	state.scopeWidget = scope.New(cfg)
	state.resetReceiver()

	toolbar := createToolbar(state)
	keypad := createKeypad(state)

	content := container.NewBorder(
		toolbar,
		container.NewVScroll(state.output),
		nil,
		keypad,
		state.scopeWidget,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		state.disconnect()
	})
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configFile string
	table      ir.Table
	window     fyne.Window
	useMock    bool

	// Local receiver decoding the virtual button presses; only the UI goroutine
	// feeds it.
	receiver    *receiver.Receiver
	scopeWidget *scope.ScopeWidget
	output      *widget.Label
	connectBtn  *widget.Button
	mode        uint8

	// Serial forwarding or simulated remote, nil when disconnected
	tx      *remote.Transmitter
	device  remote.Device
	keyDone chan struct{}

	mu   sync.Mutex
	text []byte

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the toolbar with Connect, Settings and Clear buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	clearBtn := widget.NewButtonWithIcon("", theme.ContentClearIcon(), func() {
		state.mu.Lock()
		state.text = state.text[:0]
		state.mu.Unlock()
		state.output.SetText("")
	})

	modes := make([]string, 0, 0x20)
	for m := 0; m < 0x20; m++ {
		modes = append(modes, fmt.Sprintf("0x%02X", m))
	}
	modeSelect := widget.NewSelect(modes, func(selected string) {
		var m uint8
		if _, err := fmt.Sscanf(selected, "0x%X", &m); err == nil {
			state.mode = m
		}
	})
	modeSelect.SetSelected(fmt.Sprintf("0x%02X", state.mode))

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn, clearBtn),
		container.NewHBox(widget.NewLabel("Mode"), modeSelect),
		nil,
	)
}

// resetReceiver creates a fresh local receiver wired to the scope widget.
func (state *appState) resetReceiver() {
	state.receiver = receiver.New(state.cfg, state.table, outputWriter{state: state})
	state.watch(state.receiver)
}

// watch forwards receiver history to the scope widget.
// Throttle updates to ~60 FPS to keep the UI responsive.
func (state *appState) watch(r *receiver.Receiver) {
	const updateInterval = 16 * time.Millisecond
	r.OnUpdate(func(pulses []capture.Pulse, events []receiver.Event) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		fyne.Do(func() {
			state.scopeWidget.UpdateData(pulses, events)
		})
	})
}

// press sends a held button through the local receiver.
func (state *appState) press(button uint8) {
	q := state.cfg.Quantizer()
	f := ir.Frame{Button: button, Mode: state.mode}
	start := time.Now()

	for r := 0; r < max(state.cfg.Mock.Repeats, 1); r++ {
		for _, c := range capture.FrameCaptures(start.Add(time.Duration(r)*ir.FramePeriod), f, state.cfg.Decoder.ClockHz) {
			state.receiver.HandlePulse(capture.Classify(c, q))
		}
	}

	// The last frame is stamped in the future; flush the scope with the full train.
	state.scopeWidget.UpdateData(state.receiver.Pulses(), state.receiver.Events())
}

// appendText records a received or decoded character.
func (state *appState) appendText(c byte) {
	state.mu.Lock()
	state.text = append(state.text, c)
	text := string(state.text)
	state.mu.Unlock()

	fyne.Do(func() {
		state.output.SetText(text)
	})
}

// outputWriter receives the characters of the local receiver. They are shown
// and forwarded when a transmitter is connected.
type outputWriter struct {
	state *appState
}

var _ io.ByteWriter = outputWriter{}

func (w outputWriter) WriteByte(c byte) error {
	w.state.appendText(c)
	if tx := w.state.tx; tx != nil {
		return tx.WriteByte(c)
	}
	return nil
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.tx != nil || state.device != nil {
		state.disconnect()
		state.connectBtn.Importance = widget.MediumImportance
		state.connectBtn.Refresh()
		return
	}

	if state.useMock {
		dev := remote.NewMock(state.cfg)
		if err := dev.Connect(); err != nil {
			dialog.ShowError(fmt.Errorf("failed to start simulated remote: %w", err), state.window)
			return
		}
		state.watch(dev.Receiver())
		state.device = dev
		state.keyDone = make(chan struct{})
		go func(keys <-chan remote.Key, done chan struct{}) {
			defer close(done)
			for k := range keys {
				state.appendText(k.Char)
			}
		}(dev.Keys(), state.keyDone)
		logrus.Info("Simulated remote started")
	} else {
		tx, err := remote.OpenTransmitter(state.cfg.Serial)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
			return
		}
		state.tx = tx
		logrus.WithField("port", state.cfg.Serial.Port).Info("Forwarding keys")
	}

	state.connectBtn.Importance = widget.HighImportance
	state.connectBtn.Refresh()
}

// disconnect closes the transmitter or the simulated remote.
func (state *appState) disconnect() {
	if state.tx != nil {
		if err := state.tx.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing transmitter")
		}
		state.tx = nil
	}
	if state.device != nil {
		state.device.Close()
		<-state.keyDone
		state.device = nil
		state.keyDone = nil
		// Scope follows the local receiver again
		state.resetReceiver()
	}
}
