package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/irkeys/pkg/remote"
	"github.com/itohio/irkeys/pkg/scope"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createDecoderTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(500, 400))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(500, 400))
	d.Show()
}

// saveConfig writes the configuration file and reports errors in a dialog.
func saveConfig(state *appState) bool {
	if err := state.cfg.Save(state.configFile); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return false
	}
	return true
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := remote.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	paritySelect := widget.NewSelect([]string{"even", "odd", "none"}, nil)
	paritySelect.SetSelected(state.cfg.Serial.Parity)

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
			{Text: "Parity", Widget: paritySelect},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				selected := portMap[portSelect.Selected]
				if selected == "" {
					selected = portSelect.Selected
				}
				state.cfg.Serial.Port = selected
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.BaudRate = baud
			}
			if paritySelect.Selected != "" {
				state.cfg.Serial.Parity = paritySelect.Selected
			}
			if !saveConfig(state) {
				return
			}

			// Reopen the port with the new settings
			if state.tx != nil {
				state.disconnect()
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createDecoderTab creates the Decoder configuration tab.
func createDecoderTab(state *appState) *container.TabItem {
	deadTimeEntry := widget.NewEntry()
	deadTimeEntry.SetText(state.cfg.Decoder.DeadTime.String())

	historyEntry := widget.NewEntry()
	historyEntry.SetText(state.cfg.Decoder.HistoryWindow.String())

	spanEntry := widget.NewEntry()
	spanEntry.SetText(scope.DefaultSpan.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Dead Time", Widget: deadTimeEntry},
			{Text: "History Window", Widget: historyEntry},
			{Text: "Scope Span", Widget: spanEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(deadTimeEntry.Text); err == nil && d >= 0 {
				state.cfg.Decoder.DeadTime = d
			}
			if d, err := time.ParseDuration(historyEntry.Text); err == nil && d > 0 {
				state.cfg.Decoder.HistoryWindow = d
			}
			if d, err := time.ParseDuration(spanEntry.Text); err == nil {
				state.scopeWidget.SetSpan(d)
			}
			if !saveConfig(state) {
				return
			}
			// Recreate the receiver with new config
			if state.device == nil {
				state.resetReceiver()
			}
		},
	}

	return container.NewTabItem("Decoder", form)
}

// createMockTab creates the simulated remote configuration tab.
func createMockTab(state *appState) *container.TabItem {
	intervalEntry := widget.NewEntry()
	intervalEntry.SetText(state.cfg.Mock.PressInterval.String())

	repeatsEntry := widget.NewEntry()
	repeatsEntry.SetText(strconv.Itoa(state.cfg.Mock.Repeats))

	jitterEntry := widget.NewEntry()
	jitterEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.Jitter))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.NoiseRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Press Interval", Widget: intervalEntry},
			{Text: "Repeats", Widget: repeatsEntry},
			{Text: "Jitter (relative)", Widget: jitterEntry},
			{Text: "Noise Rate", Widget: noiseEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(intervalEntry.Text); err == nil && d > 0 {
				state.cfg.Mock.PressInterval = d
			}
			if n, err := strconv.Atoi(repeatsEntry.Text); err == nil && n > 0 {
				state.cfg.Mock.Repeats = n
			}
			if j, err := strconv.ParseFloat(jitterEntry.Text, 64); err == nil && j >= 0 {
				state.cfg.Mock.Jitter = j
			}
			if nr, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil && nr >= 0 && nr <= 1 {
				state.cfg.Mock.NoiseRate = nr
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}
