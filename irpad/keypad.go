package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// buttonLabel returns the label of a remote button with the given translation.
func buttonLabel(c byte) string {
	switch c {
	case '\n':
		return "Enter"
	case 'c':
		return "Prev Ch"
	case 'p':
		return "Power"
	case 'm':
		return "Mute"
	case '^':
		return "Ch +"
	case 'v':
		return "Ch -"
	case '+':
		return "Vol +"
	case '-':
		return "Vol -"
	}
	if c < 0x20 || c > 0x7E {
		return fmt.Sprintf("0x%02X", c)
	}
	return string(rune(c))
}

// createKeypad creates one button per translated remote button.
func createKeypad(state *appState) fyne.CanvasObject {
	buttons := state.table.Buttons()
	objects := make([]fyne.CanvasObject, 0, len(buttons))

	for _, b := range buttons {
		button := b
		btn := widget.NewButton(buttonLabel(state.table.Lookup(button)), func() {
			state.press(button)
		})
		if state.table.Lookup(button) == 'p' {
			btn.Importance = widget.DangerImportance
		}
		objects = append(objects, btn)
	}

	return container.NewGridWithColumns(3, objects...)
}
