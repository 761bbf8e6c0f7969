package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/itohio/irkeys/pkg/receiver"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	keyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("10")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Width(14)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// keyName returns a printable name for a received character.
func keyName(c byte) string {
	switch c {
	case '\n':
		return "ENTER"
	case '\r':
		return "CR"
	case 'p':
		return "POWER"
	case 'c':
		return "CLEAR"
	case '^':
		return "UP"
	case 'v':
		return "DOWN"
	case 'm':
		return "MUTE"
	}
	if c < 0x20 || c > 0x7E {
		return fmt.Sprintf("0x%02X", c)
	}
	return string(rune(c))
}

// formatEvent renders one receiver event on a single line.
func formatEvent(ev receiver.Event) string {
	ts := dimStyle.Render(ev.Timestamp.Format("15:04:05.000"))
	msg := fmt.Sprintf("button=0x%02X mode=0x%02X", ev.Message.Button, ev.Message.Mode)

	switch {
	case !ev.Accepted:
		return fmt.Sprintf("%s %s %s", ts, msg, warningStyle.Render("foreign mode"))
	case ev.Char == 0:
		return fmt.Sprintf("%s %s %s", ts, msg, warningStyle.Render("no translation"))
	default:
		return fmt.Sprintf("%s %s %s", ts, msg, keyStyle.Render(keyName(ev.Char)))
	}
}

// formatStats renders the receiver counters in a box.
func formatStats(s receiver.Stats) string {
	rows := []struct {
		label string
		value uint64
	}{
		{"Pulses", s.Pulses},
		{"Starts", s.Starts},
		{"Ones", s.Ones},
		{"Zeros", s.Zeros},
		{"Ignored", s.Ignored},
		{"Dropped bits", s.DroppedBits},
		{"Restarts", s.Restarts},
		{"Suppressed", s.Suppressed},
		{"Messages", s.Messages},
		{"Foreign mode", s.RejectedMode},
		{"Untranslated", s.Untranslated},
		{"Emitted", s.Emitted},
		{"Emit errors", s.EmitErrors},
	}

	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(statsLabelStyle.Render(r.label))
		b.WriteString(statsValueStyle.Render(fmt.Sprint(r.value)))
	}
	return boxStyle.Render(b.String())
}
