package ir

import "errors"

const (
	// AcceptedMode is the only mode (device address) that gets translated.
	AcceptedMode = 0x01

	// TableSize covers every 7-bit button code.
	TableSize = 1 << 7
)

// ErrButtonRange is returned for button codes that do not fit in 7 bits.
var ErrButtonRange = errors.New("button code out of range")

// Table maps button codes to characters. A zero entry means no translation.
// Table is a value type; copies never share state.
type Table [TableSize]byte

// DefaultTable returns the translation table of the TV remote.
func DefaultTable() Table {
	var t Table

	t[0x00] = '1' // Button 1
	t[0x01] = '2'
	t[0x02] = '3'
	t[0x03] = '4'
	t[0x04] = '5'
	t[0x05] = '6'
	t[0x06] = '7'
	t[0x07] = '8'
	t[0x08] = '9'
	t[0x09] = '0'

	t[0x10] = '^'  // Channel Up
	t[0x11] = 'v'  // Channel Down
	t[0x12] = '+'  // Volume Up
	t[0x13] = '-'  // Volume Down
	t[0x14] = 'm'  // Mute
	t[0x15] = 'p'  // Power
	t[0x0B] = '\n' // Enter
	t[0x3B] = 'c'  // Prev. channel, used as clear

	return t
}

// NewTable returns DefaultTable with overrides applied. A zero character
// removes a translation.
func NewTable(overrides map[uint8]byte) (Table, error) {
	t := DefaultTable()
	for button, c := range overrides {
		if int(button) >= TableSize {
			return Table{}, ErrButtonRange
		}
		t[button] = c
	}
	return t, nil
}

// Lookup returns the character for button. Only the low 7 bits are used.
func (t *Table) Lookup(button uint8) byte {
	return t[button&buttonMask]
}

// Translate applies the mode filter and the table. ok is false when the mode
// does not match or the button has no translation.
func (t *Table) Translate(m Message, mode uint8) (c byte, ok bool) {
	if m.Mode != mode {
		return 0, false
	}
	c = t.Lookup(m.Button)
	return c, c != 0
}

// Buttons returns the button codes that have a translation, in ascending order.
func (t *Table) Buttons() []uint8 {
	var out []uint8
	for i, c := range t {
		if c != 0 {
			out = append(out, uint8(i))
		}
	}
	return out
}
