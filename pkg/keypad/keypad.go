// Package keypad turns the character stream of the remote receiver into
// player commands.
package keypad

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Kind identifies a command.
type Kind int

const (
	// Power toggles the player.
	Power Kind = iota + 1
	// Submit selects the station number held in Entry.
	Submit
	// Stations asks for the station list.
	Stations
	// Action forwards a single key.
	Action
)

// StationsEntry is the entry that requests the station list.
const StationsEntry = "00"

func (k Kind) String() string {
	switch k {
	case Power:
		return "power"
	case Submit:
		return "submit"
	case Stations:
		return "stations"
	case Action:
		return "action"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Command is one interpreted keypad input.
type Command struct {
	Kind  Kind
	Entry string // Digits, Submit only
	Key   byte   // Action only
}

func (c Command) String() string {
	switch c.Kind {
	case Submit:
		return fmt.Sprintf("submit %s", c.Entry)
	case Action:
		return fmt.Sprintf("action %q", c.Key)
	default:
		return c.Kind.String()
	}
}

// Keypad accumulates digits into an entry. It is not safe for concurrent use.
type Keypad struct {
	entry []byte
}

// Feed interprets one character. ok is false when c produces no command.
func (k *Keypad) Feed(c byte) (cmd Command, ok bool) {
	switch {
	case c == 0:
		return Command{}, false
	case c == 'p':
		return Command{Kind: Power}, true
	case c >= '0' && c <= '9':
		k.entry = append(k.entry, c)
		return Command{}, false
	case c == '\n' || c == '\r':
		entry := string(k.entry)
		k.Reset()
		switch entry {
		case "":
			return Command{}, false
		case StationsEntry:
			return Command{Kind: Stations}, true
		default:
			return Command{Kind: Submit, Entry: entry}, true
		}
	case c == 'c':
		k.Reset()
		return Command{}, false
	default:
		k.Reset()
		return Command{Kind: Action, Key: c}, true
	}
}

// Entry returns the digits entered so far.
func (k *Keypad) Entry() string {
	return string(k.entry)
}

// Reset clears the entry.
func (k *Keypad) Reset() {
	k.entry = k.entry[:0]
}

// Commands interprets characters from in until it closes or ctx is done.
// The output channel is closed when the goroutine exits.
func Commands(ctx context.Context, in <-chan byte, bufSize int) <-chan Command {
	if bufSize <= 0 {
		bufSize = 10
	}
	out := make(chan Command, bufSize)

	go func() {
		defer close(out)

		var k Keypad
		for {
			var (
				c  byte
				ok bool
			)
			select {
			case <-ctx.Done():
				return
			case c, ok = <-in:
				if !ok {
					return
				}
			}

			cmd, ok := k.Feed(c)
			if !ok {
				logrus.WithField("entry", k.Entry()).Debug("Keypad input")
				continue
			}
			select {
			case out <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
