// Package player drives a console media player from keypad commands.
package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itohio/irkeys/pkg/config"
	"github.com/itohio/irkeys/pkg/keypad"
)

// Messages spoken to the user.
const (
	MsgRunning    = "Remote Pandora Running"
	MsgPlaying    = "Playing Pandora"
	MsgGoodbye    = "Good bye"
	MsgEnterInput = "Please enter a station number"
)

// ErrNotRunning is returned for commands that need a running player.
var ErrNotRunning = errors.New("player is not running")

// actions maps remote keys to player keystrokes.
var actions = map[byte]string{
	'+': ")", // volume up
	'-': "(", // volume down
	'^': "n", // next song
	'm': "p", // pause
	'v': "-", // ban song
}

// Keystroke returns the player input for an action key.
func Keystroke(key byte) (string, bool) {
	s, ok := actions[key]
	return s, ok
}

// StationName extracts the station name from a station list line, which is
// the text after the last double space.
func StationName(line string) string {
	line = strings.TrimRight(line, "\r\n")
	if i := strings.LastIndex(line, "  "); i >= 0 {
		line = line[i+2:]
	}
	return strings.TrimSpace(line)
}

// Player owns at most one player session. Commands are handled one at a time.
type Player struct {
	cfg       config.PlayerConfig
	launcher  Launcher
	announcer Announcer

	mu      sync.Mutex
	session Session
	skip    int // Banner lines still to discard
}

// New creates a Player. A nil announcer only logs.
func New(cfg config.PlayerConfig, launcher Launcher, announcer Announcer) *Player {
	if announcer == nil {
		announcer = LogAnnouncer{}
	}
	return &Player{
		cfg:       cfg,
		launcher:  launcher,
		announcer: announcer,
	}
}

// Running reports whether a session is active.
func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil
}

// Run handles commands until cmds closes or ctx is done, then stops the player.
func (p *Player) Run(ctx context.Context, cmds <-chan keypad.Command) error {
	defer func() {
		if err := p.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to stop player")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			if err := p.Handle(ctx, cmd); err != nil {
				log := logrus.WithField("command", cmd.String()).WithError(err)
				if errors.Is(err, ErrNotRunning) {
					log.Debug("Command ignored")
				} else {
					log.Warn("Command failed")
				}
			}
		}
	}
}

// Handle executes a single command.
func (p *Player) Handle(ctx context.Context, cmd keypad.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	logrus.WithField("command", cmd.String()).Debug("Player command")

	if cmd.Kind == keypad.Power {
		if p.session != nil {
			return p.stop(ctx)
		}
		return p.start(ctx)
	}

	if p.session == nil {
		return ErrNotRunning
	}

	switch cmd.Kind {
	case keypad.Action:
		s, ok := Keystroke(cmd.Key)
		if !ok {
			logrus.WithField("key", string(rune(cmd.Key))).Debug("Key has no player action")
			return nil
		}
		return p.write(s)
	case keypad.Submit:
		return p.write("\ns" + cmd.Entry + "\n")
	case keypad.Stations:
		return p.stations(ctx)
	default:
		return fmt.Errorf("unknown command %v", cmd.Kind)
	}
}

// Close stops a running session.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil
	}
	err := p.session.Close()
	p.session = nil
	return err
}

func (p *Player) start(ctx context.Context) error {
	p.announce(ctx, MsgPlaying)

	session, err := p.launcher.Launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	p.session = session
	p.skip = p.cfg.SkipLines
	return nil
}

func (p *Player) stop(ctx context.Context) error {
	err := p.session.Close()
	p.session = nil
	if err != nil {
		err = fmt.Errorf("failed to stop player: %w", err)
	}
	p.announce(ctx, MsgGoodbye)
	return err
}

func (p *Player) write(s string) error {
	if _, err := p.session.Write([]byte(s)); err != nil {
		return fmt.Errorf("failed to write to player: %w", err)
	}
	return nil
}

// stations lists the stations and speaks them with their numbers.
func (p *Player) stations(ctx context.Context) error {
	lines := p.session.Lines()

	// discard output produced before the request
	for drained := false; !drained; {
		select {
		case _, ok := <-lines:
			if !ok {
				drained = true
				break
			}
			p.skipLine()
		default:
			drained = true
		}
	}

	if err := p.write("ps"); err != nil {
		return err
	}

	var names []string
	timer := time.NewTimer(p.cfg.StationQuiet)
	defer timer.Stop()
collect:
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				break collect
			}
			if p.skipLine() {
				continue
			}
			if name := StationName(line); name != "" {
				names = append(names, name)
			}
			timer.Reset(p.cfg.StationQuiet)
		case <-timer.C:
			break collect
		}
	}

	for i, name := range names {
		p.announce(ctx, fmt.Sprintf("%s.  Number %d", name, i))
	}
	p.announce(ctx, MsgEnterInput)
	return nil
}

// skipLine reports whether the current line belongs to the banner.
func (p *Player) skipLine() bool {
	if p.skip > 0 {
		p.skip--
		return true
	}
	return false
}

func (p *Player) announce(ctx context.Context, text string) {
	if err := p.announcer.Announce(ctx, text); err != nil {
		logrus.WithError(err).Warn("Failed to announce")
	}
}
