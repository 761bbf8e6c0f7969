package player

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Announcer speaks short messages to the user.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// LogAnnouncer only logs the messages.
type LogAnnouncer struct{}

// Announce logs text.
func (LogAnnouncer) Announce(_ context.Context, text string) error {
	logrus.WithField("text", text).Info("Announce")
	return nil
}

// CommandAnnouncer runs an external speech command with the text appended as
// the last argument.
type CommandAnnouncer struct {
	Command string
	Args    []string
}

// NewAnnouncer returns a CommandAnnouncer for a command line such as
// "sudo ./speech.sh", or a LogAnnouncer when the command line is empty.
func NewAnnouncer(commandLine string) Announcer {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return LogAnnouncer{}
	}
	return &CommandAnnouncer{Command: fields[0], Args: fields[1:]}
}

// Announce runs the speech command and waits for it to finish.
func (a *CommandAnnouncer) Announce(ctx context.Context, text string) error {
	args := append(append([]string{}, a.Args...), text)
	logrus.WithField("text", text).Debug("Announce")

	out, err := exec.CommandContext(ctx, a.Command, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("speech command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
