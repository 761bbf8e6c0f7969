package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultLineBuffer is the number of output lines kept while nobody reads them.
const DefaultLineBuffer = 256

// Session is a running player process.
type Session interface {
	io.Writer // Player stdin
	Lines() <-chan string
	Close() error
}

// Launcher starts player sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// ProcessLauncher starts the player as a child process.
type ProcessLauncher struct {
	Command string
	Args    []string
}

var _ Launcher = (*ProcessLauncher)(nil)

// Launch starts the process with piped stdin and stdout.
func (l *ProcessLauncher) Launch(ctx context.Context) (Session, error) {
	cmd := exec.CommandContext(ctx, l.Command, l.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open player stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open player stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", l.Command, err)
	}

	s := &process{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, DefaultLineBuffer),
		done:  make(chan struct{}),
	}
	go s.readLines(stdout)

	logrus.WithFields(logrus.Fields{
		"command": l.Command,
		"pid":     cmd.Process.Pid,
	}).Info("Player started")
	return s, nil
}

type process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	done  chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func (s *process) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

func (s *process) Lines() <-chan string {
	return s.lines
}

// Close kills the process and waits for it to exit.
func (s *process) Close() error {
	s.closeOnce.Do(func() {
		_ = s.stdin.Close()
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.closeErr = fmt.Errorf("failed to kill player: %w", err)
			return
		}
		<-s.done
		// Exit status after a kill is expected to be an error.
		_ = s.cmd.Wait()
	})
	return s.closeErr
}

// readLines forwards stdout lines, dropping them when nobody keeps up.
func (s *process) readLines(r io.Reader) {
	defer close(s.done)
	defer close(s.lines)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		select {
		case s.lines <- line:
		default:
			logrus.Debug("Player output buffer full, dropping line")
		}
	}
	if err := scanner.Err(); err != nil {
		logrus.WithError(err).Debug("Player output closed")
	}
}
