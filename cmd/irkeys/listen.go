package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itohio/irkeys/pkg/keypad"
	"github.com/itohio/irkeys/pkg/player"
	"github.com/itohio/irkeys/pkg/remote"
)

var (
	listenPort   string
	listenMock   bool
	listenPlayer bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print keys from the receiver and optionally drive the player",
	Long: `Listen for characters sent by the receiver MCU.

Every key is printed as it arrives. With --player the keys are interpreted as
keypad input: p toggles the player, digits followed by ENTER select a station,
00 ENTER lists the stations and the remaining keys control playback.

With --mock no serial port is opened; a simulated remote presses the buttons
listed in the mock section of the configuration.`,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVarP(&listenPort, "port", "p", "", "Serial port device (overrides config)")
	listenCmd.Flags().BoolVar(&listenMock, "mock", false, "Use a simulated remote instead of the serial port")
	listenCmd.Flags().BoolVar(&listenPlayer, "player", false, "Drive the media player with the received keys")
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var dev remote.Device
	if listenMock {
		dev = remote.NewMock(cfg)
	} else {
		serialCfg := cfg.Serial
		if listenPort != "" {
			serialCfg.Port = listenPort
		}
		dev = remote.New(serialCfg, remote.DefaultBufferSize)
	}

	if err := dev.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer dev.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("irkeys - listening"))
	fmt.Fprintln(out, dimStyle.Render("Press Ctrl+C to exit"))

	var chars chan byte
	done := make(chan error, 1)
	if listenPlayer {
		chars = make(chan byte, remote.DefaultBufferSize)
		p := player.New(cfg.Player, &player.ProcessLauncher{
			Command: cfg.Player.Command,
			Args:    cfg.Player.Args,
		}, player.NewAnnouncer(cfg.Player.SpeechCommand))

		announce(ctx, player.NewAnnouncer(cfg.Player.SpeechCommand), player.MsgRunning)
		go func() {
			done <- p.Run(ctx, keypad.Commands(ctx, chars, 0))
		}()
	} else {
		close(done)
	}

	err := printKeys(ctx, out, dev.Keys(), chars)
	if chars != nil {
		close(chars)
	}
	if perr := <-done; perr != nil && !errors.Is(perr, context.Canceled) {
		logrus.WithError(perr).Warn("Player stopped")
	}
	return err
}

// printKeys prints keys until ctx is done or the device closes its channel.
// Keys are forwarded to fwd when it is not nil.
func printKeys(ctx context.Context, w io.Writer, keys <-chan remote.Key, fwd chan<- byte) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "%s %s\n", dimStyle.Render(k.Timestamp.Format("15:04:05.000")), keyStyle.Render(keyName(k.Char)))
			if fwd == nil {
				continue
			}
			select {
			case fwd <- k.Char:
			default:
				logrus.Warn("Player is not keeping up, dropping key")
			}
		}
	}
}

func announce(ctx context.Context, a player.Announcer, text string) {
	if err := a.Announce(ctx, text); err != nil {
		logrus.WithError(err).Warn("Failed to announce")
	}
}
