package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/itohio/irkeys/pkg/capture"
	"github.com/itohio/irkeys/pkg/ir"
)

var (
	encodeMode    uint8
	encodeRepeats int
	encodeGap     time.Duration
)

var encodeCmd = &cobra.Command{
	Use:   "encode BUTTON...",
	Short: "Write the captures of remote button presses as a capture dump",
	Long: `Encode button presses into the capture dump format read by decode.

A button is a single character from the keymap, a key name such as ENTER or
POWER, or a button code (decimal, 0x hex). A single character always means the
mapped key: "1" is the '1' key, write 0x01 for button code 1. Each press is sent --repeats times at the
45ms frame period, as a held button would.`,
	Example: `  irkeys encode 0x12 1 2 ENTER > presses.txt
  irkeys decode presses.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().Uint8Var(&encodeMode, "mode", ir.AcceptedMode, "Mode field of the frames")
	encodeCmd.Flags().IntVar(&encodeRepeats, "repeats", 1, "Frames per press")
	encodeCmd.Flags().DurationVar(&encodeGap, "gap", 250*time.Millisecond, "Time between presses")
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	table, err := cfg.Table()
	if err != nil {
		return err
	}

	buttons := make([]uint8, 0, len(args))
	for _, arg := range args {
		b, err := parseButton(arg, &table)
		if err != nil {
			return err
		}
		buttons = append(buttons, b)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# irkeys encode mode=0x%02X clock=%d\n", encodeMode, cfg.Decoder.ClockHz)

	at := time.UnixMicro(0)
	for _, b := range buttons {
		f := ir.Frame{Button: b, Mode: encodeMode}
		for r := 0; r < max(encodeRepeats, 1); r++ {
			for _, c := range capture.FrameCaptures(at.Add(time.Duration(r)*ir.FramePeriod), f, cfg.Decoder.ClockHz) {
				fmt.Fprintln(out, capture.FormatLine(c))
			}
		}
		at = at.Add(max(encodeGap, time.Duration(max(encodeRepeats, 1))*ir.FramePeriod))
	}
	return nil
}

// parseButton resolves a mapped character, a key name or a button code.
// Single characters are looked up in the keymap first, so "1" is the '1' key.
func parseButton(s string, table *ir.Table) (uint8, error) {
	var want byte
	switch {
	case len(s) == 1:
		want = s[0]
	default:
		for c := 0; c < 0x80; c++ {
			if strings.EqualFold(keyName(byte(c)), s) {
				want = byte(c)
				break
			}
		}
	}
	if want != 0 {
		for _, b := range table.Buttons() {
			if table.Lookup(b) == want {
				return b, nil
			}
		}
	}

	if v, err := strconv.ParseUint(s, 0, 8); err == nil {
		if v >= ir.TableSize {
			return 0, fmt.Errorf("button %s: %w", s, ir.ErrButtonRange)
		}
		return uint8(v), nil
	}
	return 0, fmt.Errorf("unknown button %q", s)
}
