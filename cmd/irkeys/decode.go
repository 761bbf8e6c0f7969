package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/itohio/irkeys/pkg/capture"
	"github.com/itohio/irkeys/pkg/receiver"
)

var decodeStats bool

var decodeCmd = &cobra.Command{
	Use:   "decode [FILE]",
	Short: "Decode a capture dump",
	Long: `Run a capture dump through the pulse classifier and the receiver.

Each line of the dump holds one mark length in timer ticks, optionally
preceded by a timestamp in unix microseconds: "unix_micros,ticks".
Lines without a timestamp get a synthetic one: marks follow each other and
every START mark opens a new press past the dead time.
Without FILE, or with "-", the dump is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeStats, "stats", false, "Print receiver statistics")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open capture dump: %w", err)
		}
		defer f.Close()
		in = f
	}

	table, err := cfg.Table()
	if err != nil {
		return err
	}

	// Keep the whole history, the dump is replayed at once.
	c := *cfg
	c.Decoder.HistoryWindow = 0
	r := receiver.New(&c, table, nil)

	// Bare tick lines carry no timing; each START-led group is spaced past
	// the dead time so it decodes as its own press.
	clock := capture.NewClock(c.Decoder.ClockHz, c.Quantizer(), c.Decoder.DeadTime)
	captures := capture.Scan(cmd.Context(), in, clock, 0)
	r.ProcessPulses(capture.NewConverter(c.Quantizer(), 0)(captures))

	out := cmd.OutOrStdout()
	var text []byte
	for _, ev := range r.Events() {
		fmt.Fprintln(out, formatEvent(ev))
		if ev.Accepted && ev.Char != 0 {
			text = append(text, ev.Char)
		}
	}
	fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Keys:"), strconv.Quote(string(text)))

	if decodeStats {
		fmt.Fprintln(out, formatStats(r.Stats()))
	}
	return nil
}
