package keypad

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(k *Keypad, s string) []Command {
	var out []Command
	for i := 0; i < len(s); i++ {
		if cmd, ok := k.Feed(s[i]); ok {
			out = append(out, cmd)
		}
	}
	return out
}

func TestKeypad_Feed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Command
	}{
		{
			name:  "power",
			input: "p",
			want:  []Command{{Kind: Power}},
		},
		{
			name:  "submit with newline",
			input: "12\n",
			want:  []Command{{Kind: Submit, Entry: "12"}},
		},
		{
			name:  "submit with carriage return",
			input: "7\r",
			want:  []Command{{Kind: Submit, Entry: "7"}},
		},
		{
			name:  "stations",
			input: "00\n",
			want:  []Command{{Kind: Stations}},
		},
		{
			name:  "single zero is a station number",
			input: "0\n",
			want:  []Command{{Kind: Submit, Entry: "0"}},
		},
		{
			name:  "empty entry",
			input: "\n\r",
		},
		{
			name:  "clear",
			input: "12c3\n",
			want:  []Command{{Kind: Submit, Entry: "3"}},
		},
		{
			name:  "action clears entry",
			input: "12+\n",
			want:  []Command{{Kind: Action, Key: '+'}},
		},
		{
			name:  "actions",
			input: "+-^mv",
			want: []Command{
				{Kind: Action, Key: '+'},
				{Kind: Action, Key: '-'},
				{Kind: Action, Key: '^'},
				{Kind: Action, Key: 'm'},
				{Kind: Action, Key: 'v'},
			},
		},
		{
			name:  "power keeps entry",
			input: "4p2\n",
			want:  []Command{{Kind: Power}, {Kind: Submit, Entry: "42"}},
		},
		{
			name:  "nul ignored",
			input: "1\x002\n",
			want:  []Command{{Kind: Submit, Entry: "12"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var k Keypad
			assert.Equal(t, tt.want, feedAll(&k, tt.input))
			assert.Empty(t, k.Entry())
		})
	}
}

func TestKeypad_Entry(t *testing.T) {
	var k Keypad
	feedAll(&k, "123")
	assert.Equal(t, "123", k.Entry())
	k.Reset()
	assert.Empty(t, k.Entry())
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "power", Command{Kind: Power}.String())
	assert.Equal(t, "submit 12", Command{Kind: Submit, Entry: "12"}.String())
	assert.Equal(t, "action '+'", Command{Kind: Action, Key: '+'}.String())
	assert.Equal(t, "stations", Command{Kind: Stations}.String())
	assert.Equal(t, "Kind(0)", Kind(0).String())
}

func TestCommands(t *testing.T) {
	in := make(chan byte, 16)
	for _, c := range []byte("p12\n00\n+") {
		in <- c
	}
	close(in)

	var got []Command
	for cmd := range Commands(context.Background(), in, 0) {
		got = append(got, cmd)
	}
	assert.Equal(t, []Command{
		{Kind: Power},
		{Kind: Submit, Entry: "12"},
		{Kind: Stations},
		{Kind: Action, Key: '+'},
	}, got)
}

// TestCommands_GracefulShutdown tests that the output channel closes when the
// context is cancelled while the input stays open.
func TestCommands_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan byte)
	out := Commands(ctx, in, 1)

	in <- 'p'
	cmd := <-out
	require.Equal(t, Power, cmd.Kind)

	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("Commands did not stop after cancel")
	}
}
