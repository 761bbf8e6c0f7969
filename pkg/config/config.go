package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/irkeys/pkg/ir"
)

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig     `yaml:"serial"`
	Decoder DecoderConfig    `yaml:"decoder"`
	Keymap  map[uint8]string `yaml:"keymap,omitempty"` // Button code -> character overrides
	Player  PlayerConfig     `yaml:"player"`
	Mock    MockConfig       `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	Parity   string `yaml:"parity"` // none, odd, even
	StopBits int    `yaml:"stop_bits"`
	DataBits int    `yaml:"data_bits"`
}

// DecoderConfig contains pulse classification and receiver parameters.
type DecoderConfig struct {
	K             uint64        `yaml:"k"`
	Denom         uint64        `yaml:"denom"`
	ClockHz       uint64        `yaml:"clock_hz"` // Timer clock used for synthetic captures
	Mode          uint8         `yaml:"mode"`
	DeadTime      time.Duration `yaml:"dead_time"`
	HistoryWindow time.Duration `yaml:"history_window"`
}

// PlayerConfig contains media player control configuration.
type PlayerConfig struct {
	Command       string        `yaml:"command"`
	Args          []string      `yaml:"args"`
	SpeechCommand string        `yaml:"speech_command"` // Empty disables speech
	SkipLines     int           `yaml:"skip_lines"`     // Banner lines to discard after start
	StationQuiet  time.Duration `yaml:"station_quiet"`
}

// MockConfig contains simulated remote configuration.
type MockConfig struct {
	Sequence      []int         `yaml:"sequence"` // Button codes pressed in a loop
	Mode          uint8         `yaml:"mode"`
	PressInterval time.Duration `yaml:"press_interval"`
	Repeats       int           `yaml:"repeats"`    // Frames sent per press
	Jitter        float64       `yaml:"jitter"`     // Relative standard deviation of mark lengths
	NoiseRate     float64       `yaml:"noise_rate"` // Probability of a noise mark before each frame
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyAMA0",
			BaudRate: 9600,
			Parity:   "even",
			StopBits: 1,
			DataBits: 8,
		},
		Decoder: DecoderConfig{
			K:             ir.DefaultQuantizer.K,
			Denom:         ir.DefaultQuantizer.Denom,
			ClockHz:       ir.ClockHz,
			Mode:          ir.AcceptedMode,
			DeadTime:      100 * time.Millisecond,
			HistoryWindow: 5 * time.Second,
		},
		Player: PlayerConfig{
			Command:       "pianobar",
			SpeechCommand: "",
			SkipLines:     6,
			StationQuiet:  500 * time.Millisecond,
		},
		Mock: MockConfig{
			Sequence:      []int{0x00, 0x01, 0x0B, 0x12, 0x13, 0x10, 0x14},
			Mode:          ir.AcceptedMode,
			PressInterval: time.Second,
			Repeats:       3,
			Jitter:        0.03,
			NoiseRate:     0.1,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Serial.Parity) {
	case "none", "odd", "even":
	default:
		return fmt.Errorf("unknown parity %q", c.Serial.Parity)
	}
	if c.Decoder.Mode > 0x1F {
		return fmt.Errorf("mode 0x%02X does not fit in 5 bits", c.Decoder.Mode)
	}
	if _, err := c.Table(); err != nil {
		return err
	}
	return nil
}

// Quantizer returns the classifier constants.
func (c *Config) Quantizer() ir.Quantizer {
	return ir.Quantizer{K: c.Decoder.K, Denom: c.Decoder.Denom}
}

// Table builds the translation table from the defaults and the keymap
// overrides. An empty string removes a translation.
func (c *Config) Table() (ir.Table, error) {
	overrides := make(map[uint8]byte, len(c.Keymap))
	for button, s := range c.Keymap {
		if len(s) > 1 {
			return ir.Table{}, fmt.Errorf("keymap 0x%02X: %q is not a single character", button, s)
		}
		var ch byte
		if len(s) == 1 {
			ch = s[0]
		}
		overrides[button] = ch
	}

	t, err := ir.NewTable(overrides)
	if err != nil {
		return ir.Table{}, fmt.Errorf("keymap: %w", err)
	}
	return t, nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.Parity == "" {
		c.Serial.Parity = def.Serial.Parity
	}
	if c.Serial.StopBits == 0 {
		c.Serial.StopBits = def.Serial.StopBits
	}
	if c.Serial.DataBits == 0 {
		c.Serial.DataBits = def.Serial.DataBits
	}

	if c.Decoder.K == 0 {
		c.Decoder.K = def.Decoder.K
	}
	if c.Decoder.Denom == 0 {
		c.Decoder.Denom = def.Decoder.Denom
	}
	if c.Decoder.ClockHz == 0 {
		c.Decoder.ClockHz = def.Decoder.ClockHz
	}
	if c.Decoder.Mode == 0 {
		c.Decoder.Mode = def.Decoder.Mode
	}
	if c.Decoder.HistoryWindow == 0 {
		c.Decoder.HistoryWindow = def.Decoder.HistoryWindow
	}

	if c.Player.Command == "" {
		c.Player.Command = def.Player.Command
	}
	if c.Player.StationQuiet == 0 {
		c.Player.StationQuiet = def.Player.StationQuiet
	}

	if len(c.Mock.Sequence) == 0 {
		c.Mock.Sequence = def.Mock.Sequence
	}
	if c.Mock.Mode == 0 {
		c.Mock.Mode = def.Mock.Mode
	}
	if c.Mock.PressInterval == 0 {
		c.Mock.PressInterval = def.Mock.PressInterval
	}
	if c.Mock.Repeats == 0 {
		c.Mock.Repeats = def.Mock.Repeats
	}
}
