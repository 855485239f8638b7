package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pkt.systems/pslog"

	"github.com/dshills/serialterm/internal/packet"
	"github.com/dshills/serialterm/internal/refresh"
	"github.com/dshills/serialterm/internal/terminal"
	"github.com/dshills/serialterm/internal/transport"
)

// Duration is a time.Duration written as a string such as "200ms".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the complete serialterm configuration.
type Config struct {
	Serial  SerialConfig  `toml:"serial"`
	Buffer  BufferConfig  `toml:"buffer"`
	Screen  ScreenConfig  `toml:"screen"`
	Display DisplayConfig `toml:"display"`
	Logging LoggingConfig `toml:"logging"`
	Capture CaptureConfig `toml:"capture"`
}

// SerialConfig holds serial line settings.
type SerialConfig struct {
	Device      string   `toml:"device"`
	Baud        int      `toml:"baud"`
	ReadTimeout Duration `toml:"read_timeout"`
	DataBits    int      `toml:"data_bits"`
	Parity      string   `toml:"parity"`
	StopBits    int      `toml:"stop_bits"`
}

// BufferConfig holds packet store settings.
type BufferConfig struct {
	MaxPacketSize   int      `toml:"max_packet_size"`
	MaxTotalSize    int      `toml:"max_total_size"`
	PacketWindow    Duration `toml:"packet_window"`
	NotifyThreshold int      `toml:"notify_threshold"`
}

// ScreenConfig holds line buffer settings.
type ScreenConfig struct {
	Width            int  `toml:"width"`
	Height           int  `toml:"height"`
	SizeUpperBound   int  `toml:"size_upper_bound"`
	TrimHysteresis   int  `toml:"trim_hysteresis"`
	MaxLines         int  `toml:"max_lines"`
	ShowControlChars bool `toml:"show_control_chars"`
	ResetClearsStyle bool `toml:"reset_clears_style"`
}

// DisplayConfig holds rendering settings.
type DisplayConfig struct {
	RefreshInterval Duration `toml:"refresh_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `toml:"level"`

	// File receives log output while the full-screen UI owns the
	// terminal. Empty discards it.
	File string `toml:"file"`
}

// CaptureConfig holds session capture settings. An empty path disables
// capturing.
type CaptureConfig struct {
	Path     string `toml:"path"`
	Compress bool   `toml:"compress"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Baud:        transport.DefaultBaud,
			ReadTimeout: Duration(transport.DefaultReadTimeout),
			DataBits:    transport.DefaultDataBits,
			Parity:      "none",
			StopBits:    1,
		},
		Buffer: BufferConfig{
			MaxPacketSize:   packet.DefaultMaxPacketSize,
			MaxTotalSize:    packet.DefaultMaxTotalSize,
			PacketWindow:    Duration(packet.DefaultPacketWindow),
			NotifyThreshold: packet.DefaultNotifyThreshold,
		},
		Screen: ScreenConfig{
			Width:            terminal.DefaultWidth,
			Height:           terminal.DefaultHeight,
			SizeUpperBound:   terminal.DefaultSizeUpperBound,
			TrimHysteresis:   terminal.DefaultTrimHysteresis,
			MaxLines:         terminal.DefaultMaxLines,
			ResetClearsStyle: true,
		},
		Display: DisplayConfig{
			RefreshInterval: Duration(refresh.DefaultInterval),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks every setting and returns all problems found.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, path, format string, args ...any) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
		}
	}

	check(c.Serial.Baud > 0, "serial.baud", "must be positive, got %d", c.Serial.Baud)
	check(c.Serial.ReadTimeout >= 0, "serial.read_timeout", "must not be negative")
	check(c.Serial.DataBits >= 5 && c.Serial.DataBits <= 8, "serial.data_bits", "must be 5-8, got %d", c.Serial.DataBits)
	check(c.Serial.StopBits == 1 || c.Serial.StopBits == 2, "serial.stop_bits", "must be 1 or 2, got %d", c.Serial.StopBits)
	_, err := transport.ParseParity(c.Serial.Parity)
	check(err == nil, "serial.parity", "unknown parity %q", c.Serial.Parity)

	check(c.Buffer.MaxPacketSize > 0, "buffer.max_packet_size", "must be positive, got %d", c.Buffer.MaxPacketSize)
	check(c.Buffer.MaxTotalSize >= c.Buffer.MaxPacketSize, "buffer.max_total_size", "must be at least max_packet_size, got %d", c.Buffer.MaxTotalSize)
	check(c.Buffer.PacketWindow >= 0, "buffer.packet_window", "must not be negative")
	check(c.Buffer.NotifyThreshold > 0, "buffer.notify_threshold", "must be positive, got %d", c.Buffer.NotifyThreshold)

	check(c.Screen.Width >= 2, "screen.width", "must be at least 2, got %d", c.Screen.Width)
	check(c.Screen.Height >= 1, "screen.height", "must be positive, got %d", c.Screen.Height)
	check(c.Screen.SizeUpperBound > 0, "screen.size_upper_bound", "must be positive, got %d", c.Screen.SizeUpperBound)
	check(c.Screen.TrimHysteresis >= 0, "screen.trim_hysteresis", "must not be negative, got %d", c.Screen.TrimHysteresis)
	check(c.Screen.MaxLines >= c.Screen.Height, "screen.max_lines", "must be at least screen.height, got %d", c.Screen.MaxLines)

	check(c.Display.RefreshInterval > 0, "display.refresh_interval", "must be positive")

	check(knownLevel(c.Logging.Level), "logging.level", "unknown level %q", c.Logging.Level)

	return errors.Join(errs...)
}

// LogOptions applies the configured level to base.
func (c Config) LogOptions(base pslog.Options) pslog.Options {
	switch strings.ToLower(c.Logging.Level) {
	case "trace":
		base.MinLevel = pslog.TraceLevel
	case "debug":
		base.MinLevel = pslog.DebugLevel
	case "warn", "warning":
		base.MinLevel = pslog.WarnLevel
	case "error":
		base.MinLevel = pslog.ErrorLevel
	default:
		base.MinLevel = pslog.InfoLevel
	}
	return base
}

func knownLevel(name string) bool {
	switch strings.ToLower(name) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

// TransportConfig returns the serial settings for the transport package.
func (c Config) TransportConfig() transport.Config {
	return transport.Config{
		Device:      c.Serial.Device,
		Baud:        c.Serial.Baud,
		ReadTimeout: c.Serial.ReadTimeout.Std(),
		DataBits:    c.Serial.DataBits,
		Parity:      c.Serial.Parity,
		StopBits:    c.Serial.StopBits,
	}
}

// StoreOptions returns the packet store options.
func (c Config) StoreOptions() []packet.Option {
	return []packet.Option{
		packet.WithMaxPacketSize(c.Buffer.MaxPacketSize),
		packet.WithMaxTotalSize(c.Buffer.MaxTotalSize),
		packet.WithPacketWindow(c.Buffer.PacketWindow.Std()),
		packet.WithNotifyThreshold(c.Buffer.NotifyThreshold),
	}
}

// ScreenOptions returns the screen options. Callers add the reply, bell,
// store and logger collaborators.
func (c Config) ScreenOptions() terminal.ScreenOptions {
	return terminal.ScreenOptions{
		Width:            c.Screen.Width,
		Height:           c.Screen.Height,
		SizeUpperBound:   c.Screen.SizeUpperBound,
		TrimHysteresis:   c.Screen.TrimHysteresis,
		MaxLines:         c.Screen.MaxLines,
		ShowControlChars: c.Screen.ShowControlChars,
		ResetClearsStyle: c.Screen.ResetClearsStyle,
	}
}
