package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// EnvLoader applies environment variable overrides.
type EnvLoader struct {
	prefix  string            // e.g. "SERIALTERM_"
	mapping map[string]string // env var -> config path
	lookup  func(string) (string, bool)
}

// NewEnvLoader creates a loader reading the process environment.
// The prefix should include the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		lookup:  os.LookupEnv,
	}
}

// NewEnvLoaderWithLookup creates a loader reading variables through lookup.
func NewEnvLoaderWithLookup(prefix string, lookup func(string) (string, bool)) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.lookup = lookup
	return l
}

// defaultEnvMapping returns the variables that do not follow the
// SECTION_KEY naming.
func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "DEVICE":    "serial.device",
		prefix + "BAUD":      "serial.baud",
		prefix + "LOG_LEVEL": "logging.level",
	}
}

// Apply sets every configured override on cfg. A variable holding a value
// of the wrong type is an error.
func (l *EnvLoader) Apply(cfg *Config) error {
	type entry struct{ env, path string }

	entries := make([]entry, 0, len(setters)+len(l.mapping))
	for _, path := range slices.Sorted(maps.Keys(setters)) {
		entries = append(entries, entry{l.pathToEnv(path), path})
	}
	// Short aliases win over the section names.
	for _, env := range slices.Sorted(maps.Keys(l.mapping)) {
		entries = append(entries, entry{env, l.mapping[env]})
	}

	for _, e := range entries {
		val, ok := l.lookup(e.env)
		if !ok {
			continue
		}
		set, known := setters[e.path]
		if !known {
			continue
		}
		if err := set(cfg, val); err != nil {
			return &ValidationError{Path: e.path, Message: fmt.Sprintf("%s: %v", e.env, err)}
		}
	}
	return nil
}

// pathToEnv converts serial.read_timeout to SERIALTERM_SERIAL_READ_TIMEOUT.
func (l *EnvLoader) pathToEnv(path string) string {
	return l.prefix + strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
}

type setter func(cfg *Config, value string) error

// setters maps config paths to functions assigning a parsed value.
var setters = map[string]setter{
	"serial.device":       setString(func(c *Config) *string { return &c.Serial.Device }),
	"serial.baud":         setInt(func(c *Config) *int { return &c.Serial.Baud }),
	"serial.read_timeout": setDuration(func(c *Config) *Duration { return &c.Serial.ReadTimeout }),
	"serial.data_bits":    setInt(func(c *Config) *int { return &c.Serial.DataBits }),
	"serial.parity":       setString(func(c *Config) *string { return &c.Serial.Parity }),
	"serial.stop_bits":    setInt(func(c *Config) *int { return &c.Serial.StopBits }),

	"buffer.max_packet_size":  setInt(func(c *Config) *int { return &c.Buffer.MaxPacketSize }),
	"buffer.max_total_size":   setInt(func(c *Config) *int { return &c.Buffer.MaxTotalSize }),
	"buffer.packet_window":    setDuration(func(c *Config) *Duration { return &c.Buffer.PacketWindow }),
	"buffer.notify_threshold": setInt(func(c *Config) *int { return &c.Buffer.NotifyThreshold }),

	"screen.width":              setInt(func(c *Config) *int { return &c.Screen.Width }),
	"screen.height":             setInt(func(c *Config) *int { return &c.Screen.Height }),
	"screen.size_upper_bound":   setInt(func(c *Config) *int { return &c.Screen.SizeUpperBound }),
	"screen.trim_hysteresis":    setInt(func(c *Config) *int { return &c.Screen.TrimHysteresis }),
	"screen.max_lines":          setInt(func(c *Config) *int { return &c.Screen.MaxLines }),
	"screen.show_control_chars": setBool(func(c *Config) *bool { return &c.Screen.ShowControlChars }),
	"screen.reset_clears_style": setBool(func(c *Config) *bool { return &c.Screen.ResetClearsStyle }),

	"display.refresh_interval": setDuration(func(c *Config) *Duration { return &c.Display.RefreshInterval }),

	"logging.level": setString(func(c *Config) *string { return &c.Logging.Level }),
	"logging.file":  setString(func(c *Config) *string { return &c.Logging.File }),

	"capture.path":     setString(func(c *Config) *string { return &c.Capture.Path }),
	"capture.compress": setBool(func(c *Config) *bool { return &c.Capture.Compress }),
}

func setString(field func(*Config) *string) setter {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func setInt(field func(*Config) *int) setter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("not an integer: %q", v)
		}
		*field(c) = n
		return nil
	}
}

func setBool(field func(*Config) *bool) setter {
	return func(c *Config, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func setDuration(field func(*Config) *Duration) setter {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("not a duration: %q", v)
		}
		*field(c) = Duration(d)
		return nil
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", s)
	}
}
