// Package opts holds the process-wide compiler options. Values come
// from built-in defaults, an optional volta.toml, and programmatic
// overrides (tests, CLI flags), in that order.
package opts

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// MessageStyle selects how diagnostics are rendered.
type MessageStyle uint8

const (
	// MessageFull renders source lines, carets and notes.
	MessageFull MessageStyle = iota
	// MessageCompact renders one file:line:col line per diagnostic.
	MessageCompact
)

// Options is the full option set.
type Options struct {
	ErrorLimit int          `toml:"error_limit"`
	Style      MessageStyle `toml:"-"`
	StyleName  string       `toml:"message_style"`
	UnitTest   bool         `toml:"-"`
	Debug      bool         `toml:"debug"`
}

var current = defaults()

func defaults() Options {
	return Options{
		ErrorLimit: 20,
		Style:      MessageFull,
	}
}

// Get returns the current option set.
func Get() Options { return current }

// Set replaces the current option set.
func Set(o Options) { current = o }

// Reset restores built-in defaults. For tests.
func Reset() { current = defaults() }

// Load reads options from a TOML file, leaving unset keys at their
// current values. A missing file is not an error.
func Load(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if _, err := toml.DecodeFile(path, &current); err != nil {
		return fmt.Errorf("opts: %s: %w", path, err)
	}

	switch current.StyleName {
	case "", "full":
		current.Style = MessageFull
	case "compact":
		current.Style = MessageCompact
	default:
		return fmt.Errorf("opts: %s: unknown message style %q", path, current.StyleName)
	}

	return nil
}
