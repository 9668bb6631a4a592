/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"fmt"

	"github.com/ssgreg/logf"
)

// Level defines the lowest severity that will be logged.
type Level string

// Supported logging levels.
const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// UnmarshalText allows decoding from text with validation.
// Implements encoding.TextUnmarshaler interface.
func (l *Level) UnmarshalText(text []byte) error {
	switch Level(text) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		*l = Level(text)
		return nil
	case "":
		*l = LevelInfo
		return nil
	}
	return fmt.Errorf("unknown log level %q", string(text))
}

func (l Level) toLogf() logf.Level {
	switch l {
	case LevelError:
		return logf.LevelError
	case LevelWarn:
		return logf.LevelWarn
	case LevelDebug:
		return logf.LevelDebug
	}
	return logf.LevelInfo
}

// Format defines the logging output format.
type Format string

// Supported logging formats.
const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Output defines where log entries are written.
type Output string

// Supported logging outputs.
const (
	OutputStdout Output = "stdout"
	OutputStderr Output = "stderr"
	OutputFile   Output = "file"
)

// FileRotationConfig describes rotation of the log file.
type FileRotationConfig struct {
	// MaxSizeMB is the maximum size of the log file in megabytes before it gets rotated.
	MaxSizeMB int `mapstructure:"maxsizemb" yaml:"maxsizemb" json:"maxsizemb"`

	// MaxBackups is the maximum number of rotated files to retain.
	MaxBackups int `mapstructure:"maxbackups" yaml:"maxbackups" json:"maxbackups"`

	// MaxAgeDays is the maximum number of days to retain rotated files.
	MaxAgeDays int `mapstructure:"maxagedays" yaml:"maxagedays" json:"maxagedays"`

	// Compress determines if rotated files should be gzip-compressed.
	Compress bool `mapstructure:"compress" yaml:"compress" json:"compress"`
}

// FileConfig describes the log file output.
type FileConfig struct {
	// Path is the path to the log file.
	Path string `mapstructure:"path" yaml:"path" json:"path"`

	// Rotation configures rotation of the log file.
	Rotation FileRotationConfig `mapstructure:"rotation" yaml:"rotation" json:"rotation"`
}

// Config represents a set of configuration parameters for logging.
type Config struct {
	// Level is the lowest severity that will be logged, "info" by default.
	Level Level `mapstructure:"level" yaml:"level" json:"level"`

	// Format is the logging output format, "json" by default.
	Format Format `mapstructure:"format" yaml:"format" json:"format"`

	// Output defines where log entries are written, "stdout" by default.
	Output Output `mapstructure:"output" yaml:"output" json:"output"`

	// NoColor disables colors in the "text" format.
	NoColor bool `mapstructure:"nocolor" yaml:"nocolor" json:"nocolor"`

	// File configures the "file" output.
	File FileConfig `mapstructure:"file" yaml:"file" json:"file"`
}
