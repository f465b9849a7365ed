package log

import (
	"io"
	"os"
)

// Format selects the slog handler encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Output selects where log entries are written.
type Output string

const (
	OutputStdout  Output = "stdout"
	OutputStderr  Output = "stderr"
	OutputDiscard Output = "discard"
)

// Writer returns the io.Writer for the output destination.
func (o Output) Writer() io.Writer {
	switch o {
	case OutputStdout:
		return os.Stdout
	case OutputDiscard:
		return io.Discard
	default:
		return os.Stderr
	}
}

// Config controls logger construction.
type Config struct {
	Level     Level
	Format    Format
	Output    Output
	AddSource bool
}

// DefaultConfig returns the standard configuration: JSON to stderr at info.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: OutputStderr,
	}
}

// DevelopmentConfig returns a human-readable configuration at debug level.
func DevelopmentConfig() Config {
	return Config{
		Level:     LevelDebug,
		Format:    FormatText,
		Output:    OutputStderr,
		AddSource: true,
	}
}
