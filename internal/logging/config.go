package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Config describes how the service logger is built. It mirrors the LOG_*
// environment settings.
type Config struct {
	// Level is one of debug, info, warn (warning), error, fatal.
	Level string `json:"level"`
	// Format is json or text. console is accepted for text.
	Format string `json:"format"`
	// Output is stdout, stderr or a file path opened for appending. Empty
	// means stderr.
	Output string `json:"output"`
	// Fields are attached to every entry, e.g. service and version.
	Fields map[string]interface{} `json:"fields,omitempty"`
}

var levelNames = map[string]LogLevel{
	"debug":   DebugLevel,
	"info":    InfoLevel,
	"warn":    WarnLevel,
	"warning": WarnLevel,
	"error":   ErrorLevel,
	"fatal":   FatalLevel,
}

var formatNames = map[string]Format{
	"json":    JSONFormat,
	"text":    TextFormat,
	"console": TextFormat,
}

// ParseLevel resolves a level name, ignoring case.
func ParseLevel(name string) (LogLevel, error) {
	if level, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return level, nil
	}
	return "", fmt.Errorf("logging: unknown level %q", name)
}

// ParseFormat resolves a format name, ignoring case.
func ParseFormat(name string) (Format, error) {
	if format, ok := formatNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return format, nil
	}
	return "", fmt.Errorf("logging: unknown format %q", name)
}

// Validate checks the level and format names.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	_, err := ParseFormat(c.Format)
	return err
}

// NewLogger builds a logger from cfg. A nil cfg yields an info level JSON
// logger on stderr.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		return New(InfoLevel, os.Stderr), nil
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	output, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	l := NewWithFormat(level, format, output)
	if len(cfg.Fields) > 0 {
		l = l.WithFields(cfg.Fields)
	}
	return l, nil
}

func openOutput(dest string) (io.Writer, error) {
	switch dest {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", dest, err)
	}
	return f, nil
}
