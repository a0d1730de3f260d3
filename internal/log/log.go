package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	output io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
)

// NewLogger returns a logger tagged with the given component name.
func NewLogger(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	return zerolog.New(output).With().Timestamp().Str("component", component).Logger()
}

// SetOutput redirects loggers created after the call.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// SetLevel sets the global level from a name like "debug" or "info".
func SetLevel(level string) error {
	if level == "" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return nil
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}

	zerolog.SetGlobalLevel(lvl)
	return nil
}
