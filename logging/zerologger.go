package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field names shared by every package.
const (
	TableIDKey      string = "table"
	SpotKey         string = "spot"
	HandlerKey      string = "handler"
	HandNumKey      string = "game"
	UserKey         string = "user"
	TimerPurposeKey string = "purpose"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Format returns the output format from LOG_FORMAT. Anything but "json"
// logs to the console.
func Format() string {
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == FormatJSON {
		return FormatJSON
	}
	return FormatConsole
}

// IsColorLoggingEnabled reads COLORIZE_LOG. Console output is colored
// unless it is set to a false value.
func IsColorLoggingEnabled() bool {
	v := os.Getenv("COLORIZE_LOG")
	if v == "" {
		return true
	}
	enabled, err := strconv.ParseBool(v)
	return err == nil && enabled
}

// GetZeroLogger returns a logger tagged with name. out defaults to stdout.
func GetZeroLogger(name string, out io.Writer) *zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if Format() == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, NoColor: !IsColorLoggingEnabled(), TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(out).With().Timestamp().Str("logger", name).Logger()
	return &logger
}

// TableLogger returns a child logger that tags every event with the table ID.
func TableLogger(parent *zerolog.Logger, tableID string) zerolog.Logger {
	return parent.With().Str(TableIDKey, tableID).Logger()
}

// SpotLogger also tags the spot.
func SpotLogger(parent *zerolog.Logger, tableID string, spot int) zerolog.Logger {
	return parent.With().Str(TableIDKey, tableID).Int(SpotKey, spot).Logger()
}
