// Package logging builds the JSON slog logger shared by the binaries.
package logging

import (
	"io"
	"log/slog"
	"time"
)

// New returns a JSON logger that writes the time under "ts" in loc.
func New(w io.Writer, loc *time.Location, level slog.Leveler) *slog.Logger {
	if loc == nil {
		loc = time.Local
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			}
			return a
		},
	})
	return slog.New(h)
}

// ParseLevel maps "debug", "warn" and "error" to their levels and anything else to info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
