package logger

import (
	"fmt"
	"log"
	"log/slog"
)

// New returns a *log.Logger with component prefix that writes through the given slog logger.
// Libraries that only accept a Printf-style logger (cron, net/http) get structured output this way.
func New(component string, base *slog.Logger, level slog.Level) *log.Logger {
	if base == nil {
		base = slog.Default()
	}
	std := slog.NewLogLogger(base.With("component", component).Handler(), level)
	std.SetPrefix(fmt.Sprintf("[%s] ", component))
	return std
}
