package logger

import (
	"Estuary/internal/api/config"
	"io"
	log "log/slog"
	"os"
	"strings"
)

var LogWriter io.Writer

func InitLogger() {
	LogWriter = os.Stdout

	h := log.NewJSONHandler(os.Stdout, &log.HandlerOptions{
		Level: parseLevel(config.Cfg.Log.Level),
	})
	log.SetDefault(log.New(&ContextHandler{h}))
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
