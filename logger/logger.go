package logger

import (
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/viper"
)

var LogLevel = new(slog.LevelVar)

// Init initializes the default logger with level, format and optional log
// file taken from configuration.
func Init() {
	if err := LogLevel.UnmarshalText([]byte(viper.GetString("log_level"))); err != nil {
		LogLevel.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{
		Level: LogLevel,
	}

	var w io.Writer = os.Stdout
	if logFile := viper.GetString("log_file"); logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal(err)
		}
		w = io.MultiWriter(os.Stdout, file)
	}

	var handler slog.Handler
	if viper.GetString("log_format") == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
