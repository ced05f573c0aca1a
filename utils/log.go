package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLog returns a logger writing to <dir><name>.log, or to stdout when dir
// is empty.
func NewLog(dir, name string, verbose bool) *slog.Logger {
	var w io.Writer = os.Stdout
	noColor := false
	if dir != "" {
		fileName := fmt.Sprintf("%s%s.log", dir, name)
		file, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			panic(err)
		}
		w = file
		noColor = true
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		NoColor:    noColor,
		TimeFormat: time.StampMicro,
	})).With("component", name)
}

// NopLog discards everything, for tests.
func NopLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
