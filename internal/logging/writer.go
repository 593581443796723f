package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-logfmt/logfmt"
)

type slogWriter struct {
	logger *slog.Logger
}

// NewSlogWriter returns a writer that decodes logfmt records, such as the HTTP
// trace from option.WithDebugLog, and logs each one to logger. The "at" key
// becomes the message. Records carrying an "error" key log at warn level.
func NewSlogWriter(logger *slog.Logger) io.Writer {
	return &slogWriter{logger: logger}
}

func (w *slogWriter) Write(p []byte) (int, error) {
	d := logfmt.NewDecoder(bytes.NewReader(p))
	for d.ScanRecord() {
		msg := "http"
		level := slog.LevelInfo
		var attrs []slog.Attr

		for d.ScanKeyval() {
			key, value := string(d.Key()), string(d.Value())
			switch key {
			case "at", "msg":
				msg = "http " + value
			case "error":
				level = slog.LevelWarn
				attrs = append(attrs, slog.String(key, value))
			default:
				attrs = append(attrs, slog.String(key, value))
			}
		}
		w.logger.LogAttrs(context.Background(), level, msg, attrs...)
	}
	if d.Err() != nil {
		return len(p), fmt.Errorf("logfmt.ScanRecord: %w", d.Err())
	}
	return len(p), nil
}
