package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/robfig/jinja"
)

type logConfig struct {
	Level  string `default:"warn" enum:"debug,info,warn,error" help:"Set log level."`
	Format string `default:"text" enum:"json,text"             help:"Set log format."`
}

func (logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// handler returns the slog handler writing to w that the flags describe.
func (c logConfig) handler(w io.Writer) slog.Handler {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelWarn
	}
	var opts = &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// start installs the configured logger as the default, and routes the
// bundle's file watcher notifications through it.
func (c logConfig) start(ctx context.Context, w io.Writer) {
	var h = c.handler(w)
	slog.SetDefault(slog.New(h))
	jinja.Logger = slog.NewLogLogger(h, slog.LevelInfo)

	slog.DebugContext(ctx, "logger initialized",
		slog.String("level", c.Level),
		slog.String("format", c.Format),
	)
}
