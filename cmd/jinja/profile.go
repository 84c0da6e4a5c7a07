package main

import (
	"context"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"
)

var profileModes = map[string]func(*profile.Profile){
	"block": profile.BlockProfile,
	"cpu":   profile.CPUProfile,
	"mem":   profile.MemProfile,
	"mutex": profile.MutexProfile,
	"trace": profile.TraceProfile,
}

type profileConfig struct {
	Profile    string `default:""  enum:",block,cpu,mem,mutex,trace" help:"Write a profile of the run."`
	ProfileDir string `default:"." help:"Profile output directory." type:"path"`
}

func (profileConfig) group() kong.Group {
	return kong.Group{Key: "profile", Title: "Profiling"}
}

// start starts profiling if configured, and returns the function that
// stops it.
func (c profileConfig) start(ctx context.Context) (stop func()) {
	var mode, ok = profileModes[c.Profile]
	if !ok {
		return func() {}
	}
	slog.DebugContext(ctx, "profile start",
		slog.String("mode", c.Profile),
		slog.String("dir", c.ProfileDir),
	)
	var p = profile.Start(mode, profile.ProfilePath(c.ProfileDir), profile.Quiet)
	return p.Stop
}
