package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/jinja"
	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/render"
	"github.com/robfig/jinja/template"
)

type serveCmd struct {
	parseFlags

	Template string `arg:"" help:"Template file to serve." type:"existingfile"`
	Data     string `short:"d" help:"YAML or JSON file of default variables." placeholder:"FILE"`
	Port     int    `default:"9812" help:"Port on which to listen."`
	Watch    bool   `help:"Compile once and recompile when the file changes, instead of on every request."`
}

// Run serves the template until the context is canceled. Parameters may be
// provided to the template in the URL query string.
func (c *serveCmd) Run(ctx context.Context) error {
	defaults, err := loadData(c.Data)
	if err != nil {
		return err
	}
	var h = templateHandler{name: c.Template, defaults: defaults, load: c.compile}
	if c.Watch {
		var bundle = c.bundle().WatchFiles(true)
		defer bundle.Close()
		env, registry, err := bundle.AddTemplateFile(c.Template).CompileToEnvironment()
		if err != nil {
			return withSourceDir(err, "")
		}
		h.load = func() (*render.Environment, *template.Registry, error) {
			return env, registry, nil
		}
	}

	var srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	slog.InfoContext(ctx, "listening",
		slog.Int("port", c.Port),
		slog.String("template", c.Template),
		slog.Bool("watch", c.Watch),
	)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (c *serveCmd) bundle() *jinja.Bundle {
	return jinja.NewBundle().WithOptions(c.options())
}

func (c *serveCmd) compile() (*render.Environment, *template.Registry, error) {
	return c.bundle().AddTemplateFile(c.Template).CompileToEnvironment()
}

// templateHandler renders a template for each request, with the query
// parameters added to the default variables.
type templateHandler struct {
	name     string
	defaults *data.Map
	load     func() (*render.Environment, *template.Registry, error)
}

func (h templateHandler) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	env, registry, err := h.load()
	if err != nil {
		slog.ErrorContext(req.Context(), "compile failed", slog.Any("error", err))
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	var tmpl = registry.Template(h.name)
	if tmpl == nil {
		http.Error(res, fmt.Sprintf("template %s not found", h.name), http.StatusInternalServerError)
		return
	}

	var vars = h.defaults.Copy()
	for k, v := range req.URL.Query() {
		vars.Set(k, data.String(v[0]))
	}
	out, err := env.Render(tmpl.Node, vars)
	if err != nil {
		slog.ErrorContext(req.Context(), "render failed", slog.Any("error", err))
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	io.WriteString(res, out)
}
