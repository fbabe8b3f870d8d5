package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/realdom/internal/config"
	"github.com/vango-dev/realdom/pkg/realdom"
	"github.com/vango-dev/realdom/pkg/states"
	"github.com/vango-dev/realdom/pkg/telemetry"
)

// loadConfig reads the config named by path, or the one in the working
// directory. Without any config file the defaults are used.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch wd, wdErr := os.Getwd(); {
	case path != "":
		cfg, err = config.LoadFile(path)
	case wdErr != nil:
		return nil, wdErr
	case config.Exists(wd):
		cfg, err = config.Load(wd)
	default:
		cfg = config.New()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg and installs it as the
// slog default.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, nil
}

// newDom builds an engine with the sample states, wired to the configured
// telemetry. Metrics register with reg.
func newDom(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer, extra ...realdom.Option) (*realdom.Dom, error) {
	opts := []realdom.Option{
		realdom.WithLogger(logger.With("component", "realdom")),
		realdom.WithWorkers(cfg.Engine.Workers),
	}
	if cfg.Tracing.Enabled {
		opts = append(opts, realdom.WithTracer(telemetry.Tracer(telemetry.WithTracerName(cfg.Tracing.TracerName))))
	} else {
		opts = append(opts, realdom.WithTracer(telemetry.Tracer(telemetry.WithTracingDisabled(true))))
	}
	if cfg.Metrics.Enabled {
		m := telemetry.NewMetrics(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithRegistry(reg),
		)
		opts = append(opts, realdom.WithRecorder(m))
	}
	return realdom.New(states.All(), append(opts, extra...)...)
}

// collector keeps every cycle report.
type collector struct {
	reports []realdom.CycleReport
}

func (c *collector) RecordCycle(r realdom.CycleReport) {
	c.reports = append(c.reports, r)
}
