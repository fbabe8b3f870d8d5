package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	rderrors "github.com/vango-dev/realdom/internal/errors"
	"github.com/vango-dev/realdom/internal/inspect"
	"github.com/vango-dev/realdom/pkg/realdom"
	"github.com/vango-dev/realdom/pkg/tree"
	"github.com/vango-dev/realdom/pkg/vdom"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		addr      string
		scenePath string
		interval  time.Duration
		seed      uint64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inspector over a live, randomly mutated scene",
		Long: `Mount a scene and serve the inspector while random mutations are
applied to it at a fixed interval.

Inspector routes:
  GET /tree               JSON snapshot of the tree
  GET /nodes/{id}         JSON snapshot of one subtree
  GET /listeners/{event}  nodes listening for an event
  GET /metrics            Prometheus metrics
  GET /ws                 stream of cycle reports

Examples:
  realdom serve
  realdom serve --addr=:7070 --interval=250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *configPath, addr, scenePath, interval, seed)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&scenePath, "scene", "", "Scene file (YAML or JSON)")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Time between mutations (0 disables them)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed")

	return cmd
}

func runServe(cmd *cobra.Command, configPath, addr, scenePath string, interval time.Duration, seed uint64) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Inspect.Addr
	}
	if scenePath == "" {
		scenePath = cfg.ScenePath()
	}
	scene, err := loadScene(scenePath)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	reg := prometheus.NewRegistry()
	srv := inspect.New(inspect.Options{
		Lock:     &mu,
		Gatherer: reg,
		Logger:   logger.With("component", "inspect"),
	})
	d, err := newDom(cfg, logger, reg, realdom.WithRecorder(srv))
	if err != nil {
		return err
	}
	srv.Attach(d)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mu.Lock()
	_, err = vdom.Mount(d, d.RootID(), scene.Root.VNode())
	if err == nil {
		d.Settle(ctx, nil, cfg.Engine.SettleCycles)
	}
	elems := elementsOf(d)
	mu.Unlock()
	if err != nil {
		return err
	}

	if interval > 0 {
		go mutateLoop(ctx, d, &mu, newMutator(seed, elems), interval, cfg.Engine.SettleCycles, logger.With("component", "mutator"))
	}

	success(cmd, "inspector on http://%s (%d nodes)", addr, d.Len())
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return rderrors.New("E141").WithSubjects(addr).Wrap(err)
	}
	return nil
}

// mutateLoop applies one random mutation per tick and settles the Dom.
func mutateLoop(ctx context.Context, d *realdom.Dom, mu sync.Locker, m *mutator, interval time.Duration, maxCycles int, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		mu.Lock()
		what := m.mutate(d)
		changed, cycles := d.Settle(ctx, nil, maxCycles)
		mu.Unlock()
		logger.Debug("mutated", "edit", what, "changed", len(changed), "cycles", cycles)
	}
}

func elementsOf(d *realdom.Dom) []tree.NodeID {
	var ids []tree.NodeID
	d.TraverseDepthFirst(func(n realdom.NodeRef) {
		if n.ID() != d.RootID() && n.Type().IsElement() {
			ids = append(ids, n.ID())
		}
	})
	return ids
}
