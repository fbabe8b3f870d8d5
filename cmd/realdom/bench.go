package main

import (
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const (
	minLatency = time.Microsecond
	maxLatency = 10 * time.Second
)

func benchCmd(configPath *string) *cobra.Command {
	var (
		depth     int
		fanout    int
		rounds    int
		mutations int
		seed      uint64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure update latency on a synthetic tree",
		Long: `Build a synthetic tree, then run rounds of random mutations, each
followed by a settle, and report settle latency percentiles.

Examples:
  realdom bench
  realdom bench --depth=6 --fanout=4 --rounds=2000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd, *configPath, benchOptions{
				depth:     depth,
				fanout:    fanout,
				rounds:    rounds,
				mutations: mutations,
				seed:      seed,
			})
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 5, "Levels of elements")
	cmd.Flags().IntVar(&fanout, "fanout", 3, "Children per element")
	cmd.Flags().IntVar(&rounds, "rounds", 500, "Mutation rounds")
	cmd.Flags().IntVar(&mutations, "mutations", 4, "Mutations per round")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed")

	return cmd
}

type benchOptions struct {
	depth, fanout, rounds, mutations int
	seed                             uint64
}

func runBench(cmd *cobra.Command, configPath string, o benchOptions) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	d, err := newDom(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	maxCycles := cfg.Engine.SettleCycles

	elems := buildTree(d, o.depth, o.fanout)
	start := time.Now()
	_, initial := d.Settle(ctx, nil, maxCycles)
	mountTime := time.Since(start)

	hist := hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), 3)
	m := newMutator(o.seed, elems)
	cycles := 0
	for i := 0; i < o.rounds; i++ {
		for j := 0; j < o.mutations; j++ {
			m.mutate(d)
		}
		start := time.Now()
		_, n := d.Settle(ctx, nil, maxCycles)
		elapsed := time.Since(start)
		cycles += n
		if err := hist.RecordValue(max(elapsed.Nanoseconds(), minLatency.Nanoseconds())); err != nil {
			logger.Warn("latency out of range", "elapsed", elapsed)
		}
	}

	ns := func(v int64) string { return time.Duration(v).String() }
	tbl := tablewriter.NewWriter(cmd.OutOrStdout())
	tbl.SetHeader([]string{"Metric", "Value"})
	tbl.AppendBulk([][]string{
		{"nodes", fmt.Sprint(d.Len())},
		{"mount", fmt.Sprintf("%s (%d cycles)", mountTime, initial)},
		{"rounds", fmt.Sprint(o.rounds)},
		{"cycles/round", fmt.Sprintf("%.2f", float64(cycles)/float64(max(o.rounds, 1)))},
		{"mean", ns(int64(hist.Mean()))},
		{"p50", ns(hist.ValueAtQuantile(50))},
		{"p90", ns(hist.ValueAtQuantile(90))},
		{"p99", ns(hist.ValueAtQuantile(99))},
		{"max", ns(hist.Max())},
	})
	tbl.Render()
	return nil
}
