package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/realdom/pkg/realdom"
	"github.com/vango-dev/realdom/pkg/vdom"
)

func runCmd(configPath *string) *cobra.Command {
	var (
		scenePath string
		cycles    int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Mount a scene and report every update cycle",
		Long: `Mount a scene, settle it, then apply each of its patch steps and
settle again. Every cycle is reported per state: how many nodes it
recomputed and how many of those changed.

Without --scene the scene named in the config is used, or the
built-in demo scene.

Examples:
  realdom run
  realdom run --scene=app.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScene(cmd, *configPath, scenePath, cycles, asJSON)
		},
	}

	cmd.Flags().StringVar(&scenePath, "scene", "", "Scene file (YAML or JSON)")
	cmd.Flags().IntVar(&cycles, "cycles", 0, "Most cycles per settle (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

// stepReport is the outcome of settling after one scene step.
type stepReport struct {
	Name    string                `json:"name"`
	Cycles  []realdom.CycleReport `json:"cycles"`
	Changed int                   `json:"changed"`
	Pending int                   `json:"pending"`
}

type runReport struct {
	Stages [][]string            `json:"stages"`
	Steps  []stepReport          `json:"steps"`
	Tree   *realdom.NodeSnapshot `json:"tree"`
}

func runScene(cmd *cobra.Command, configPath, scenePath string, cycles int, asJSON bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if scenePath == "" {
		scenePath = cfg.ScenePath()
	}
	scene, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	if cycles <= 0 {
		cycles = cfg.Engine.SettleCycles
	}

	col := &collector{}
	d, err := newDom(cfg, logger, prometheus.NewRegistry(), realdom.WithRecorder(col))
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	report := runReport{Stages: d.Registry().Stages()}
	settle := func(name string) {
		start := len(col.reports)
		changed, _ := d.Settle(ctx, nil, cycles)
		report.Steps = append(report.Steps, stepReport{
			Name:    name,
			Cycles:  col.reports[start:],
			Changed: len(changed),
			Pending: d.Pending(),
		})
	}

	binding, err := vdom.Mount(d, d.RootID(), scene.Root.VNode())
	if err != nil {
		return err
	}
	settle("mount")
	for _, step := range scene.Steps {
		if err := binding.Apply(d, step.Patches()); err != nil {
			return err
		}
		settle(step.Name)
	}
	report.Tree = d.Snapshot()

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "stages: %v\n\n", report.Stages)
	renderCycles(out, report.Steps)
	fmt.Fprintln(out)
	renderTree(out, report.Tree)
	fmt.Fprintln(out)
	last := report.Steps[len(report.Steps)-1]
	if last.Pending > 0 {
		fmt.Fprintf(out, "%d nodes still stale after %d cycles per step\n", last.Pending, cycles)
		return nil
	}
	success(cmd, "%d steps settled in %d cycles", len(report.Steps), d.Cycle())
	return nil
}

func renderCycles(w io.Writer, steps []stepReport) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Step", "Cycle", "Dirty", "Pass", "Nodes", "Changed", "Duration"})
	for _, s := range steps {
		for _, c := range s.Cycles {
			for _, p := range c.Passes {
				if p.Nodes == 0 {
					continue
				}
				tbl.Append([]string{
					s.Name,
					fmt.Sprint(c.Cycle),
					fmt.Sprint(c.DirtyNodes),
					p.Name,
					fmt.Sprint(p.Nodes),
					fmt.Sprint(p.Changed),
					p.Duration.String(),
				})
			}
		}
	}
	tbl.Render()
}

func renderTree(w io.Writer, root *realdom.NodeSnapshot) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Node", "Kind", "Size", "Color", "Accessibility"})
	var walk func(n *realdom.NodeSnapshot, depth int)
	walk = func(n *realdom.NodeSnapshot, depth int) {
		label := n.Tag
		if n.Kind == "Text" {
			label = fmt.Sprintf("%q", n.Text)
		}
		tbl.Append([]string{
			fmt.Sprintf("%s%d %s", strings.Repeat("  ", depth), n.ID, label),
			n.Kind,
			n.States["size"],
			n.States["color"],
			n.States["accessibility"],
		})
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	tbl.Render()
}
