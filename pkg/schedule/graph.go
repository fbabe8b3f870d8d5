// Package schedule compiles tasks with "runs after" constraints into a plan
// and executes the plan, running tasks with no ordering between them
// concurrently.
//
// A Graph is built once and turned into an immutable Plan by Build, which
// rejects cycles. Plan.Run may be called any number of times.
package schedule

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrCycle marks errors returned by Build when the constraints are cyclic.
var ErrCycle = errors.New("schedule: dependency cycle")

// Graph collects tasks and their ordering constraints.
type Graph[K comparable] struct {
	keys  []K
	index map[K]int
	after [][]K
}

// NewGraph returns an empty graph.
func NewGraph[K comparable]() *Graph[K] {
	return &Graph[K]{index: make(map[K]int)}
}

// Add registers task k, which must run after every task in after. Adding a
// task twice merges its constraints.
func (g *Graph[K]) Add(k K, after ...K) {
	i, ok := g.index[k]
	if !ok {
		i = len(g.keys)
		g.index[k] = i
		g.keys = append(g.keys, k)
		g.after = append(g.after, nil)
	}
	g.after[i] = append(g.after[i], after...)
}

// Len returns the number of tasks.
func (g *Graph[K]) Len() int { return len(g.keys) }

// Build resolves the constraints into a Plan. Ties are broken by insertion
// order, so the plan is deterministic.
func (g *Graph[K]) Build() (*Plan[K], error) {
	n := len(g.keys)
	p := &Plan[K]{
		keys:  slices.Clone(g.keys),
		preds: make([][]int, n),
		succs: make([][]int, n),
	}
	for i, after := range g.after {
		for _, a := range after {
			j, ok := g.index[a]
			if !ok {
				return nil, errors.Newf("schedule: %v runs after unknown task %v", g.keys[i], a)
			}
			if j == i {
				return nil, errors.Mark(errors.Newf("schedule: cycle among %v", g.keys[i]), ErrCycle)
			}
			if slices.Contains(p.preds[i], j) {
				continue
			}
			p.preds[i] = append(p.preds[i], j)
			p.succs[j] = append(p.succs[j], i)
		}
	}

	// Kahn's algorithm, one stage at a time.
	indeg := make([]int, n)
	for i := range p.preds {
		indeg[i] = len(p.preds[i])
	}
	var ready []int
	for i := range indeg {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}
	for len(ready) > 0 {
		stage := ready
		ready = nil
		p.stages = append(p.stages, stage)
		p.order = append(p.order, stage...)
		for _, i := range stage {
			for _, s := range p.succs[i] {
				indeg[s]--
				if indeg[s] == 0 {
					ready = append(ready, s)
				}
			}
		}
		slices.Sort(ready)
	}

	if len(p.order) != n {
		var members []string
		for i, d := range indeg {
			if d > 0 {
				members = append(members, fmt.Sprint(g.keys[i]))
			}
		}
		return nil, errors.Mark(
			errors.Newf("schedule: cycle among %s", strings.Join(members, ", ")), ErrCycle)
	}
	return p, nil
}

// Plan is a compiled, acyclic task graph.
type Plan[K comparable] struct {
	keys   []K
	preds  [][]int
	succs  [][]int
	order  []int
	stages [][]int
}

// Len returns the number of tasks.
func (p *Plan[K]) Len() int { return len(p.keys) }

// Order returns the tasks in a valid sequential execution order.
func (p *Plan[K]) Order() []K {
	out := make([]K, len(p.order))
	for i, j := range p.order {
		out[i] = p.keys[j]
	}
	return out
}

// Stages groups the tasks by depth: every task in a stage depends only on
// tasks of earlier stages.
func (p *Plan[K]) Stages() [][]K {
	out := make([][]K, len(p.stages))
	for i, stage := range p.stages {
		out[i] = make([]K, len(stage))
		for j, k := range stage {
			out[i][j] = p.keys[k]
		}
	}
	return out
}

// After returns the tasks k directly runs after.
func (p *Plan[K]) After(k K) []K {
	i := slices.Index(p.keys, k)
	if i < 0 {
		return nil
	}
	out := make([]K, len(p.preds[i]))
	for j, pi := range p.preds[i] {
		out[j] = p.keys[pi]
	}
	return out
}
