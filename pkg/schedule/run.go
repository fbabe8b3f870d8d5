package schedule

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// PanicError carries a panic recovered from a task.
type PanicError struct {
	Task  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("schedule: task %s panicked: %v", e.Task, e.Value)
}

type result struct {
	task int
	err  error
}

// Run executes fn for every task. A task starts once all the tasks it runs
// after have finished; at most limit tasks run at once (limit <= 0 means no
// limit). Once a task fails no new tasks are started, and Run returns the
// first error after in-flight tasks finish. A panicking task is reported as
// a *PanicError.
func (p *Plan[K]) Run(ctx context.Context, limit int, fn func(context.Context, K) error) error {
	n := len(p.keys)
	if n == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	remaining := make([]int, n)
	var ready []int
	for i := range p.preds {
		remaining[i] = len(p.preds[i])
		if remaining[i] == 0 {
			ready = append(ready, i)
		}
	}

	done := make(chan result, n)
	failed := false
	inflight, completed := 0, 0
	for {
		if !failed && gctx.Err() == nil {
			for _, i := range ready {
				inflight++
				g.Go(func() (err error) {
					defer func() {
						if r := recover(); r != nil {
							err = &PanicError{Task: fmt.Sprint(p.keys[i]), Value: r, Stack: debug.Stack()}
						}
						done <- result{task: i, err: err}
					}()
					return fn(gctx, p.keys[i])
				})
			}
		}
		ready = ready[:0]
		if inflight == 0 {
			break
		}

		r := <-done
		inflight--
		if r.err != nil {
			failed = true
			continue
		}
		completed++
		for _, s := range p.succs[r.task] {
			remaining[s]--
			if remaining[s] == 0 {
				ready = append(ready, s)
			}
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if completed < n {
		return ctx.Err()
	}
	return nil
}
