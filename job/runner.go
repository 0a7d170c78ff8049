// Package job defines the background-stage contract and the sequential
// runner that chains stages the way an external scheduler would.
package job

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/taigatrans/routegrid/model"
)

// Stage is one background derivation step. CanRun is the precondition gate:
// a false result is a clean skip, never an error.
type Stage interface {
	Name() string
	CanRun(ctx context.Context) (bool, string, error)
	Run(ctx context.Context) (model.Result, error)
}

// Runner executes stages sequentially, following each result's Next pointer
// through the registry. Retry policy stays with the external scheduler; the
// runner makes exactly one pass.
type Runner struct {
	stages  map[string]Stage
	timeout time.Duration
}

// NewRunner creates a runner applying the given per-stage timeout
// (0 disables it).
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{stages: map[string]Stage{}, timeout: timeout}
}

// Register adds a stage under its name.
func (r *Runner) Register(s Stage) { r.stages[s.Name()] = s }

// RunChain runs the named stage and every stage it chains to. Skips are
// logged and end the chain; failures are returned to the caller.
func (r *Runner) RunChain(ctx context.Context, name string) ([]model.Result, error) {
	var results []model.Result
	for name != "" {
		stage, ok := r.stages[name]
		if !ok {
			return results, fmt.Errorf("job: unknown stage %q", name)
		}
		res, err := r.runOne(ctx, stage)
		if err != nil {
			return results, fmt.Errorf("job: stage %s: %w", name, err)
		}
		if res == nil {
			// Precondition not met; the next trigger will try again.
			return results, nil
		}
		results = append(results, *res)
		name = res.Next
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, stage Stage) (*model.Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	ok, reason, err := stage.CanRun(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Printf("[%s] skipped: %s", stage.Name(), reason)
		return nil, nil
	}
	res, err := stage.Run(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[%s] finished in %s: %s (added=%d updated=%d deleted=%d)",
		stage.Name(), res.Elapsed.Round(time.Millisecond), res.Message,
		res.Data.Added, res.Data.Updated, res.Data.Deleted)
	return &res, nil
}
