package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigatrans/routegrid/model"
)

type fakeStage struct {
	name    string
	canRun  bool
	runErr  error
	next    string
	runs    int
	checked int
}

func (f *fakeStage) Name() string { return f.name }

func (f *fakeStage) CanRun(context.Context) (bool, string, error) {
	f.checked++
	return f.canRun, "precondition not met", nil
}

func (f *fakeStage) Run(context.Context) (model.Result, error) {
	f.runs++
	if f.runErr != nil {
		return model.Result{}, f.runErr
	}
	return model.Result{Success: true, Elapsed: time.Millisecond, Message: "done", Next: f.next}, nil
}

func TestRunChainFollowsNext(t *testing.T) {
	first := &fakeStage{name: "synthesizer", canRun: true, next: "graph-builder"}
	second := &fakeStage{name: "graph-builder", canRun: true}

	r := NewRunner(0)
	r.Register(first)
	r.Register(second)

	results, err := r.RunChain(context.Background(), "synthesizer")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 1, second.runs)
}

func TestRunChainStopsOnSkip(t *testing.T) {
	first := &fakeStage{name: "synthesizer", canRun: false, next: "graph-builder"}
	second := &fakeStage{name: "graph-builder", canRun: true}

	r := NewRunner(0)
	r.Register(first)
	r.Register(second)

	results, err := r.RunChain(context.Background(), "synthesizer")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, first.runs)
	assert.Equal(t, 0, second.runs)
}

func TestRunChainPropagatesFailure(t *testing.T) {
	boom := errors.New("validation failed")
	first := &fakeStage{name: "graph-builder", canRun: true, runErr: boom}

	r := NewRunner(0)
	r.Register(first)

	_, err := r.RunChain(context.Background(), "graph-builder")
	require.ErrorIs(t, err, boom)
}

func TestRunChainUnknownStage(t *testing.T) {
	r := NewRunner(0)
	_, err := r.RunChain(context.Background(), "nope")
	require.Error(t, err)
}
