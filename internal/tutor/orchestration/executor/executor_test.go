package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	errx "github.com/tutor-orchestrator/server/internal/core/error"
	"github.com/tutor-orchestrator/server/internal/tutor/model"
)

type fakeCapability struct {
	name     string
	response string
	err      error
	fail     bool
	panics   bool
	delay    time.Duration
	calls    atomic.Int32

	mu   sync.Mutex
	seen []model.CapabilityInput
}

func (f *fakeCapability) Name() string { return f.name }

func (f *fakeCapability) Execute(ctx context.Context, in model.CapabilityInput) (model.CapabilityOutput, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, in)
	f.mu.Unlock()

	if f.panics {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return model.CapabilityOutput{}, ctx.Err()
		}
	}
	if f.err != nil {
		return model.CapabilityOutput{}, f.err
	}
	if f.fail {
		return model.CapabilityOutput{Success: false}, nil
	}
	return model.CapabilityOutput{Response: f.response, Success: true}, nil
}

func (f *fakeCapability) lastInput() model.CapabilityInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[len(f.seen)-1]
}

type fakeRegistry map[string]*fakeCapability

func (r fakeRegistry) Tool(name string) (model.Capability, error) {
	c, ok := r[name]
	if !ok {
		return nil, errx.UnknownCapability(name)
	}
	return c, nil
}

func registry(caps ...*fakeCapability) fakeRegistry {
	r := fakeRegistry{}
	for _, c := range caps {
		r[c.name] = c
	}
	return r
}

func newExecutor(r model.CapabilityRegistry) *Executor {
	cfg := model.DefaultOrchestrationConfig()
	cfg.CapabilityTimeout = time.Second
	return New(r, cfg)
}

func session() SessionContext {
	return SessionContext{
		SessionID: "s-1",
		TurnID:    "t-1",
		Message:   "help me with fractions",
		State: model.UserState{
			Intent: model.Intent{Current: model.IntentUnderstand},
			Depth:  model.DepthState{Current: model.DepthSurface, Requested: model.DepthSurface},
		},
	}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestExecuteSingle(t *testing.T) {
	c := &fakeCapability{name: "concept_explainer", response: "A fraction is a part of a whole."}
	e := newExecutor(registry(c))

	res := e.Execute(context.Background(), model.OrchestrationPattern{
		Type:  model.PatternSingle,
		Tools: []string{"concept_explainer"},
	}, session())

	require.Len(t, res.Executions, 1)
	assert.True(t, res.Executions[0].Success)
	assert.Equal(t, "A fraction is a part of a whole.", res.Executions[0].Response)
	assert.Equal(t, 1, res.Metadata.ToolCount)
	assert.Greater(t, res.Metadata.PatternEffectiveness, 0.5)
	assert.False(t, res.Degraded)
	assert.Equal(t, "t-1", res.TurnID)
	assert.Equal(t, "s-1", res.SessionID)
}

func TestExecuteHandoffInvokesOnlyNewTool(t *testing.T) {
	prev := &fakeCapability{name: "concept_explainer", response: "old"}
	next := &fakeCapability{name: "writing_assistant", response: "Let's outline your essay."}
	e := newExecutor(registry(prev, next))

	res := e.Execute(context.Background(), model.OrchestrationPattern{
		Type:  model.PatternHandoff,
		Tools: []string{"writing_assistant"},
		Context: map[string]any{
			model.ContextPreviousTool: "concept_explainer",
		},
	}, session())

	require.Len(t, res.Executions, 1)
	assert.Equal(t, "writing_assistant", res.Executions[0].Tool)
	assert.Zero(t, prev.calls.Load())
	assert.Equal(t, model.PatternHandoff, next.lastInput().Pattern)
}

func TestExecuteParallelIsolatesFailures(t *testing.T) {
	a := &fakeCapability{name: "quick_answer", response: "42", delay: 20 * time.Millisecond}
	b := &fakeCapability{name: "writing_assistant", err: errors.New("model overloaded")}
	c := &fakeCapability{name: "curiosity_explorer", response: "Did you know...", delay: 10 * time.Millisecond}
	e := newExecutor(registry(a, b, c))

	res := e.Execute(context.Background(), model.OrchestrationPattern{
		Type:    model.PatternParallel,
		Tools:   []string{"quick_answer", "writing_assistant", "curiosity_explorer"},
		Context: map[string]any{model.ContextIntents: []string{"solve", "create", "explore"}},
	}, session())

	require.Len(t, res.Executions, 3)
	assert.Equal(t, "quick_answer", res.Executions[0].Tool)
	assert.Equal(t, "writing_assistant", res.Executions[1].Tool)
	assert.Equal(t, "curiosity_explorer", res.Executions[2].Tool)

	assert.True(t, res.Executions[0].Success)
	assert.False(t, res.Executions[1].Success)
	assert.Contains(t, res.Executions[1].Error, "model overloaded")
	assert.Empty(t, res.Executions[1].Response)
	assert.True(t, res.Executions[2].Success)
	assert.False(t, res.Degraded)

	assert.Equal(t, model.IntentSolve, a.lastInput().Intent)
	assert.Equal(t, model.IntentExplore, c.lastInput().Intent)
}

func TestExecuteParallelRunsConcurrently(t *testing.T) {
	caps := []*fakeCapability{
		{name: "a", response: "a", delay: 150 * time.Millisecond},
		{name: "b", response: "b", delay: 150 * time.Millisecond},
		{name: "c", response: "c", delay: 150 * time.Millisecond},
	}
	e := newExecutor(registry(caps...))

	start := time.Now()
	res := e.Execute(context.Background(), model.OrchestrationPattern{
		Type:  model.PatternParallel,
		Tools: []string{"a", "b", "c"},
	}, session())

	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Len(t, res.Responses(), 3)
}

func TestExecuteChainPassesPriorStages(t *testing.T) {
	first := &fakeCapability{name: "concept_explainer", response: "surface"}
	second := &fakeCapability{name: "socratic_tutor", response: "guided"}
	third := &fakeCapability{name: "deep_dive", response: "deep"}
	e := newExecutor(registry(first, second, third))

	res := e.Execute(context.Background(), model.OrchestrationPattern{
		Type:  model.PatternChain,
		Tools: []string{"concept_explainer", "socratic_tutor", "deep_dive"},
	}, session())

	require.Len(t, res.Executions, 3)
	for _, exec := range res.Executions {
		assert.True(t, exec.Success)
	}
	assert.Empty(t, first.lastInput().Prior)
	assert.Equal(t, []model.StageOutput{{Tool: "concept_explainer", Response: "surface"}}, second.lastInput().Prior)
	assert.Equal(t, []model.StageOutput{
		{Tool: "concept_explainer", Response: "surface"},
		{Tool: "socratic_tutor", Response: "guided"},
	}, third.lastInput().Prior)
	assert.GreaterOrEqual(t, res.Metadata.PatternEffectiveness, 0.9)
}

func TestExecuteChainContinuesPastFailedStage(t *testing.T) {
	first := &fakeCapability{name: "concept_explainer", fail: true}
	second := &fakeCapability{name: "socratic_tutor", response: "guided"}
	e := newExecutor(registry(first, second))

	res := e.Execute(context.Background(), model.OrchestrationPattern{
		Type:  model.PatternChain,
		Tools: []string{"concept_explainer", "socratic_tutor"},
	}, session())

	require.Len(t, res.Executions, 2)
	assert.False(t, res.Executions[0].Success)
	assert.True(t, res.Executions[1].Success)
	assert.Empty(t, second.lastInput().Prior)
}

func TestExecuteFallbackStopsAtFirstSuccess(t *testing.T) {
	a := &fakeCapability{name: "quick_answer", err: errors.New("quota")}
	b := &fakeCapability{name: "practical_guide", response: "Try this first step."}
	c := &fakeCapability{name: "encouragement", response: "You got this"}
	e := newExecutor(registry(a, b, c))

	res := e.Execute(context.Background(), model.OrchestrationPattern{
		Type:  model.PatternFallback,
		Tools: []string{"quick_answer", "practical_guide", "encouragement"},
	}, session())

	require.Len(t, res.Executions, 2)
	assert.False(t, res.Executions[0].Success)
	assert.True(t, res.Executions[1].Success)
	assert.Zero(t, c.calls.Load())
	assert.False(t, res.Degraded)
	assert.InDelta(t, 0.75, res.Metadata.PatternEffectiveness, 1e-9)
}

func TestExecuteFallbackExhausted(t *testing.T) {
	a := &fakeCapability{name: "quick_answer", fail: true}
	b := &fakeCapability{name: "practical_guide", err: errors.New("down")}
	e := newExecutor(registry(a, b))

	res := e.Execute(context.Background(), model.OrchestrationPattern{
		Type:  model.PatternFallback,
		Tools: []string{"quick_answer", "practical_guide"},
	}, session())

	require.Len(t, res.Executions, 2)
	assert.True(t, res.Degraded)
	assert.Less(t, res.Metadata.PatternEffectiveness, 0.5)
	assert.Empty(t, res.Responses())
}

func TestExecuteUnknownCapability(t *testing.T) {
	e := newExecutor(registry())

	res := e.Execute(context.Background(), model.OrchestrationPattern{
		Type:  model.PatternSingle,
		Tools: []string{"does_not_exist"},
	}, session())

	require.Len(t, res.Executions, 1)
	assert.False(t, res.Executions[0].Success)
	assert.Contains(t, res.Executions[0].Error, "does_not_exist")
	assert.True(t, res.Degraded)
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	c := &fakeCapability{name: "quick_answer", panics: true}
	ok := &fakeCapability{name: "practical_guide", response: "fine"}
	e := newExecutor(registry(c, ok))

	res := e.Execute(context.Background(), model.OrchestrationPattern{
		Type:  model.PatternParallel,
		Tools: []string{"quick_answer", "practical_guide"},
	}, session())

	require.Len(t, res.Executions, 2)
	assert.False(t, res.Executions[0].Success)
	assert.Contains(t, res.Executions[0].Error, "panic")
	assert.True(t, res.Executions[1].Success)
}

func TestExecuteTimesOutSlowCapability(t *testing.T) {
	c := &fakeCapability{name: "deep_dive", response: "late", delay: time.Second}
	cfg := model.DefaultOrchestrationConfig()
	cfg.CapabilityTimeout = 30 * time.Millisecond
	e := New(registry(c), cfg)

	start := time.Now()
	res := e.Execute(context.Background(), model.OrchestrationPattern{
		Type:  model.PatternSingle,
		Tools: []string{"deep_dive"},
	}, session())

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Len(t, res.Executions, 1)
	assert.False(t, res.Executions[0].Success)
	assert.Contains(t, res.Executions[0].Error, context.DeadlineExceeded.Error())
}

func TestExecuteCancelledContext(t *testing.T) {
	c := &fakeCapability{name: "quick_answer", response: "x"}
	e := newExecutor(registry(c))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.Execute(ctx, model.OrchestrationPattern{
		Type:  model.PatternSingle,
		Tools: []string{"quick_answer"},
	}, session())

	require.Len(t, res.Executions, 1)
	assert.False(t, res.Executions[0].Success)
	assert.Zero(t, c.calls.Load())
}

func TestExecuteEmptyPattern(t *testing.T) {
	e := newExecutor(registry())

	res := e.Execute(context.Background(), model.OrchestrationPattern{Type: model.PatternSingle}, session())

	require.NotNil(t, res)
	assert.Empty(t, res.Executions)
	assert.True(t, res.Degraded)
	assert.Zero(t, res.Metadata.PatternEffectiveness)
}
