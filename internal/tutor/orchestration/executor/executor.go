package executor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	errx "github.com/tutor-orchestrator/server/internal/core/error"
	"github.com/tutor-orchestrator/server/internal/tutor/model"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
	"github.com/tutor-orchestrator/server/pkg/tracing"
)

// SessionContext is the per-turn input shared by every invocation of a pattern.
type SessionContext struct {
	SessionID string
	TurnID    string
	Message   string
	// Context is the session context blob from the context manager.
	Context string
	State   model.UserState
}

// Executor runs an orchestration pattern against a capability registry. Every
// invocation is isolated: errors, panics, timeouts and unknown names become
// failed execution entries.
type Executor struct {
	registry    model.CapabilityRegistry
	timeout     time.Duration
	maxParallel int
	slow        time.Duration
	tracer      trace.Tracer
}

func New(registry model.CapabilityRegistry, cfg model.OrchestrationConfig) *Executor {
	slow := cfg.SlowExecution
	if slow <= 0 {
		slow = DefaultSlowExecution
	}
	return &Executor{
		registry:    registry,
		timeout:     cfg.CapabilityTimeout,
		maxParallel: cfg.MaxParallel,
		slow:        slow,
		tracer:      tracing.Tracer(),
	}
}

// Execute always returns a well-formed result, even when every capability failed.
func (e *Executor) Execute(ctx context.Context, pattern model.OrchestrationPattern, sc SessionContext) *model.MultiToolResult {
	start := time.Now()

	var executions []model.ToolExecution
	switch {
	case len(pattern.Tools) == 0:
		logx.Warn().Str("session_id", sc.SessionID).Str("pattern", string(pattern.Type)).
			Msg("Pattern has no tools - returning degraded result")
	case pattern.Type == model.PatternChain:
		executions = e.runChain(ctx, pattern, sc)
	case pattern.Type == model.PatternParallel:
		executions = e.runParallel(ctx, pattern, sc)
	case pattern.Type == model.PatternFallback:
		executions = e.runFallback(ctx, pattern, sc)
	default:
		// single and handoff invoke exactly one capability
		executions = []model.ToolExecution{e.invoke(ctx, pattern.Tools[0], e.input(pattern, sc, nil))}
	}

	return e.assemble(pattern, sc, executions, time.Since(start))
}

func (e *Executor) runChain(ctx context.Context, pattern model.OrchestrationPattern, sc SessionContext) []model.ToolExecution {
	executions := make([]model.ToolExecution, 0, len(pattern.Tools))
	var prior []model.StageOutput
	for _, tool := range pattern.Tools {
		exec := e.invoke(ctx, tool, e.input(pattern, sc, prior))
		executions = append(executions, exec)
		if exec.Success {
			prior = append(prior, model.StageOutput{Tool: tool, Response: exec.Response})
		}
	}
	return executions
}

func (e *Executor) runParallel(ctx context.Context, pattern model.OrchestrationPattern, sc SessionContext) []model.ToolExecution {
	executions := make([]model.ToolExecution, len(pattern.Tools))
	intents := patternIntents(pattern)

	// No shared cancellation: one failure must not cut its siblings short.
	var g errgroup.Group
	if e.maxParallel > 0 {
		g.SetLimit(e.maxParallel)
	}
	for i, tool := range pattern.Tools {
		in := e.input(pattern, sc, nil)
		if i < len(intents) {
			in.Intent = intents[i]
		}
		g.Go(func() error {
			executions[i] = e.invoke(ctx, tool, in)
			return nil
		})
	}
	_ = g.Wait()
	return executions
}

func (e *Executor) runFallback(ctx context.Context, pattern model.OrchestrationPattern, sc SessionContext) []model.ToolExecution {
	executions := make([]model.ToolExecution, 0, len(pattern.Tools))
	for _, tool := range pattern.Tools {
		exec := e.invoke(ctx, tool, e.input(pattern, sc, nil))
		executions = append(executions, exec)
		if exec.Success {
			break
		}
	}
	return executions
}

func (e *Executor) input(pattern model.OrchestrationPattern, sc SessionContext, prior []model.StageOutput) model.CapabilityInput {
	in := model.CapabilityInput{
		SessionID:      sc.SessionID,
		Message:        sc.Message,
		SessionContext: sc.Context,
		State:          sc.State,
		Pattern:        pattern.Type,
		Intent:         sc.State.Intent.Current,
	}
	if len(prior) > 0 {
		in.Prior = append([]model.StageOutput(nil), prior...)
	}
	return in
}

// invoke runs one capability under its own timeout and turns every failure
// mode into a failed entry.
func (e *Executor) invoke(ctx context.Context, tool string, in model.CapabilityInput) model.ToolExecution {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "capability.execute", trace.WithAttributes(
		attribute.String("capability.name", tool),
		attribute.String("orchestration.pattern", string(in.Pattern)),
		attribute.String("session.id", in.SessionID),
	))
	defer span.End()

	out, err := e.call(ctx, tool, in)
	exec := model.ToolExecution{
		Tool:       tool,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err == nil && !out.Success {
		err = errx.CapabilityFailed(tool, nil)
	}
	if err != nil {
		exec.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "capability failed")
		logx.Warn().
			Err(err).
			Str("session_id", in.SessionID).
			Str("tool", tool).
			Str("pattern", string(in.Pattern)).
			Int64("duration_ms", exec.DurationMs).
			Msg("Capability invocation failed")
		return exec
	}

	exec.Success = true
	exec.Response = out.Response
	span.SetAttributes(attribute.Int("capability.response_len", len(out.Response)))
	logx.Debug().
		Str("session_id", in.SessionID).
		Str("tool", tool).
		Int64("duration_ms", exec.DurationMs).
		Msg("Capability invocation succeeded")
	return exec
}

func (e *Executor) call(ctx context.Context, tool string, in model.CapabilityInput) (model.CapabilityOutput, error) {
	if err := ctx.Err(); err != nil {
		return model.CapabilityOutput{}, errx.CapabilityFailed(tool, err)
	}
	if e.registry == nil {
		return model.CapabilityOutput{}, errx.UnknownCapability(tool)
	}
	handle, err := e.registry.Tool(tool)
	if err != nil {
		return model.CapabilityOutput{}, err
	}
	if handle == nil {
		return model.CapabilityOutput{}, errx.UnknownCapability(tool)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	type outcome struct {
		out model.CapabilityOutput
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("capability panic: %v", r)}
			}
		}()
		out, err := handle.Execute(ctx, in)
		done <- outcome{out: out, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return o.out, errx.CapabilityFailed(tool, o.err)
		}
		return o.out, nil
	case <-ctx.Done():
		return model.CapabilityOutput{}, errx.CapabilityFailed(tool, ctx.Err())
	}
}

func (e *Executor) assemble(pattern model.OrchestrationPattern, sc SessionContext, executions []model.ToolExecution, elapsed time.Duration) *model.MultiToolResult {
	if executions == nil {
		executions = []model.ToolExecution{}
	}
	result := &model.MultiToolResult{
		TurnID:     sc.TurnID,
		SessionID:  sc.SessionID,
		Pattern:    pattern,
		Executions: executions,
		Metadata: model.ResultMetadata{
			ToolCount:            len(executions),
			TotalExecutionTime:   elapsed.Milliseconds(),
			PatternEffectiveness: Score(pattern, executions, e.slow),
		},
	}
	result.Degraded = !result.Succeeded()
	if result.Degraded {
		logx.Warn().
			Str("session_id", sc.SessionID).
			Str("pattern", string(pattern.Type)).
			Int("attempts", len(executions)).
			Msg("No capability succeeded - degraded result")
	}
	return result
}

func patternIntents(pattern model.OrchestrationPattern) []model.IntentType {
	raw, ok := pattern.Context[model.ContextIntents]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		out := make([]model.IntentType, len(v))
		for i, s := range v {
			out[i] = model.IntentType(s)
		}
		return out
	case []model.IntentType:
		return v
	default:
		return nil
	}
}
