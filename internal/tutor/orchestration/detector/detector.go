package detector

import (
	"context"
	"time"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

const (
	ReasonDepthProgression = "Depth progression detected"
	ReasonHighFrustration  = "High frustration detected"
	ReasonMultipleIntents  = "Multiple independent intents detected"
	ReasonDefault          = "Suggested tool fits current state"
)

// ToolSelector resolves the capability for an intent at a depth stage.
type ToolSelector interface {
	SelectToolForIntent(intent model.IntentType, depth model.Depth) string
}

// IntentDetector reports the independent intents present in a message.
type IntentDetector interface {
	DetectIntents(ctx context.Context, message string) ([]model.IntentType, error)
}

// Detector picks the orchestration pattern for a turn. Rules are evaluated in
// priority order and the first match wins.
type Detector struct {
	selector             ToolSelector
	intents              IntentDetector
	frustrationThreshold float64
	classifierTimeout    time.Duration
	fallbackTools        []string
	defaultTool          string
}

// New builds a detector. intents may be nil, which disables the parallel rule.
func New(selector ToolSelector, intents IntentDetector, cfg model.OrchestrationConfig) *Detector {
	fallback := append([]string(nil), cfg.FallbackTools...)
	if len(fallback) == 0 {
		fallback = model.DefaultOrchestrationConfig().FallbackTools
	}
	threshold := cfg.FrustrationThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = model.DefaultOrchestrationConfig().FrustrationThreshold
	}
	defaultTool := cfg.DefaultTool
	if defaultTool == "" {
		defaultTool = model.DefaultOrchestrationConfig().DefaultTool
	}
	return &Detector{
		selector:             selector,
		intents:              intents,
		frustrationThreshold: threshold,
		classifierTimeout:    cfg.ClassifierTimeout,
		fallbackTools:        fallback,
		defaultTool:          defaultTool,
	}
}

// Detect returns a fresh pattern for the turn. It never fails: a multi-intent
// classifier error or timeout is treated as "no parallel intents".
func (d *Detector) Detect(ctx context.Context, message string, current model.UserState, previous *model.UserState) model.OrchestrationPattern {
	if p, ok := d.detectHandoff(current, previous); ok {
		return p
	}
	if p, ok := d.detectChain(current, previous); ok {
		return p
	}
	if p, ok := d.detectFallback(current); ok {
		return p
	}
	if p, ok := d.detectParallel(ctx, message, current); ok {
		return p
	}
	return model.OrchestrationPattern{
		Type:   model.PatternSingle,
		Reason: ReasonDefault,
		Tools:  []string{d.suggestedTool(current)},
	}
}

func (d *Detector) detectHandoff(current model.UserState, previous *model.UserState) (model.OrchestrationPattern, bool) {
	if !current.Intent.Changed || current.Intent.ChangeReason == "" {
		return model.OrchestrationPattern{}, false
	}
	pctx := map[string]any{
		model.ContextNewIntent: string(current.Intent.Current),
	}
	if previous != nil {
		pctx[model.ContextPreviousIntent] = string(previous.Intent.Current)
	}
	if prevTool := current.Tooling.CurrentToolAppropriate; prevTool != "" {
		pctx[model.ContextPreviousTool] = prevTool
	} else if previous != nil && previous.Tooling.SuggestedTool != "" {
		pctx[model.ContextPreviousTool] = previous.Tooling.SuggestedTool
	}
	return model.OrchestrationPattern{
		Type:    model.PatternHandoff,
		Reason:  current.Intent.ChangeReason,
		Tools:   []string{d.suggestedTool(current)},
		Context: pctx,
	}, true
}

func (d *Detector) detectChain(current model.UserState, previous *model.UserState) (model.OrchestrationPattern, bool) {
	if !current.Depth.ChangeIndicator || previous == nil {
		return model.OrchestrationPattern{}, false
	}
	stages := model.StagesBetween(previous.Depth.Current, current.Depth.Current)
	if len(stages) < 2 {
		return model.OrchestrationPattern{}, false
	}
	tools := make([]string, 0, len(stages))
	for _, stage := range stages {
		tools = append(tools, d.toolFor(current.Intent.Current, stage))
	}
	return model.OrchestrationPattern{
		Type:   model.PatternChain,
		Reason: ReasonDepthProgression,
		Tools:  tools,
		Context: map[string]any{
			model.ContextFromDepth: string(previous.Depth.Current),
			model.ContextToDepth:   string(current.Depth.Current),
		},
	}, true
}

func (d *Detector) detectFallback(current model.UserState) (model.OrchestrationPattern, bool) {
	if current.Sentiment.FrustrationLevel < d.frustrationThreshold {
		return model.OrchestrationPattern{}, false
	}
	return model.OrchestrationPattern{
		Type:   model.PatternFallback,
		Reason: ReasonHighFrustration,
		Tools:  append([]string(nil), d.fallbackTools...),
	}, true
}

func (d *Detector) detectParallel(ctx context.Context, message string, current model.UserState) (model.OrchestrationPattern, bool) {
	if d.intents == nil || message == "" {
		return model.OrchestrationPattern{}, false
	}

	intents, err := d.probeIntents(ctx, message)
	if err != nil {
		logx.Debug().Err(err).Str("component", "pattern_detector").
			Msg("Multi-intent probe failed - treating as no parallel intents")
		return model.OrchestrationPattern{}, false
	}
	if len(intents) < 2 {
		return model.OrchestrationPattern{}, false
	}

	seen := make(map[string]bool, len(intents))
	tools := make([]string, 0, len(intents))
	names := make([]string, 0, len(intents))
	for _, intent := range intents {
		tool := d.toolFor(intent, current.Depth.Current)
		if seen[tool] {
			continue
		}
		seen[tool] = true
		tools = append(tools, tool)
		names = append(names, string(intent))
	}
	if len(tools) < 2 {
		return model.OrchestrationPattern{}, false
	}
	return model.OrchestrationPattern{
		Type:    model.PatternParallel,
		Reason:  ReasonMultipleIntents,
		Tools:   tools,
		Context: map[string]any{model.ContextIntents: names},
	}, true
}

// probeIntents is the single suspension point of the detector. It runs the
// classifier under its own timeout and recovers from a panicking classifier.
func (d *Detector) probeIntents(ctx context.Context, message string) (intents []model.IntentType, err error) {
	if d.classifierTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.classifierTimeout)
		defer cancel()
	}

	type probe struct {
		intents []model.IntentType
		err     error
	}
	done := make(chan probe, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- probe{err: errPanic{r}}
			}
		}()
		out, err := d.intents.DetectIntents(ctx, message)
		done <- probe{intents: out, err: err}
	}()

	select {
	case p := <-done:
		return p.intents, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *Detector) suggestedTool(current model.UserState) string {
	if current.Tooling.SuggestedTool != "" {
		return current.Tooling.SuggestedTool
	}
	return d.toolFor(current.Intent.Current, current.Depth.Current)
}

func (d *Detector) toolFor(intent model.IntentType, depth model.Depth) string {
	if d.selector != nil {
		if tool := d.selector.SelectToolForIntent(intent, depth); tool != "" {
			return tool
		}
	}
	return d.defaultTool
}
