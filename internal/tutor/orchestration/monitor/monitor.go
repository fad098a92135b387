package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

const (
	lexicalConfidence = 0.5
	// Frustration carried over from the previous turn when no marker fires.
	frustrationDecay = 0.6
)

// Analyzer is the single external classification call of the monitor.
type Analyzer interface {
	Analyze(ctx context.Context, message string, history []string) (*model.NLUAnalysis, error)
}

type ToolSelector interface {
	SelectToolForIntent(intent model.IntentType, depth model.Depth) string
}

// TurnObservation is what the monitor sees of one incoming turn.
type TurnObservation struct {
	Message      string
	PriorTurns   []string
	PreviousTool string
	Previous     *model.UserState
}

// Monitor builds the UserState for each turn.
type Monitor struct {
	analyzer         Analyzer
	selector         ToolSelector
	timeout          time.Duration
	stuckTurns       int
	stuckFrustration float64
}

// New builds a monitor. A nil analyzer runs on lexical signals only.
func New(analyzer Analyzer, selector ToolSelector, cfg model.MonitorConfig) *Monitor {
	def := model.DefaultMonitorConfig()
	if cfg.StuckTurns <= 0 {
		cfg.StuckTurns = def.StuckTurns
	}
	if cfg.StuckFrustration <= 0 {
		cfg.StuckFrustration = def.StuckFrustration
	}
	return &Monitor{
		analyzer:         analyzer,
		selector:         selector,
		timeout:          cfg.AnalyzeTimeout,
		stuckTurns:       cfg.StuckTurns,
		stuckFrustration: cfg.StuckFrustration,
	}
}

// Analyze never fails. A failing or slow classifier degrades to lexical signals.
func (m *Monitor) Analyze(ctx context.Context, obs TurnObservation) model.UserState {
	lex := readLexical(obs.Message)
	analysis := m.classify(ctx, obs)

	var prev model.UserState
	if obs.Previous != nil {
		prev = obs.Previous.Normalize()
	}

	state := model.UserState{
		Sentiment: m.sentiment(analysis, lex, obs.Previous),
	}

	// intent
	intent := lex.intent
	if analysis != nil && analysis.PrimaryIntent.IsValid() {
		intent = analysis.PrimaryIntent
	}
	if !intent.IsValid() {
		intent = model.IntentUnderstand
		if obs.Previous != nil {
			intent = prev.Intent.Current
		}
	}
	state.Intent.Current = intent
	if obs.Previous != nil && prev.Intent.Current != intent {
		state.Intent.Changed = true
		state.Intent.ChangeReason = fmt.Sprintf("User shifted from %s to %s", prev.Intent.Current.Gerund(), intent.Gerund())
	}

	// depth
	requested := lex.depth
	if analysis != nil && analysis.RequestedDepth.IsValid() {
		requested = analysis.RequestedDepth
	}
	if !requested.IsValid() {
		requested = model.DepthSurface
		if obs.Previous != nil {
			requested = prev.Depth.Current
		}
	}
	state.Depth = model.DepthState{Current: requested, Requested: requested}
	if obs.Previous != nil && prev.Depth.Current != requested {
		state.Depth.ChangeIndicator = true
	}

	// dynamics
	switch {
	case obs.Previous == nil || state.Depth.ChangeIndicator:
		state.Dynamics.TurnsAtCurrentDepth = 0
	default:
		state.Dynamics.TurnsAtCurrentDepth = prev.Dynamics.TurnsAtCurrentDepth + 1
	}
	switch {
	case obs.Previous != nil && requested.Index() > prev.Depth.Current.Index():
		state.Dynamics.ProgressionPattern = model.ProgressionDeepening
	case state.Dynamics.TurnsAtCurrentDepth >= m.stuckTurns && state.Sentiment.FrustrationLevel >= m.stuckFrustration:
		state.Dynamics.ProgressionPattern = model.ProgressionStuck
	default:
		state.Dynamics.ProgressionPattern = model.ProgressionStable
	}

	// tooling
	if m.selector != nil {
		state.Tooling.SuggestedTool = m.selector.SelectToolForIntent(intent, requested)
	}
	switch {
	case obs.PreviousTool != "":
		state.Tooling.CurrentToolAppropriate = obs.PreviousTool
	case obs.Previous != nil && prev.Tooling.SuggestedTool != "":
		state.Tooling.CurrentToolAppropriate = prev.Tooling.SuggestedTool
	default:
		state.Tooling.CurrentToolAppropriate = state.Tooling.SuggestedTool
	}

	return state.Normalize()
}

func (m *Monitor) sentiment(analysis *model.NLUAnalysis, lex lexicalSignals, previous *model.UserState) model.Sentiment {
	carried := 0.0
	if previous != nil {
		carried = model.Clamp01(previous.Sentiment.FrustrationLevel) * frustrationDecay
	}

	if analysis == nil {
		out := model.Sentiment{Type: lex.sentiment, FrustrationLevel: lex.frustration, Confidence: lexicalConfidence}
		if lex.frustration == 0 {
			out.FrustrationLevel = carried
		}
		return out
	}

	out := model.Sentiment{
		Type:             model.ParseSentimentType(string(analysis.Sentiment)),
		FrustrationLevel: max(analysis.Frustration, lex.frustration),
		Confidence:       analysis.SentimentConf,
	}
	if out.FrustrationLevel == 0 {
		out.FrustrationLevel = carried
	}
	if lex.frustration > 0 && out.Type == model.SentimentNeutral {
		out.Type = model.SentimentFrustrated
	}
	return out
}

// classify is the only suspension point. Any failure yields nil.
func (m *Monitor) classify(ctx context.Context, obs TurnObservation) (analysis *model.NLUAnalysis) {
	if m.analyzer == nil {
		return nil
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Interface("panic", r).Msg("State classifier panicked - using lexical signals")
			analysis = nil
		}
	}()

	res, err := m.analyzer.Analyze(ctx, obs.Message, obs.PriorTurns)
	if err != nil {
		logx.Warn().Err(err).Msg("State classifier failed - using lexical signals")
		return nil
	}
	return res
}
