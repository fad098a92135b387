package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/executor"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

const (
	NodePrepare         = "prepare"
	NodeDetect          = "detect_pattern"
	NodeExecuteSingle   = "execute_single"
	NodeExecuteChain    = "execute_chain"
	NodeExecuteParallel = "execute_parallel"
	NodeExecuteFallback = "execute_fallback"
	NodeRecord          = "record_outcome"
)

// ExecuteNodes lists the strategy nodes the detect branch can route to.
var ExecuteNodes = []string{NodeExecuteSingle, NodeExecuteChain, NodeExecuteParallel, NodeExecuteFallback}

type QueryOptimizer interface {
	Optimize(query string) string
}

type ContextManager interface {
	GetContext(ctx context.Context, sessionID string) (string, error)
	SaveTurn(ctx context.Context, sessionID, message, reply string) error
}

type PatternDetector interface {
	Detect(ctx context.Context, message string, current model.UserState, previous *model.UserState) model.OrchestrationPattern
}

type PatternExecutor interface {
	Execute(ctx context.Context, pattern model.OrchestrationPattern, sc executor.SessionContext) *model.MultiToolResult
}

type Optimizer interface {
	PreWarmTools(tools []string, ctx map[string]any) int
	IsWarm(tool string, ctx map[string]any) bool
	RecordPattern(sessionID string, pattern model.OrchestrationPattern)
	PredictNextTools(sessionID string, current model.UserState, recent []model.OrchestrationPattern) []string
	History(sessionID string) []model.OrchestrationPattern
	Restore(sessionID string, patterns []model.OrchestrationPattern) bool
}

// NewPreparePreHandler resets the per-turn state.
func NewPreparePreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		*s = model.TurnState{
			TurnID: uuid.NewString(),
			Input:  in,
		}
		return in, nil
	}
}

// NewPrepareNode normalises the message, loads the session context, hydrates
// the optimizer from persisted history and checks the warm cache.
func NewPrepareNode(
	queries QueryOptimizer,
	contexts ContextManager,
	opt Optimizer,
	patterns model.PatternHistoryRepository,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (model.TurnInput, error) {
		if queries != nil {
			in.Message = queries.Optimize(in.Message)
		}

		var sessionContext string
		if contexts != nil {
			c, err := contexts.GetContext(ctx, in.SessionID)
			if err != nil {
				logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("Session context unavailable - continuing without it")
			} else {
				sessionContext = c
			}
		}

		if opt != nil && patterns != nil && opt.History(in.SessionID) == nil {
			restored, err := patterns.LoadPatterns(ctx, in.SessionID)
			if err != nil {
				logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("Pattern history unavailable")
			} else if opt.Restore(in.SessionID, restored) {
				logx.Debug().Str("session_id", in.SessionID).Int("patterns", len(restored)).Msg("Optimizer restored from pattern history")
			}
		}

		fingerprint := Fingerprint(in.SessionID)
		warm := false
		if opt != nil && in.CurrentState.Tooling.SuggestedTool != "" {
			warm = opt.IsWarm(in.CurrentState.Tooling.SuggestedTool, fingerprint)
		}

		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			s.Input = in
			s.SessionContext = sessionContext
			s.Fingerprint = fingerprint
			s.Warm = warm
			return nil
		})
		if err != nil {
			return in, fmt.Errorf("failed to access state: %w", err)
		}
		return in, nil
	})
}

// NewDetectNode picks the orchestration pattern for the turn.
func NewDetectNode(d PatternDetector) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (model.OrchestrationPattern, error) {
		return d.Detect(ctx, in.Message, in.CurrentState, in.PreviousState), nil
	})
}

// NewDetectPostHandler keeps the pattern in state for the record node.
func NewDetectPostHandler() func(context.Context, model.OrchestrationPattern, *model.TurnState) (model.OrchestrationPattern, error) {
	return func(ctx context.Context, p model.OrchestrationPattern, s *model.TurnState) (model.OrchestrationPattern, error) {
		clone := p.Clone()
		s.Pattern = &clone
		logx.Debug().
			Str("session_id", s.Input.SessionID).
			Str("turn_id", s.TurnID).
			Str("pattern", string(p.Type)).
			Strs("tools", p.Tools).
			Str("reason", p.Reason).
			Bool("warm", s.Warm).
			Msg("Pattern detected")
		return p, nil
	}
}

// NewStrategyCondition routes a pattern to its strategy node.
func NewStrategyCondition() func(context.Context, model.OrchestrationPattern) (string, error) {
	return func(ctx context.Context, p model.OrchestrationPattern) (string, error) {
		switch p.Type {
		case model.PatternChain:
			return NodeExecuteChain, nil
		case model.PatternParallel:
			return NodeExecuteParallel, nil
		case model.PatternFallback:
			return NodeExecuteFallback, nil
		default:
			return NodeExecuteSingle, nil
		}
	}
}

// NewExecuteNode runs the pattern with the executor. The same node body
// serves every strategy key.
func NewExecuteNode(exec PatternExecutor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, p model.OrchestrationPattern) (*model.MultiToolResult, error) {
		var sc executor.SessionContext
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			sc = executor.SessionContext{
				SessionID: s.Input.SessionID,
				TurnID:    s.TurnID,
				Message:   s.Input.Message,
				Context:   s.SessionContext,
				State:     s.Input.CurrentState,
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return exec.Execute(ctx, p, sc), nil
	})
}

// NewRecordNode feeds the outcome back into the optimizer and persists the
// turn. An abandoned turn is returned but not recorded.
func NewRecordNode(
	opt Optimizer,
	contexts ContextManager,
	patterns model.PatternHistoryRepository,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, res *model.MultiToolResult) (*model.MultiToolResult, error) {
		var (
			in          model.TurnInput
			fingerprint map[string]any
		)
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			in = s.Input
			fingerprint = s.Fingerprint
			return nil
		})
		if err != nil {
			return res, fmt.Errorf("failed to access state: %w", err)
		}

		if err := ctx.Err(); err != nil {
			logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("Turn abandoned - outcome not recorded")
			return res, nil
		}

		if opt != nil {
			opt.RecordPattern(in.SessionID, res.Pattern)
			next := opt.PredictNextTools(in.SessionID, in.CurrentState, nil)
			if added := opt.PreWarmTools(next, fingerprint); added > 0 {
				logx.Debug().Str("session_id", in.SessionID).Strs("tools", next).Int("added", added).Msg("Pre-warmed predicted tools")
			}
		}
		if patterns != nil {
			if err := patterns.AppendPattern(ctx, in.SessionID, res.Pattern); err != nil {
				logx.Error().Err(err).Str("session_id", in.SessionID).Msg("Error saving pattern history")
			}
		}
		if contexts != nil {
			reply := strings.Join(res.Responses(), "\n\n")
			if err := contexts.SaveTurn(ctx, in.SessionID, in.Message, reply); err != nil {
				logx.Error().Err(err).Str("session_id", in.SessionID).Msg("Error saving turn transcript")
			}
		}

		logx.Info().
			Str("session_id", in.SessionID).
			Str("turn_id", res.TurnID).
			Str("pattern", string(res.Pattern.Type)).
			Int("tool_count", res.Metadata.ToolCount).
			Int64("total_execution_ms", res.Metadata.TotalExecutionTime).
			Float64("effectiveness", res.Metadata.PatternEffectiveness).
			Bool("degraded", res.Degraded).
			Msg("Turn orchestrated")
		return res, nil
	})
}

// Fingerprint is the warm-cache context of a turn. Predictions are made per
// session, so the session is the context.
func Fingerprint(sessionID string) map[string]any {
	return map[string]any{"session": sessionID}
}
