package executor

import (
	"time"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
)

// DefaultSlowExecution is the mean invocation latency above which a pattern
// loses a little effectiveness.
const DefaultSlowExecution = 10 * time.Second

const (
	exhaustedFallbackScore = 0.05
	latencyPenalty         = 0.05
	latencyPenaltyFloor    = 0.55
)

// Effectiveness scores a finished pattern with the default latency budget.
func Effectiveness(pattern model.OrchestrationPattern, executions []model.ToolExecution) float64 {
	return Score(pattern, executions, DefaultSlowExecution)
}

// Score is a pure function of the pattern and its executions. The result is in
// [0,1], above 0.5 when every execution succeeded and below 0.5 when every
// execution failed.
func Score(pattern model.OrchestrationPattern, executions []model.ToolExecution, slow time.Duration) float64 {
	if len(executions) == 0 {
		return 0
	}

	succeeded, firstSuccess := 0, -1
	var totalMs int64
	for i, e := range executions {
		if e.Success {
			succeeded++
			if firstSuccess < 0 {
				firstSuccess = i
			}
		}
		totalMs += e.DurationMs
	}
	rate := float64(succeeded) / float64(len(executions))

	var score float64
	switch pattern.Type {
	case model.PatternFallback:
		if firstSuccess < 0 {
			return exhaustedFallbackScore
		}
		// Each extra attempt the learner had to wait for costs a little.
		score = 0.9 - 0.15*float64(firstSuccess)
		if score < latencyPenaltyFloor {
			score = latencyPenaltyFloor
		}
	case model.PatternChain:
		score = 0.2 + 0.7*rate
		if succeeded == len(executions) && len(executions) >= len(pattern.Tools) {
			score += 0.1
		}
	case model.PatternParallel:
		score = 0.25 + 0.65*rate
	default:
		score = 0.3 + 0.6*rate
	}

	if slow > 0 && score > latencyPenaltyFloor {
		mean := totalMs / int64(len(executions))
		if mean > slow.Milliseconds() {
			score -= latencyPenalty
		}
	}
	return model.Clamp01(score)
}
