package model

// PatternType is the orchestration strategy chosen for one turn.
type PatternType string

const (
	PatternSingle   PatternType = "single"
	PatternHandoff  PatternType = "handoff"
	PatternChain    PatternType = "chain"
	PatternParallel PatternType = "parallel"
	PatternFallback PatternType = "fallback"
)

// Context keys carried in OrchestrationPattern.Context.
const (
	ContextPreviousIntent = "previousIntent"
	ContextNewIntent      = "newIntent"
	ContextPreviousTool   = "previousTool"
	ContextFromDepth      = "fromDepth"
	ContextToDepth        = "toDepth"
	ContextIntents        = "intents"
)

// OrchestrationPattern is created fresh for every turn and never mutated after
// the detector returns it.
type OrchestrationPattern struct {
	Type    PatternType    `json:"type"`
	Reason  string         `json:"reason"`
	Tools   []string       `json:"tools"`
	Context map[string]any `json:"context,omitempty"`
}

// PrimaryTool returns the first tool of the pattern.
func (p OrchestrationPattern) PrimaryTool() string {
	if len(p.Tools) == 0 {
		return ""
	}
	return p.Tools[0]
}

// LastTool returns the final tool of the pattern.
func (p OrchestrationPattern) LastTool() string {
	if len(p.Tools) == 0 {
		return ""
	}
	return p.Tools[len(p.Tools)-1]
}

// Clone returns a deep-enough copy so the caller can keep the pattern after
// the producer moves on.
func (p OrchestrationPattern) Clone() OrchestrationPattern {
	out := p
	out.Tools = append([]string(nil), p.Tools...)
	if p.Context != nil {
		out.Context = make(map[string]any, len(p.Context))
		for k, v := range p.Context {
			out.Context[k] = v
		}
	}
	return out
}
