package model

// ToolExecution records one capability invocation.
type ToolExecution struct {
	Tool       string `json:"tool"`
	Success    bool   `json:"success"`
	Response   string `json:"response,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// ResultMetadata is read by the analytics layer.
type ResultMetadata struct {
	ToolCount            int     `json:"toolCount"`
	TotalExecutionTime   int64   `json:"totalExecutionTime"`
	PatternEffectiveness float64 `json:"patternEffectiveness"`
}

// MultiToolResult is returned synchronously per turn; the caller owns it.
type MultiToolResult struct {
	TurnID     string               `json:"turnId,omitempty"`
	SessionID  string               `json:"sessionId,omitempty"`
	Pattern    OrchestrationPattern `json:"pattern"`
	Executions []ToolExecution      `json:"executions"`
	Metadata   ResultMetadata       `json:"metadata"`
	// Degraded is set when no capability produced a usable response.
	Degraded bool `json:"degraded,omitempty"`
}

// Succeeded reports whether at least one execution succeeded.
func (r *MultiToolResult) Succeeded() bool {
	if r == nil {
		return false
	}
	for _, e := range r.Executions {
		if e.Success {
			return true
		}
	}
	return false
}

// Responses returns successful responses in execution order, for reply assembly.
func (r *MultiToolResult) Responses() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Executions))
	for _, e := range r.Executions {
		if e.Success && e.Response != "" {
			out = append(out, e.Response)
		}
	}
	return out
}
