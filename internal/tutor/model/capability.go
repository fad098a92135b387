package model

import "context"

// StageOutput is a completed earlier stage passed down a chain.
type StageOutput struct {
	Tool     string `json:"tool"`
	Response string `json:"response"`
}

// CapabilityInput is everything a capability sees for one invocation.
type CapabilityInput struct {
	SessionID      string        `json:"sessionId"`
	Message        string        `json:"message"`
	SessionContext string        `json:"sessionContext,omitempty"`
	State          UserState     `json:"state"`
	Pattern        PatternType   `json:"pattern"`
	Intent         IntentType    `json:"intent,omitempty"`
	Prior          []StageOutput `json:"prior,omitempty"`
}

// CapabilityOutput is the raw answer of a capability.
type CapabilityOutput struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
}

// Capability is a named unit that produces a response for an input.
type Capability interface {
	Name() string
	Execute(ctx context.Context, in CapabilityInput) (CapabilityOutput, error)
}

// CapabilityRegistry resolves capability handles by name. Unknown names return
// an error, which executors record as a failed execution.
type CapabilityRegistry interface {
	Tool(name string) (Capability, error)
}
