package model

// TurnInput is the graph input for one orchestrate call.
type TurnInput struct {
	SessionID     string     `json:"session_id"`
	Message       string     `json:"message"`
	CurrentState  UserState  `json:"current_state"`
	PreviousState *UserState `json:"previous_state,omitempty"`
}

// TurnState stores per-invocation state for the orchestration graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState.
//   - Read and written only inside state handlers or compose.ProcessState,
//     which eino serialises, so no extra locking is needed.
type TurnState struct {
	TurnID         string
	Input          TurnInput
	SessionContext string
	Fingerprint    map[string]any
	// Warm reports whether the suggested tool was pre-warmed for this context.
	Warm    bool
	Pattern *OrchestrationPattern
}
