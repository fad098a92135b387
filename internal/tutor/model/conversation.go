package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type ConversationRepository interface {
	// AddMessage appends a message to the transcript of the session
	AddMessage(ctx context.Context, sessionID string, message *schema.Message) error

	// LoadHistory retrieves the transcript of a session
	LoadHistory(ctx context.Context, sessionID string) (*ConversationHistory, error)

	// ClearHistory removes the transcript of a session
	ClearHistory(ctx context.Context, sessionID string) error

	// GetMessageCount returns the number of messages in the transcript
	GetMessageCount(ctx context.Context, sessionID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	SessionID string
	Messages  []*schema.Message
}

// PatternHistoryRepository mirrors the optimizer's per-session pattern log so it
// survives restarts.
type PatternHistoryRepository interface {
	AppendPattern(ctx context.Context, sessionID string, pattern OrchestrationPattern) error
	LoadPatterns(ctx context.Context, sessionID string) ([]OrchestrationPattern, error)
	ClearPatterns(ctx context.Context, sessionID string) error
}
