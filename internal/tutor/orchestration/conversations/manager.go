package conversations

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
)

// Manager reads and writes session transcripts.
type Manager struct {
	repo     model.ConversationRepository
	maxTurns int
}

func NewManager(repo model.ConversationRepository, cfg model.ConversationConfig) *Manager {
	return &Manager{repo: repo, maxTurns: cfg.ContextMaxTurns}
}

// GetContext returns the recent transcript of the session as one blob.
func (m *Manager) GetContext(ctx context.Context, sessionID string) (string, error) {
	lines, err := m.PriorTurns(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// PriorTurns returns the recent transcript as UserMessage(...) and
// AssistantMessage(...) lines, oldest first.
func (m *Manager) PriorTurns(ctx context.Context, sessionID string) ([]string, error) {
	history, err := m.repo.LoadHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if history == nil {
		return nil, nil
	}

	recent := trimTail(history.Messages, m.maxTurns)
	lines := make([]string, 0, len(recent))
	for _, msg := range recent {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			lines = append(lines, "UserMessage("+msg.Content+")")
		case schema.Assistant:
			lines = append(lines, "AssistantMessage("+msg.Content+")")
		}
	}
	return lines, nil
}

// SaveTurn appends the learner message and, when present, the reply.
func (m *Manager) SaveTurn(ctx context.Context, sessionID, message, reply string) error {
	if err := m.repo.AddMessage(ctx, sessionID, schema.UserMessage(message)); err != nil {
		return fmt.Errorf("save user message: %w", err)
	}
	if reply == "" {
		return nil
	}
	if err := m.repo.AddMessage(ctx, sessionID, schema.AssistantMessage(reply, nil)); err != nil {
		return fmt.Errorf("save reply: %w", err)
	}
	return nil
}

func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	return m.repo.ClearHistory(ctx, sessionID)
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
