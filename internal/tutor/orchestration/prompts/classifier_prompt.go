package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/parsers"
)

//go:embed template/classifier_prompt.txt
var classifierSystemPrompt string

// RenderClassifierSystem renders the classifier system prompt via the eino
// prompt component so prompt callbacks fire.
func RenderClassifierSystem(ctx context.Context, cfg *model.ClassifierModelConfig) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("classifier config is nil")
	}

	// Replace known tokens only; the template carries literal JSON braces.
	content := strings.NewReplacer(
		"{TD}", parsers.TupleDelimiter,
		"{RD}", parsers.RecordDelimiter,
		"{CD}", parsers.CompleteDelimiter,
		"{intents}", cfg.Intents,
		"{sentiments}", cfg.Sentiments,
	).Replace(classifierSystemPrompt)

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("classifier prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("classifier prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// BuildClassifierInput wraps recent turns and the message to analyse.
func BuildClassifierInput(message string, history []string) string {
	var b strings.Builder
	b.WriteString("<conversation_context>\n")
	for _, h := range history {
		if strings.TrimSpace(h) == "" {
			continue
		}
		b.WriteString(h)
		b.WriteString("\n")
	}
	b.WriteString("</conversation_context>\n")
	b.WriteString("<current_message_to_analyze>\n")
	b.WriteString("UserMessage(" + message + ")\n")
	b.WriteString("</current_message_to_analyze>")
	return b.String()
}
