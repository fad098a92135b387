package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
)

//go:embed template/capability_prompt.txt
var capabilitySystemPrompt string

// CapabilityPromptVars describes the capability persona being rendered.
type CapabilityPromptVars struct {
	TutorName   string
	Capability  string
	Description string
}

// RenderCapabilitySystem renders the persona prompt of one capability for the
// given invocation input.
func RenderCapabilitySystem(ctx context.Context, vars CapabilityPromptVars, in model.CapabilityInput) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(capabilitySystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"TutorName":      vars.TutorName,
		"Capability":     vars.Capability,
		"Description":    vars.Description,
		"Intent":         string(in.State.Intent.Current),
		"Depth":          string(in.State.Depth.Current),
		"Sentiment":      string(in.State.Sentiment.Type),
		"Frustration":    in.State.Sentiment.FrustrationLevel,
		"Pattern":        string(in.Pattern),
		"SessionContext": in.SessionContext,
		"Prior":          in.Prior,
	})
	if err != nil {
		return "", fmt.Errorf("capability prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("capability prompt render: empty result")
	}
	return msgs[0].Content, nil
}
