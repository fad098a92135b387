package capabilities

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/prompts"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

// ModelCapability answers with a chat model under a per-capability persona.
type ModelCapability struct {
	spec      Spec
	tutorName string
	chatModel einomodel.BaseChatModel
	modelName string
}

func NewModelCapability(spec Spec, chatModel einomodel.BaseChatModel, cfg model.CapabilityModelConfig) (*ModelCapability, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("capability %q: chat model is nil", spec.Name)
	}
	return &ModelCapability{
		spec:      spec,
		tutorName: cfg.TutorName,
		chatModel: chatModel,
		modelName: cfg.Model,
	}, nil
}

func (c *ModelCapability) Name() string { return c.spec.Name }

func (c *ModelCapability) Execute(ctx context.Context, in model.CapabilityInput) (model.CapabilityOutput, error) {
	system, err := prompts.RenderCapabilitySystem(ctx, prompts.CapabilityPromptVars{
		TutorName:   c.tutorName,
		Capability:  c.spec.Name,
		Description: c.spec.Description,
	}, in)
	if err != nil {
		return model.CapabilityOutput{}, err
	}

	out, err := c.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(in.Message),
	})
	if err != nil {
		return model.CapabilityOutput{}, fmt.Errorf("generate: %w", err)
	}
	if out == nil {
		return model.CapabilityOutput{}, nil
	}

	if cost, ok := model.UsageFromMessage(c.modelName, out); ok {
		logx.Debug().
			Str("session_id", in.SessionID).
			Str("capability", c.spec.Name).
			Str("model", cost.Model).
			Int("prompt_tokens", cost.PromptTokens).
			Int("completion_tokens", cost.CompletionTokens).
			Int("total_tokens", cost.TotalTokens).
			Float64("total_cost_usd", cost.TotalCost).
			Msg("LLM usage")
	}

	response := strings.TrimSpace(out.Content)
	return model.CapabilityOutput{Response: response, Success: response != ""}, nil
}
