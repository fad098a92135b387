package classifiers

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	errx "github.com/tutor-orchestrator/server/internal/core/error"
	"github.com/tutor-orchestrator/server/internal/tutor/model"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/parsers"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/prompts"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

// NLUClassifier is the external state/intent classification capability backed
// by a chat model. Its output is consumed as a black box by the router and the
// state monitor.
type NLUClassifier struct {
	chatModel einomodel.BaseChatModel
	modelName string
	cfg       model.ClassifierModelConfig
	maxTurns  int
}

func NewNLUClassifier(chatModel einomodel.BaseChatModel, cfg model.ClassifierModelConfig, historyTurns int) (*NLUClassifier, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("classifier chat model is nil")
	}
	return &NLUClassifier{
		chatModel: chatModel,
		modelName: cfg.Model,
		cfg:       cfg,
		maxTurns:  historyTurns,
	}, nil
}

// Analyze classifies message in the light of the most recent history lines.
func (c *NLUClassifier) Analyze(ctx context.Context, message string, history []string) (*model.NLUAnalysis, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errx.ClassifierFailed(fmt.Errorf("empty message"))
	}

	system, err := prompts.RenderClassifierSystem(ctx, &c.cfg)
	if err != nil {
		return nil, errx.ClassifierFailed(err)
	}

	if c.maxTurns > 0 && len(history) > c.maxTurns {
		history = history[len(history)-c.maxTurns:]
	}
	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompts.BuildClassifierInput(message, history)),
	}

	out, err := c.chatModel.Generate(ctx, msgs)
	if err != nil {
		logx.Warn().Err(err).Str("component", "nlu_classifier").Msg("Classifier call failed")
		return nil, errx.ClassifierFailed(err)
	}
	if out == nil {
		return nil, errx.ClassifierFailed(fmt.Errorf("empty classifier response"))
	}

	if cost, ok := model.UsageFromMessage(c.modelName, out); ok {
		logx.Debug().
			Str("component", "nlu_classifier").
			Str("model", cost.Model).
			Int("prompt_tokens", cost.PromptTokens).
			Int("completion_tokens", cost.CompletionTokens).
			Float64("total_cost_usd", cost.TotalCost).
			Msg("LLM usage")
	}

	analysis, err := parsers.ParseNLUResponse(out.Content)
	if err != nil {
		return nil, errx.ClassifierFailed(err)
	}
	return analysis, nil
}
