package classifiers

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey           string
	BaseURL          string
	ClassifierConfig *model.ClassifierModelConfig
	CapabilityConfig *model.CapabilityModelConfig
}

// ChatModels holds the classifier and capability chat models.
type ChatModels struct {
	Classifier          *gemini.ChatModel
	Capability          *gemini.ChatModel
	ClassifierModelName string
	CapabilityModelName string
}

// NewChatModels creates the classifier and capability Gemini chat models on a
// shared client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.ClassifierConfig == nil || config.CapabilityConfig == nil {
		return nil, fmt.Errorf("chat model configs are nil")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	// Classification must be stable for identical messages.
	classifier, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ClassifierConfig.Model,
		Temperature: &config.ClassifierConfig.Temperature,
		MaxTokens:   &config.ClassifierConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating classifier model")
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}

	capability, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.CapabilityConfig.Model,
		Temperature: &config.CapabilityConfig.Temperature,
		MaxTokens:   &config.CapabilityConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(1024)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating capability model")
		return nil, fmt.Errorf("error creating capability model: %w", err)
	}

	return &ChatModels{
		Classifier:          classifier,
		Capability:          capability,
		ClassifierModelName: config.ClassifierConfig.Model,
		CapabilityModelName: config.CapabilityConfig.Model,
	}, nil
}
