package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/tutor-orchestrator/server/internal/core"
	"github.com/tutor-orchestrator/server/internal/tutor/model"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/capabilities"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/classifiers"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/conversations"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/detector"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/executor"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/monitor"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/observers"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/optimizer"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/router"
	"github.com/tutor-orchestrator/server/internal/tutor/repo"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
	pkgredis "github.com/tutor-orchestrator/server/pkg/redis"
	"github.com/tutor-orchestrator/server/pkg/tracing"
)

// AppConfig defines all configurable parameters of the tutor demo, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis   pkgredis.Config
	Tracing tracing.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Orchestration configs
	Classifier    model.ClassifierModelConfig
	Capability    model.CapabilityModelConfig
	Orchestration model.OrchestrationConfig
	Optimizer     model.OptimizerConfig
	Monitor       model.MonitorConfig
	Conversation  model.ConversationConfig

	SweepInterval time.Duration `envconfig:"OPTIMIZER_SWEEP_INTERVAL" default:"1m"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: envCfg.Environment, Level: envCfg.LogLevel})

	shutdown, err := tracing.Init(ctx, envCfg.Tracing, envCfg.Environment)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise tracing")
	}
	defer func() { _ = shutdown(context.Background()) }()

	rdb, err := envCfg.Redis.New(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
	}
	defer rdb.Close()
	logx.Info().Msg("Connected to Redis successfully")

	conversationTTL, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("value", envCfg.Conversation.TTL).Msg("Invalid CONVERSATION_TTL")
	}
	patternTTL, err := time.ParseDuration(envCfg.Conversation.PatternHistoryTTL)
	if err != nil {
		logx.Fatal().Err(err).Str("value", envCfg.Conversation.PatternHistoryTTL).Msg("Invalid PATTERN_HISTORY_TTL")
	}

	models, err := classifiers.NewChatModels(ctx, classifiers.ChatModelConfig{
		APIKey:           envCfg.APIKey,
		BaseURL:          envCfg.BaseURL,
		ClassifierConfig: &envCfg.Classifier,
		CapabilityConfig: &envCfg.Capability,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create chat models")
	}

	classifier, err := classifiers.NewNLUClassifier(models.Classifier, envCfg.Classifier, envCfg.Conversation.ContextMaxTurns)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create classifier")
	}

	registry, err := capabilities.NewDefaultRegistry(ctx, models.Capability, envCfg.Capability)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build capability registry")
	}

	opt, err := optimizer.New(envCfg.Optimizer)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create optimizer")
	}
	go opt.Run(ctx, envCfg.SweepInterval)

	rt := router.New(router.DefaultTable(), classifier, envCfg.Orchestration)
	contexts := conversations.NewManager(repo.NewRedisConversationRepository(rdb, conversationTTL), envCfg.Conversation)

	orch, err := orchestration.New(ctx, orchestration.Config{
		Detector:    detector.New(rt, rt, envCfg.Orchestration),
		Executor:    executor.New(registry, envCfg.Orchestration),
		Optimizer:   opt,
		Queries:     conversations.NewQueryOptimizer(envCfg.Conversation),
		Contexts:    contexts,
		Patterns:    repo.NewRedisPatternHistoryRepository(rdb, patternTTL, envCfg.Conversation.PatternHistoryMax),
		DefaultTool: envCfg.Orchestration.DefaultTool,
		Callbacks:   []callbacks.Handler{observers.NewAllCallbacks()},
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build orchestration graph")
	}

	stateMonitor := monitor.New(classifier, rt, envCfg.Monitor)
	monitorCtx := callbacks.InitCallbacks(ctx, &callbacks.RunInfo{Name: "user_state_monitor"}, observers.NewAllCallbacks())

	testTurns := []struct {
		description string
		message     string
	}{
		{description: "Opening question", message: "Hi! Can you explain what a derivative is?"},
		{description: "Asking to go deeper", message: "Okay, can you go deeper and prove the power rule step by step?"},
		{description: "Frustration", message: "I still don't get it, this is so confusing!!"},
		{description: "Two requests at once", message: "Quiz me on derivatives and also make me a study plan for the week"},
	}

	sessionID := "demo-session-001"
	var (
		previous *model.UserState
		lastTool string
	)

	for i, turn := range testTurns {
		fmt.Printf("\nTurn %d: %s\n", i+1, turn.description)
		fmt.Printf("Message: %q\n", turn.message)

		prior, err := contexts.PriorTurns(ctx, sessionID)
		if err != nil {
			logx.Warn().Err(err).Msg("Prior turns unavailable")
		}
		current := stateMonitor.Analyze(monitorCtx, monitor.TurnObservation{
			Message:      turn.message,
			PriorTurns:   prior,
			PreviousTool: lastTool,
			Previous:     previous,
		})

		res := orch.Orchestrate(ctx, turn.message, current, previous, sessionID)

		fmt.Printf("Pattern: %s %v (%s)\n", res.Pattern.Type, res.Pattern.Tools, res.Pattern.Reason)
		for _, ex := range res.Executions {
			status := "ok"
			if !ex.Success {
				status = "failed: " + ex.Error
			}
			fmt.Printf("  - %s [%dms] %s\n", ex.Tool, ex.DurationMs, status)
		}
		fmt.Printf("Reply:\n%s\n", strings.Join(res.Responses(), "\n\n"))
		fmt.Printf("Effectiveness: %.2f\n", res.Metadata.PatternEffectiveness)

		state := current
		previous = &state
		lastTool = res.Pattern.LastTool()
	}

	m := opt.GetOptimizationMetrics()
	logx.Info().
		Int("cache_size", m.CacheSize).
		Int64("patterns_recorded", m.TotalPatternsRecorded).
		Float64("cache_hit_rate", m.CacheHitRate).
		Msg("Optimizer metrics")
}
