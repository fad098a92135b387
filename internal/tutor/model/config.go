package model

import "time"

// ================ Config ================
type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0"`
	// Intents and sentiments offered to the model, comma separated.
	Intents    string `envconfig:"CLASSIFIER_INTENTS" default:"understand, create, solve, evaluate, organize, regulate, explore, interact"`
	Sentiments string `envconfig:"CLASSIFIER_SENTIMENTS" default:"neutral, positive, curious, frustrated, engaged, motivated, confused, anxious"`
}

type CapabilityModelConfig struct {
	Model       string  `envconfig:"CAPABILITY_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CAPABILITY_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CAPABILITY_TEMPERATURE" default:"0.4"`
	TutorName   string  `envconfig:"CAPABILITY_TUTOR_NAME" default:"Sage"`
}

type OrchestrationConfig struct {
	FrustrationThreshold float64       `envconfig:"ORCHESTRATION_FRUSTRATION_THRESHOLD" default:"0.7"`
	ClassifierTimeout    time.Duration `envconfig:"ORCHESTRATION_CLASSIFIER_TIMEOUT" default:"3s"`
	CapabilityTimeout    time.Duration `envconfig:"ORCHESTRATION_CAPABILITY_TIMEOUT" default:"30s"`
	MaxParallel          int           `envconfig:"ORCHESTRATION_MAX_PARALLEL" default:"4"`
	FallbackTools        []string      `envconfig:"ORCHESTRATION_FALLBACK_TOOLS" default:"quick_answer,practical_guide"`
	DefaultTool          string        `envconfig:"ORCHESTRATION_DEFAULT_TOOL" default:"conversation"`
	MinIntentConfidence  float64       `envconfig:"ORCHESTRATION_MIN_INTENT_CONFIDENCE" default:"0.5"`
	SlowExecution        time.Duration `envconfig:"ORCHESTRATION_SLOW_EXECUTION" default:"10s"`
}

type OptimizerConfig struct {
	CacheSize      int           `envconfig:"OPTIMIZER_CACHE_SIZE" default:"1024"`
	MaxPredictions int           `envconfig:"OPTIMIZER_MAX_PREDICTIONS" default:"3"`
	CacheMaxAge    time.Duration `envconfig:"OPTIMIZER_CACHE_MAX_AGE" default:"10m"`
	SessionIdleTTL time.Duration `envconfig:"OPTIMIZER_SESSION_IDLE_TTL" default:"2h"`
}

type MonitorConfig struct {
	AnalyzeTimeout   time.Duration `envconfig:"MONITOR_ANALYZE_TIMEOUT" default:"3s"`
	StuckTurns       int           `envconfig:"MONITOR_STUCK_TURNS" default:"3"`
	StuckFrustration float64       `envconfig:"MONITOR_STUCK_FRUSTRATION" default:"0.4"`
}

type ConversationConfig struct {
	TTL               string `envconfig:"CONVERSATION_TTL" default:"24h"`
	PatternHistoryTTL string `envconfig:"PATTERN_HISTORY_TTL" default:"72h"`
	PatternHistoryMax int    `envconfig:"PATTERN_HISTORY_MAX" default:"200"`
	ContextMaxTurns   int    `envconfig:"CONVERSATION_CONTEXT_MAX_TURNS" default:"6"`
	MaxQueryLength    int    `envconfig:"CONVERSATION_MAX_QUERY_LENGTH" default:"4000"`
}

// DefaultOrchestrationConfig mirrors the envconfig defaults for callers that
// build components without the environment (tests, embedding).
func DefaultOrchestrationConfig() OrchestrationConfig {
	return OrchestrationConfig{
		FrustrationThreshold: 0.7,
		ClassifierTimeout:    3 * time.Second,
		CapabilityTimeout:    30 * time.Second,
		MaxParallel:          4,
		FallbackTools:        []string{"quick_answer", "practical_guide"},
		DefaultTool:          "conversation",
		MinIntentConfidence:  0.5,
		SlowExecution:        10 * time.Second,
	}
}

func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		CacheSize:      1024,
		MaxPredictions: 3,
		CacheMaxAge:    10 * time.Minute,
		SessionIdleTTL: 2 * time.Hour,
	}
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		AnalyzeTimeout:   3 * time.Second,
		StuckTurns:       3,
		StuckFrustration: 0.4,
	}
}
