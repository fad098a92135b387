package orchestration

import (
	"context"
	"fmt"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/nodes"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

const (
	GraphName = "tutor_orchestration"

	ReasonOrchestrationFailed = "Orchestration failed"
	defaultTool               = "conversation"
)

// Config holds the collaborators of the orchestration graph. Detector and
// Executor are required; the rest are optional.
type Config struct {
	Detector  nodes.PatternDetector
	Executor  nodes.PatternExecutor
	Optimizer nodes.Optimizer
	Queries   nodes.QueryOptimizer
	Contexts  nodes.ContextManager
	Patterns  model.PatternHistoryRepository
	// DefaultTool names the capability reported in degraded results.
	DefaultTool string
	Callbacks   []einocb.Handler
}

// GraphBuilder handles the construction of the orchestration graph.
type GraphBuilder struct {
	config *Config
	graph  *compose.Graph[model.TurnInput, *model.MultiToolResult]
}

// Orchestrator is the per-process entry point. It is safe for concurrent use.
type Orchestrator struct {
	runnable    compose.Runnable[model.TurnInput, *model.MultiToolResult]
	callbacks   []einocb.Handler
	defaultTool string
}

func New(ctx context.Context, cfg Config) (*Orchestrator, error) {
	runnable, err := BuildGraph(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	tool := cfg.DefaultTool
	if tool == "" {
		tool = defaultTool
	}
	return &Orchestrator{runnable: runnable, callbacks: cfg.Callbacks, defaultTool: tool}, nil
}

// Orchestrate runs one turn. It never fails: graph errors and panics yield a
// degraded result.
func (o *Orchestrator) Orchestrate(ctx context.Context, message string, current model.UserState, previous *model.UserState, sessionID string) (res *model.MultiToolResult) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("session_id", sessionID).Interface("panic", r).Msg("Orchestration panicked")
			res = o.degraded(current, sessionID)
		}
	}()

	in := model.TurnInput{
		SessionID:    sessionID,
		Message:      message,
		CurrentState: current.Normalize(),
	}
	if previous != nil {
		p := previous.Normalize()
		in.PreviousState = &p
	}

	var opts []compose.Option
	if len(o.callbacks) > 0 {
		opts = append(opts, compose.WithCallbacks(o.callbacks...))
	}
	out, err := o.runnable.Invoke(ctx, in, opts...)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("Orchestration graph failed")
		return o.degraded(current, sessionID)
	}
	if out == nil {
		return o.degraded(current, sessionID)
	}
	return out
}

func (o *Orchestrator) degraded(current model.UserState, sessionID string) *model.MultiToolResult {
	tool := current.Tooling.SuggestedTool
	if tool == "" {
		tool = o.defaultTool
	}
	return &model.MultiToolResult{
		TurnID:    uuid.NewString(),
		SessionID: sessionID,
		Pattern: model.OrchestrationPattern{
			Type:   model.PatternSingle,
			Reason: ReasonOrchestrationFailed,
			Tools:  []string{tool},
		},
		Executions: []model.ToolExecution{},
		Degraded:   true,
	}
}

// BuildGraph constructs and returns the compiled orchestration graph.
func BuildGraph(ctx context.Context, config *Config) (compose.Runnable[model.TurnInput, *model.MultiToolResult], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Detector == nil || config.Executor == nil {
		return nil, fmt.Errorf("detector and executor are required")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *model.MultiToolResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}
	return builder.compile(ctx)
}

func (b *GraphBuilder) addNodes() error {
	c := b.config
	if err := b.graph.AddLambdaNode(nodes.NodePrepare,
		nodes.NewPrepareNode(c.Queries, c.Contexts, c.Optimizer, c.Patterns),
		compose.WithStatePreHandler(nodes.NewPreparePreHandler()),
	); err != nil {
		return fmt.Errorf("add node %s: %w", nodes.NodePrepare, err)
	}

	if err := b.graph.AddLambdaNode(nodes.NodeDetect,
		nodes.NewDetectNode(c.Detector),
		compose.WithStatePostHandler(nodes.NewDetectPostHandler()),
	); err != nil {
		return fmt.Errorf("add node %s: %w", nodes.NodeDetect, err)
	}

	for _, key := range nodes.ExecuteNodes {
		if err := b.graph.AddLambdaNode(key, nodes.NewExecuteNode(c.Executor)); err != nil {
			return fmt.Errorf("add node %s: %w", key, err)
		}
	}

	if err := b.graph.AddLambdaNode(nodes.NodeRecord,
		nodes.NewRecordNode(c.Optimizer, c.Contexts, c.Patterns),
	); err != nil {
		return fmt.Errorf("add node %s: %w", nodes.NodeRecord, err)
	}
	return nil
}

func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodePrepare},
		{nodes.NodePrepare, nodes.NodeDetect},
		{nodes.NodeRecord, compose.END},
	}
	for _, key := range nodes.ExecuteNodes {
		edges = append(edges, [2]string{key, nodes.NodeRecord})
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

func (b *GraphBuilder) addBranches() error {
	targets := make(map[string]bool, len(nodes.ExecuteNodes))
	for _, key := range nodes.ExecuteNodes {
		targets[key] = true
	}
	strategyBranch := compose.NewGraphBranch(nodes.NewStrategyCondition(), targets)
	if err := b.graph.AddBranch(nodes.NodeDetect, strategyBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding strategy branch")
		return fmt.Errorf("error adding strategy branch: %w", err)
	}
	return nil
}

func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *model.MultiToolResult], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName(GraphName),
		compose.WithMaxRunSteps(10),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Orchestration graph compiled successfully")
	return runnable, nil
}
