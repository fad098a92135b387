package router

import (
	"context"
	"fmt"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

// Capability names known to the router table.
const (
	ToolConceptExplainer  = "concept_explainer"
	ToolSocraticTutor     = "socratic_tutor"
	ToolDeepDive          = "deep_dive"
	ToolWritingAssistant  = "writing_assistant"
	ToolWritingCoach      = "writing_coach"
	ToolCreativeStudio    = "creative_studio"
	ToolQuickAnswer       = "quick_answer"
	ToolProblemSolver     = "problem_solver"
	ToolStepByStep        = "step_by_step_solver"
	ToolQuizGenerator     = "quiz_generator"
	ToolFeedbackReviewer  = "feedback_reviewer"
	ToolMasteryAssessor   = "mastery_assessor"
	ToolStudyPlanner      = "study_planner"
	ToolNoteOrganizer     = "note_organizer"
	ToolConceptMapper     = "concept_mapper"
	ToolEncouragement     = "encouragement"
	ToolWellbeingCoach    = "wellbeing_coach"
	ToolReflectionGuide   = "reflection_guide"
	ToolCuriosityExplorer = "curiosity_explorer"
	ToolResourceFinder    = "resource_finder"
	ToolResearchGuide     = "research_guide"
	ToolConversation      = "conversation"
	ToolDiscussion        = "discussion_partner"
	ToolDebatePartner     = "debate_partner"
	ToolPracticalGuide    = "practical_guide"
)

// Table maps an intent to the capability for each depth stage, in
// surface, guided, deep order.
type Table map[model.IntentType][3]string

// DefaultTable keeps every stage of an intent on a distinct capability so a
// depth progression always yields a multi-stage chain.
func DefaultTable() Table {
	return Table{
		model.IntentUnderstand: {ToolConceptExplainer, ToolSocraticTutor, ToolDeepDive},
		model.IntentCreate:     {ToolWritingAssistant, ToolWritingCoach, ToolCreativeStudio},
		model.IntentSolve:      {ToolQuickAnswer, ToolProblemSolver, ToolStepByStep},
		model.IntentEvaluate:   {ToolQuizGenerator, ToolFeedbackReviewer, ToolMasteryAssessor},
		model.IntentOrganize:   {ToolStudyPlanner, ToolNoteOrganizer, ToolConceptMapper},
		model.IntentRegulate:   {ToolEncouragement, ToolWellbeingCoach, ToolReflectionGuide},
		model.IntentExplore:    {ToolCuriosityExplorer, ToolResourceFinder, ToolResearchGuide},
		model.IntentInteract:   {ToolConversation, ToolDiscussion, ToolDebatePartner},
	}
}

// Tools returns every capability name in the table, deduplicated, in table order.
func (t Table) Tools() []string {
	seen := map[string]bool{}
	var out []string
	for _, intent := range model.Intents {
		for _, name := range t[intent] {
			if name != "" && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// IntentAnalyzer is the external classification call. It is a black box to
// the router.
type IntentAnalyzer interface {
	Analyze(ctx context.Context, message string, history []string) (*model.NLUAnalysis, error)
}

// Decision is the routing outcome for one message.
type Decision struct {
	Primary       model.IntentType
	Secondary     []model.IntentType
	SuggestedTool string
}

type Router struct {
	table         Table
	analyzer      IntentAnalyzer
	minConfidence float64
	defaultTool   string
}

// New builds a router. A nil analyzer disables classification: Route falls back
// to the understand intent and DetectIntents reports nothing.
func New(table Table, analyzer IntentAnalyzer, cfg model.OrchestrationConfig) *Router {
	if table == nil {
		table = DefaultTable()
	}
	defaultTool := cfg.DefaultTool
	if defaultTool == "" {
		defaultTool = ToolConversation
	}
	return &Router{
		table:         table,
		analyzer:      analyzer,
		minConfidence: cfg.MinIntentConfidence,
		defaultTool:   defaultTool,
	}
}

// SelectToolForIntent is a deterministic table lookup. Unknown depths resolve
// as surface; unknown intents resolve to the default capability.
func (r *Router) SelectToolForIntent(intent model.IntentType, depth model.Depth) string {
	stages, ok := r.table[intent]
	if !ok {
		return r.defaultTool
	}
	i := depth.Index()
	if i < 0 {
		i = 0
	}
	if stages[i] == "" {
		return r.defaultTool
	}
	return stages[i]
}

// Route classifies message and picks the capability for its primary intent.
func (r *Router) Route(ctx context.Context, message string, depth model.Depth) (Decision, error) {
	out := Decision{Primary: model.IntentUnderstand}
	if r.analyzer == nil {
		out.SuggestedTool = r.SelectToolForIntent(out.Primary, depth)
		return out, nil
	}

	analysis, err := r.analyzer.Analyze(ctx, message, nil)
	if err != nil {
		out.SuggestedTool = r.SelectToolForIntent(out.Primary, depth)
		return out, fmt.Errorf("route message: %w", err)
	}

	intents := analysis.IntentsAbove(r.minConfidence)
	if analysis.PrimaryIntent.IsValid() {
		out.Primary = analysis.PrimaryIntent
	} else if len(intents) > 0 {
		out.Primary = intents[0]
	}
	for _, it := range intents {
		if it != out.Primary {
			out.Secondary = append(out.Secondary, it)
		}
	}
	out.SuggestedTool = r.SelectToolForIntent(out.Primary, depth)

	logx.Debug().
		Str("component", "intent_router").
		Str("primary_intent", string(out.Primary)).
		Int("secondary_intents", len(out.Secondary)).
		Str("suggested_tool", out.SuggestedTool).
		Msg("Message routed")
	return out, nil
}

// DetectIntents reports the independent intents found in message above the
// configured confidence. It is the multi-intent probe used by the pattern detector.
func (r *Router) DetectIntents(ctx context.Context, message string) ([]model.IntentType, error) {
	if r.analyzer == nil {
		return nil, nil
	}
	analysis, err := r.analyzer.Analyze(ctx, message, nil)
	if err != nil {
		return nil, err
	}
	var out []model.IntentType
	for _, it := range analysis.IntentsAbove(r.minConfidence) {
		if it.IsValid() {
			out = append(out, it)
		}
	}
	return out, nil
}
