package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
)

type stubAnalyzer struct {
	analysis *model.NLUAnalysis
	err      error
}

func (s stubAnalyzer) Analyze(context.Context, string, []string) (*model.NLUAnalysis, error) {
	return s.analysis, s.err
}

func TestSelectToolForIntent(t *testing.T) {
	r := New(nil, nil, model.DefaultOrchestrationConfig())

	tests := []struct {
		intent model.IntentType
		depth  model.Depth
		want   string
	}{
		{model.IntentUnderstand, model.DepthSurface, ToolConceptExplainer},
		{model.IntentUnderstand, model.DepthGuided, ToolSocraticTutor},
		{model.IntentUnderstand, model.DepthDeep, ToolDeepDive},
		{model.IntentCreate, model.DepthSurface, ToolWritingAssistant},
		{model.IntentSolve, model.DepthSurface, ToolQuickAnswer},
		{model.IntentExplore, model.DepthGuided, ToolResourceFinder},
		{model.IntentUnderstand, model.Depth("bogus"), ToolConceptExplainer},
		{model.IntentType("dance"), model.DepthDeep, ToolConversation},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent)+"/"+string(tt.depth), func(t *testing.T) {
			assert.Equal(t, tt.want, r.SelectToolForIntent(tt.intent, tt.depth))
		})
	}
}

func TestDefaultTableStagesAreDistinct(t *testing.T) {
	for intent, stages := range DefaultTable() {
		assert.NotEqual(t, stages[0], stages[1], intent)
		assert.NotEqual(t, stages[1], stages[2], intent)
		assert.NotEqual(t, stages[0], stages[2], intent)
	}
	assert.Len(t, DefaultTable().Tools(), 24)
}

func TestRouteUsesPrimaryAndSecondaryIntents(t *testing.T) {
	r := New(nil, stubAnalyzer{analysis: &model.NLUAnalysis{
		PrimaryIntent: model.IntentCreate,
		Intents: []model.ScoredIntent{
			{Name: model.IntentCreate, Confidence: 0.9},
			{Name: model.IntentEvaluate, Confidence: 0.7},
			{Name: model.IntentExplore, Confidence: 0.2},
		},
	}}, model.DefaultOrchestrationConfig())

	d, err := r.Route(context.Background(), "write an essay and then grade it", model.DepthSurface)
	require.NoError(t, err)
	assert.Equal(t, model.IntentCreate, d.Primary)
	assert.Equal(t, []model.IntentType{model.IntentEvaluate}, d.Secondary)
	assert.Equal(t, ToolWritingAssistant, d.SuggestedTool)
}

func TestRouteClassifierFailureStillSuggests(t *testing.T) {
	r := New(nil, stubAnalyzer{err: errors.New("quota")}, model.DefaultOrchestrationConfig())

	d, err := r.Route(context.Background(), "hi", model.DepthGuided)
	assert.Error(t, err)
	assert.Equal(t, model.IntentUnderstand, d.Primary)
	assert.Equal(t, ToolSocraticTutor, d.SuggestedTool)
}

func TestDetectIntents(t *testing.T) {
	r := New(nil, stubAnalyzer{analysis: &model.NLUAnalysis{Intents: []model.ScoredIntent{
		{Name: model.IntentUnderstand, Confidence: 0.8},
		{Name: model.IntentOrganize, Confidence: 0.75},
		{Name: model.IntentType("teleport"), Confidence: 0.99},
	}}}, model.DefaultOrchestrationConfig())

	intents, err := r.DetectIntents(context.Background(), "explain photosynthesis and make me a study plan")
	require.NoError(t, err)
	assert.Equal(t, []model.IntentType{model.IntentUnderstand, model.IntentOrganize}, intents)

	none := New(nil, nil, model.DefaultOrchestrationConfig())
	intents, err = none.DetectIntents(context.Background(), "anything")
	assert.NoError(t, err)
	assert.Empty(t, intents)
}
