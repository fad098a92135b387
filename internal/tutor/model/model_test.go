package model

import (
	"math"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestDepthOrdering(t *testing.T) {
	assert.Equal(t, 0, DepthSurface.Index())
	assert.Equal(t, 2, DepthDeep.Index())
	assert.Equal(t, -1, Depth("bottomless").Index())
	assert.Equal(t, DepthGuided, DepthSurface.Next())
	assert.Equal(t, DepthDeep, DepthDeep.Next())
}

func TestStagesBetween(t *testing.T) {
	assert.Equal(t, []Depth{DepthSurface, DepthGuided}, StagesBetween(DepthSurface, DepthGuided))
	assert.Equal(t, []Depth{DepthGuided, DepthDeep}, StagesBetween(DepthGuided, DepthDeep))
	assert.Equal(t, []Depth{DepthSurface, DepthGuided, DepthDeep}, StagesBetween(DepthSurface, DepthDeep))
	assert.Nil(t, StagesBetween(DepthDeep, DepthGuided))
	assert.Nil(t, StagesBetween(DepthGuided, DepthGuided))
	assert.Nil(t, StagesBetween("", DepthDeep))
}

func TestUserStateNormalize(t *testing.T) {
	s := UserState{
		Sentiment: Sentiment{FrustrationLevel: 1.4, Confidence: -0.2},
		Depth:     DepthState{Current: "abyss"},
		Dynamics:  Dynamics{TurnsAtCurrentDepth: -3},
	}.Normalize()

	assert.Equal(t, 1.0, s.Sentiment.FrustrationLevel)
	assert.Equal(t, 0.0, s.Sentiment.Confidence)
	assert.Equal(t, SentimentNeutral, s.Sentiment.Type)
	assert.Equal(t, IntentUnderstand, s.Intent.Current)
	assert.Equal(t, DepthSurface, s.Depth.Current)
	assert.Equal(t, DepthSurface, s.Depth.Requested)
	assert.Equal(t, 0, s.Dynamics.TurnsAtCurrentDepth)
	assert.Equal(t, ProgressionStable, s.Dynamics.ProgressionPattern)
}

func TestClamp01NaN(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
	assert.Equal(t, 0.5, Clamp01(0.5))
}

func TestIntentGerund(t *testing.T) {
	assert.Equal(t, "understanding", IntentUnderstand.Gerund())
	assert.Equal(t, "creating", IntentCreate.Gerund())
	assert.Equal(t, "dreaming", IntentType("dreaming").Gerund())
}

func TestParseSentimentType(t *testing.T) {
	assert.Equal(t, SentimentCurious, ParseSentimentType("curious"))
	assert.Equal(t, SentimentFrustrated, ParseSentimentType("negative"))
	assert.Equal(t, SentimentNeutral, ParseSentimentType("meh"))
}

func TestPatternCloneIsIndependent(t *testing.T) {
	p := OrchestrationPattern{Type: PatternChain, Tools: []string{"a", "b"}, Context: map[string]any{"k": 1}}
	c := p.Clone()
	c.Tools[0] = "z"
	c.Context["k"] = 2
	assert.Equal(t, "a", p.Tools[0])
	assert.Equal(t, 1, p.Context["k"])
	assert.Equal(t, "a", p.PrimaryTool())
	assert.Equal(t, "b", p.LastTool())
}

func TestMultiToolResultResponses(t *testing.T) {
	r := &MultiToolResult{Executions: []ToolExecution{
		{Tool: "a", Success: true, Response: "one"},
		{Tool: "b", Success: false},
		{Tool: "c", Success: true, Response: "three"},
	}}
	assert.True(t, r.Succeeded())
	assert.Equal(t, []string{"one", "three"}, r.Responses())

	var nilResult *MultiToolResult
	assert.False(t, nilResult.Succeeded())
}

func TestUsageFromMessage(t *testing.T) {
	_, ok := UsageFromMessage("gemini-2.5-flash", schema.AssistantMessage("hi", nil))
	assert.False(t, ok)

	msg := schema.AssistantMessage("hi", nil)
	msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000, TotalTokens: 2_000_000}}
	cost, ok := UsageFromMessage("gemini-2.5-flash", msg)
	assert.True(t, ok)
	assert.InDelta(t, 0.30, cost.InputCost, 1e-9)
	assert.InDelta(t, 2.80, cost.TotalCost, 1e-9)
}

func TestIntentsAbove(t *testing.T) {
	a := &NLUAnalysis{Intents: []ScoredIntent{
		{Name: IntentUnderstand, Confidence: 0.9},
		{Name: IntentCreate, Confidence: 0.4},
		{Name: IntentSolve, Confidence: 0.6},
		{Name: IntentUnderstand, Confidence: 0.7},
	}}
	assert.Equal(t, []IntentType{IntentUnderstand, IntentSolve}, a.IntentsAbove(0.5))
	var nilA *NLUAnalysis
	assert.Nil(t, nilA.IntentsAbove(0.5))
}
