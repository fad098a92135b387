package capabilities

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/tutor-orchestrator/server/internal/core/error"
	"github.com/tutor-orchestrator/server/internal/tutor/model"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/router"
)

type fakeChatModel struct {
	reply    string
	err      error
	received []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.received = input
	if f.err != nil {
		return nil, f.err
	}
	msg := schema.AssistantMessage(f.reply, nil)
	msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 20, CompletionTokens: 8, TotalTokens: 28}}
	return msg, nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func capabilityConfig() model.CapabilityModelConfig {
	return model.CapabilityModelConfig{Model: "gemini-2.5-flash", TutorName: "Sage"}
}

func input(message string) model.CapabilityInput {
	return model.CapabilityInput{
		SessionID: "s-1",
		Message:   message,
		Pattern:   model.PatternChain,
		State: model.UserState{
			Intent: model.Intent{Current: model.IntentUnderstand},
			Depth:  model.DepthState{Current: model.DepthDeep},
		},
		Prior: []model.StageOutput{{Tool: router.ToolConceptExplainer, Response: "Plants make sugar from light."}},
	}
}

func TestCatalogCoversRouterTable(t *testing.T) {
	for _, tool := range router.DefaultTable().Tools() {
		_, ok := Describe(tool)
		assert.True(t, ok, tool)
	}
	_, ok := Describe(router.ToolPracticalGuide)
	assert.True(t, ok)
	_, ok = Describe("nope")
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	fake := &fakeChatModel{reply: "ok"}
	a, err := NewModelCapability(Spec{Name: "a"}, fake, capabilityConfig())
	require.NoError(t, err)
	b, err := NewModelCapability(Spec{Name: "b"}, fake, capabilityConfig())
	require.NoError(t, err)

	reg, err := NewRegistry(b, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, reg.Names())

	got, err := reg.Tool("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name())

	_, err = reg.Tool("missing")
	assert.ErrorIs(t, err, errx.ErrUnknownCapability)

	assert.Error(t, reg.Register(a))
	assert.Error(t, reg.Register(nil))
}

func TestModelCapabilityRendersPersona(t *testing.T) {
	fake := &fakeChatModel{reply: "  The Calvin cycle fixes carbon.  "}
	c, err := NewModelCapability(Spec{Name: router.ToolDeepDive, Description: "Go deep."}, fake, capabilityConfig())
	require.NoError(t, err)

	out, err := c.Execute(context.Background(), input("Why does the Calvin cycle need ATP?"))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "The Calvin cycle fixes carbon.", out.Response)

	require.Len(t, fake.received, 2)
	system := fake.received[0].Content
	assert.Contains(t, system, "Sage")
	assert.Contains(t, system, router.ToolDeepDive)
	assert.Contains(t, system, "Plants make sugar from light.")
	assert.Equal(t, "Why does the Calvin cycle need ATP?", fake.received[1].Content)
}

func TestModelCapabilityFailures(t *testing.T) {
	_, err := NewModelCapability(Spec{Name: "x"}, nil, capabilityConfig())
	assert.Error(t, err)

	c, err := NewModelCapability(Spec{Name: "x"}, &fakeChatModel{err: errors.New("503")}, capabilityConfig())
	require.NoError(t, err)
	_, err = c.Execute(context.Background(), input("hi"))
	assert.ErrorContains(t, err, "503")

	empty, err := NewModelCapability(Spec{Name: "x"}, &fakeChatModel{reply: "   "}, capabilityConfig())
	require.NoError(t, err)
	out, err := empty.Execute(context.Background(), input("hi"))
	require.NoError(t, err)
	assert.False(t, out.Success)
}

func TestSearchResources(t *testing.T) {
	res, err := searchResources(DefaultResources, &ResourceQuery{Query: "photosynthesis light reactions"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Resources)
	assert.Equal(t, "res-002", res.Resources[0].ID)
	assert.Equal(t, len(res.Resources), res.Total)

	res, err = searchResources(DefaultResources, &ResourceQuery{Query: "photosynthesis", Level: "surface"})
	require.NoError(t, err)
	require.Len(t, res.Resources, 1)
	assert.Equal(t, "res-001", res.Resources[0].ID)

	res, err = searchResources(DefaultResources, &ResourceQuery{Query: "essay", MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, res.Resources, 1)

	_, err = searchResources(DefaultResources, &ResourceQuery{Query: "  "})
	assert.Error(t, err)
}

func TestResourceFinderCapability(t *testing.T) {
	ctx := context.Background()
	c, err := NewToolCapability(ctx, NewResourceFinderTool(DefaultResources), ResourceFinderArgs, FormatResources)
	require.NoError(t, err)
	assert.Equal(t, router.ToolResourceFinder, c.Name())

	out, err := c.Execute(ctx, input("Can you find resources about quadratic equations?"))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Contains(t, out.Response, "Quadratic Equations Practice Set")

	out, err = c.Execute(ctx, input("zzzz qqqq"))
	require.NoError(t, err)
	assert.False(t, out.Success)
}

func TestNewDefaultRegistry(t *testing.T) {
	reg, err := NewDefaultRegistry(context.Background(), &fakeChatModel{reply: "ok"}, capabilityConfig())
	require.NoError(t, err)

	assert.Len(t, reg.Names(), len(Catalog()))
	finder, err := reg.Tool(router.ToolResourceFinder)
	require.NoError(t, err)
	assert.IsType(t, &ToolCapability{}, finder)
}

func TestSanitizeArguments(t *testing.T) {
	assert.JSONEq(t, `{"query":"x","max_results":3}`, sanitizeArguments(`{"query":"  x ","max_results":3}`))
	assert.Equal(t, "not json", sanitizeArguments("not json"))
}
