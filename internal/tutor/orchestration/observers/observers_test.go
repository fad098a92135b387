package observers

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutor-orchestrator/server/internal/core"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Production, Level: "debug", Output: &buf})
	t.Cleanup(func() { logx.Init() })
	return &buf
}

func TestNewAllCallbacks(t *testing.T) {
	require.NotNil(t, NewAllCallbacks())
	require.NotNil(t, NewToolCallbacks())
	require.NotNil(t, NewPromptCallbacks())
}

func TestModelHandlerLogsConversation(t *testing.T) {
	buf := captureLogs(t)
	h := newModelHandler()
	info := &einocb.RunInfo{Name: "capability", Type: "Gemini"}

	ctx := h.OnStart(context.Background(), info, &model.CallbackInput{Messages: []*schema.Message{
		schema.SystemMessage("You are Sage"),
		schema.UserMessage("  explain osmosis  "),
	}})
	h.OnEnd(ctx, info, &model.CallbackOutput{
		Message:    schema.AssistantMessage("Water crosses membranes.", nil),
		TokenUsage: &model.TokenUsage{TotalTokens: 42},
	})
	h.OnError(ctx, info, errors.New("quota"))

	out := buf.String()
	assert.Contains(t, out, `"user":"explain osmosis"`)
	assert.Contains(t, out, `"assistant":"Water crosses membranes."`)
	assert.Contains(t, out, `"total_tokens":42`)
	assert.Contains(t, out, `"error":"quota"`)
}

func TestToolHandlerTruncatesPayloads(t *testing.T) {
	buf := captureLogs(t)
	h := newToolHandler()
	info := &einocb.RunInfo{Name: "resource_finder"}

	ctx := h.OnStart(context.Background(), info, &tool.CallbackInput{ArgumentsInJSON: `{"query":"cells"}`})
	h.OnEnd(ctx, info, &tool.CallbackOutput{Response: strings.Repeat("x", 1000)})

	out := buf.String()
	assert.Contains(t, out, `"tool":"resource_finder"`)
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("x", maxLoggedContent+1))
}

func TestElapsedUsesStartMark(t *testing.T) {
	info := &einocb.RunInfo{Name: "detect"}
	assert.Zero(t, elapsed(context.Background(), info))

	ctx := markStart(context.Background(), info)
	time.Sleep(2 * time.Millisecond)
	assert.Greater(t, elapsed(ctx, info), time.Duration(0))
	assert.Zero(t, elapsed(ctx, &einocb.RunInfo{Name: "other"}))
}

func TestLastUserContent(t *testing.T) {
	msgs := []*schema.Message{
		schema.UserMessage("first"),
		nil,
		schema.AssistantMessage("reply", nil),
		schema.UserMessage(" second "),
		schema.AssistantMessage("reply", nil),
	}
	assert.Equal(t, "second", lastUserContent(msgs))
	assert.Empty(t, lastUserContent(nil))
}
