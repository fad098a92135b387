package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

// newModelHandler logs the learner message and the reply around model calls.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ev := logx.Debug().Str("model_type", info.Type).Str("name", info.Name)
			if input != nil {
				ev = ev.Int("messages", len(input.Messages))
				if um := lastUserContent(input.Messages); um != "" {
					ev = ev.Str("user", truncate(um))
				}
			}
			ev.Msg("Model start")
			return markStart(ctx, info)
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			ev := logx.Debug().Str("model_type", info.Type).Str("name", info.Name).Dur("elapsed", elapsed(ctx, info))
			if output != nil {
				if output.Message != nil {
					ev = ev.Str("assistant", truncate(strings.TrimSpace(output.Message.Content)))
				}
				if output.TokenUsage != nil {
					ev = ev.Int("total_tokens", output.TokenUsage.TotalTokens)
				}
			}
			ev.Msg("Model end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("model_type", info.Type).Str("name", info.Name).Msg("Model call failed")
			return ctx
		},
	}
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}
