package observers

import (
	"context"
	"errors"
	"io"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

func newToolHandler() *callbackHelper.ToolCallbackHandler {
	return &callbackHelper.ToolCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *tool.CallbackInput) context.Context {
			ev := logx.Debug().Str("tool", info.Name)
			if input != nil {
				ev = ev.Str("arguments", truncate(input.ArgumentsInJSON))
			}
			ev.Msg("Tool start")
			return markStart(ctx, info)
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *tool.CallbackOutput) context.Context {
			ev := logx.Debug().Str("tool", info.Name).Dur("elapsed", elapsed(ctx, info))
			if output != nil {
				ev = ev.Str("response", truncate(output.Response))
			}
			ev.Msg("Tool end")
			return ctx
		},
		OnEndWithStreamOutput: func(ctx context.Context, info *einocb.RunInfo, output *schema.StreamReader[*tool.CallbackOutput]) context.Context {
			go func() {
				defer output.Close()
				chunks := 0
				for {
					_, err := output.Recv()
					if errors.Is(err, io.EOF) {
						logx.Debug().Str("tool", info.Name).Int("chunks", chunks).Msg("Tool stream end")
						return
					}
					if err != nil {
						logx.Warn().Err(err).Str("tool", info.Name).Msg("Tool stream failed")
						return
					}
					chunks++
				}
			}()
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("tool", info.Name).Msg("Tool execution failed")
			return ctx
		},
	}
}

// NewToolCallbacks logs tool lifecycle events only.
func NewToolCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Tool(newToolHandler()).
		Handler()
}
