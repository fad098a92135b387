package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

type startKey struct{ name string }

func markStart(ctx context.Context, info *einocb.RunInfo) context.Context {
	return context.WithValue(ctx, startKey{name: info.Name}, time.Now())
}

func elapsed(ctx context.Context, info *einocb.RunInfo) time.Duration {
	if t, ok := ctx.Value(startKey{name: info.Name}).(time.Time); ok {
		return time.Since(t)
	}
	return 0
}

// newNodeHandler logs lambda node lifecycle with durations.
func newNodeHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			logx.Debug().Str("node", info.Name).Msg("Node start")
			return markStart(ctx, info)
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			logx.Debug().Str("node", info.Name).Dur("elapsed", elapsed(ctx, info)).Msg("Node end")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("node", info.Name).Dur("elapsed", elapsed(ctx, info)).Msg("Node failed")
			return ctx
		}).
		Build()
}

// newGraphHandler logs one line per graph run.
func newGraphHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			return markStart(ctx, info)
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			logx.Info().Str("graph", info.Name).Dur("elapsed", elapsed(ctx, info)).Msg("Graph run completed")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("graph", info.Name).Dur("elapsed", elapsed(ctx, info)).Msg("Graph run failed")
			return ctx
		}).
		Build()
}
