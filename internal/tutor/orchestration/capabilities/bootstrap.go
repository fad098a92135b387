package capabilities

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	"github.com/tutor-orchestrator/server/internal/tutor/orchestration/router"
)

// NewDefaultRegistry registers every catalog capability: resource_finder runs
// the built-in search tool, the rest are backed by chatModel.
func NewDefaultRegistry(ctx context.Context, chatModel einomodel.BaseChatModel, cfg model.CapabilityModelConfig) (*Registry, error) {
	reg, err := NewRegistry()
	if err != nil {
		return nil, err
	}

	finder, err := NewToolCapability(ctx, NewResourceFinderTool(DefaultResources), ResourceFinderArgs, FormatResources)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(finder); err != nil {
		return nil, err
	}

	for _, spec := range Catalog() {
		if spec.Name == router.ToolResourceFinder {
			continue
		}
		c, err := NewModelCapability(spec, chatModel, cfg)
		if err != nil {
			return nil, fmt.Errorf("build capability registry: %w", err)
		}
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
