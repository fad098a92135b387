package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/tutor-orchestrator/server/internal/tutor/model"
	logx "github.com/tutor-orchestrator/server/pkg/logger"
)

// ArgsBuilder turns a capability input into the tool's JSON arguments.
type ArgsBuilder func(in model.CapabilityInput) (string, error)

// ResultFormatter renders the tool's JSON result for the learner.
type ResultFormatter func(result string) (string, error)

// ToolCapability runs an eino tool through a ToolsNode, so tool callbacks
// attached to the surrounding graph fire for it.
type ToolCapability struct {
	name   string
	node   *compose.ToolsNode
	args   ArgsBuilder
	format ResultFormatter
}

func NewToolCapability(ctx context.Context, t tool.InvokableTool, args ArgsBuilder, format ResultFormatter) (*ToolCapability, error) {
	if t == nil || args == nil {
		return nil, fmt.Errorf("tool capability: tool and args builder are required")
	}
	info, err := t.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("tool capability info: %w", err)
	}

	node, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               []tool.BaseTool{t},
		ExecuteSequentially: true,
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			return sanitizeArguments(arguments), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Str("tool", info.Name).Msg("Failed to create tools node")
		return nil, fmt.Errorf("failed to create tools node: %w", err)
	}

	return &ToolCapability{name: info.Name, node: node, args: args, format: format}, nil
}

func (c *ToolCapability) Name() string { return c.name }

func (c *ToolCapability) Execute(ctx context.Context, in model.CapabilityInput) (model.CapabilityOutput, error) {
	args, err := c.args(in)
	if err != nil {
		return model.CapabilityOutput{}, fmt.Errorf("build tool arguments: %w", err)
	}

	call := schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "call_" + uuid.NewString(),
		Type:     "function",
		Function: schema.FunctionCall{Name: c.name, Arguments: args},
	}})
	msgs, err := c.node.Invoke(ctx, call)
	if err != nil {
		return model.CapabilityOutput{}, err
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return model.CapabilityOutput{}, nil
	}

	response := msgs[0].Content
	if c.format != nil {
		if response, err = c.format(response); err != nil {
			return model.CapabilityOutput{}, fmt.Errorf("format tool result: %w", err)
		}
	}
	response = strings.TrimSpace(response)
	return model.CapabilityOutput{Response: response, Success: response != ""}, nil
}

// sanitizeArguments trims string values and keeps the original text when it
// is not a JSON object.
func sanitizeArguments(arguments string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			m[k] = strings.TrimSpace(s)
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return arguments
	}
	return string(b)
}
