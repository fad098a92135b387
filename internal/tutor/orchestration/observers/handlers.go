package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// maxLoggedContent caps message bodies written to the log.
const maxLoggedContent = 240

// NewAllCallbacks aggregates the observer handlers (node, model, prompt, tool)
// into one callbacks.Handler.
func NewAllCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Lambda(newNodeHandler()).
		Graph(newGraphHandler()).
		Tool(newToolHandler()).
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxLoggedContent {
		return s
	}
	return string(r[:maxLoggedContent]) + "…"
}
