package agent

import "context"

// ToolCallFunc is the signature for the "next" function in the tool
// call chain.
type ToolCallFunc func(ctx context.Context, call ToolCall) (*ToolResult, error)

// Hook lets collaborators shape each agent turn without the loop
// knowing about them (onion ring pattern): a hook can rewrite the
// message list before it reaches the model and wrap tool executions.
type Hook interface {
	// Name returns the hook identifier.
	Name() string

	// ModifyRequest is called before each model call to adjust the
	// message list (inject profile context, trim history, ...).
	ModifyRequest(ctx context.Context, msgs []Message) ([]Message, error)

	// WrapToolCall wraps each tool execution (auditing, timing).
	WrapToolCall(ctx context.Context, call ToolCall, next ToolCallFunc) (*ToolResult, error)
}

// BaseHook provides no-op defaults. Embed it and override what you need.
type BaseHook struct{}

func (BaseHook) Name() string { return "base" }

func (BaseHook) ModifyRequest(ctx context.Context, msgs []Message) ([]Message, error) {
	return msgs, nil
}

func (BaseHook) WrapToolCall(ctx context.Context, call ToolCall, next ToolCallFunc) (*ToolResult, error) {
	return next(ctx, call)
}
