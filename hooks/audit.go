package hooks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"snello/agent"
)

// AuditHook logs every tool execution with its duration and outcome.
type AuditHook struct {
	agent.BaseHook
	log *zap.Logger
}

// NewAuditHook creates an audit hook.
func NewAuditHook(log *zap.Logger) *AuditHook {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditHook{log: log}
}

func (h *AuditHook) Name() string { return "audit" }

func (h *AuditHook) WrapToolCall(ctx context.Context, call agent.ToolCall, next agent.ToolCallFunc) (*agent.ToolResult, error) {
	start := time.Now()
	result, err := next(ctx, call)
	fields := []zap.Field{
		zap.String("tool", call.Name),
		zap.Duration("duration", time.Since(start)),
	}
	switch {
	case err != nil:
		h.log.Warn("tool call errored", append(fields, zap.Error(err))...)
	case result != nil && result.Error != "":
		h.log.Info("tool call rejected input", append(fields, zap.String("reason", result.Error))...)
	default:
		h.log.Debug("tool call ok", fields...)
	}
	return result, err
}
