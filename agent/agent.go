// Package agent runs the conversation loop: user text plus recent
// history goes to the hosted model, tool calls the model requests are
// executed against the task store, and the final text comes back as
// the reply. All reasoning lives in the remote model; this package
// only enforces the deterministic contract around it (bounded tool
// rounds, fallback on exhaustion, history persistence).
package agent

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"snello/llm"
	"snello/memory"
)

// DefaultMaxToolRounds bounds how many model→tool→model rounds one
// user message may take before the agent gives up with a fallback.
const DefaultMaxToolRounds = 4

// DefaultHistoryWindow is how many stored conversation entries are
// replayed to the model each turn.
const DefaultHistoryWindow = 10

// FallbackReply is returned when the tool-round budget is exhausted
// without a final answer.
const FallbackReply = "I couldn't finish that one. Could you rephrase, or try a smaller step?"

// ApologyReply is returned when the model call itself fails. The
// session stays alive; there is no automatic retry.
const ApologyReply = "Sorry, I'm having trouble reaching my language model right now. Please try again in a moment."

// GoodbyeReply acknowledges an exit keyword. Exit handling never
// touches the model; state is already on disk.
const GoodbyeReply = "👋 Goodbye! Your tasks are saved."

// exitKeywords are recognized locally and never reach the model.
var exitKeywords = map[string]bool{
	"exit":    true,
	"quit":    true,
	"bye":     true,
	"goodbye": true,
}

// IsExitKeyword reports whether input is a literal exit command.
func IsExitKeyword(input string) bool {
	return exitKeywords[strings.ToLower(strings.TrimSpace(input))]
}

// Config holds the per-agent settings.
type Config struct {
	Model         string
	SystemPrompt  string
	MaxToolRounds int      // default 4
	HistoryWindow int      // default 10
	MaxTokens     int      // default 1024
	Temperature   *float64 // provider default when nil
}

// Agent is a configured orchestrator bound to one user's store.
type Agent struct {
	cfg      Config
	client   llm.Client
	registry *Registry
	hooks    []Hook
	store    *memory.Store
	log      *zap.Logger
}

// New creates an agent. The registry must already be validated
// (NewRegistry rejects bad tool sets at startup).
func New(cfg Config, client llm.Client, registry *Registry, store *memory.Store, hooks []Hook, log *zap.Logger) *Agent {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{
		cfg:      cfg,
		client:   client,
		registry: registry,
		hooks:    hooks,
		store:    store,
		log:      log,
	}
}

// Chat processes one user message synchronously and returns the reply.
// Model and tool failures degrade to textual replies; the only error
// returned is context cancellation.
func (a *Agent) Chat(ctx context.Context, input string) (string, error) {
	return a.runTurn(ctx, input, nil)
}

// ChatStream processes one user message, emitting model deltas and
// tool events to eventCh as they happen. The channel is closed when
// the turn finishes; the final reply travels in the "done" event.
func (a *Agent) ChatStream(ctx context.Context, input string, eventCh chan<- StreamEvent) {
	defer close(eventCh)

	reply, err := a.runTurn(ctx, input, eventCh)
	if err != nil {
		eventCh <- StreamEvent{Event: "error", Data: map[string]string{"error": err.Error()}}
		return
	}
	eventCh <- StreamEvent{Event: "done", Data: map[string]any{"reply": reply}}
}

func (a *Agent) runTurn(ctx context.Context, input string, eventCh chan<- StreamEvent) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "Tell me what you'd like to do — for example: add buy milk.", nil
	}

	history := FromHistory(a.store.RecentConversation(a.cfg.HistoryWindow))
	msgs := append(history, Human(input))
	schemas := a.registry.Schemas()

	var final string
	for round := 0; round < a.cfg.MaxToolRounds; round++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		prepared := make([]Message, len(msgs))
		copy(prepared, msgs)
		for _, h := range a.hooks {
			var err error
			prepared, err = h.ModifyRequest(ctx, prepared)
			if err != nil {
				a.log.Warn("hook failed, continuing without it",
					zap.String("hook", h.Name()), zap.Error(err))
			}
		}

		resp, err := a.callModel(ctx, prepared, schemas, eventCh)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			a.log.Error("model call failed", zap.Int("round", round), zap.Error(err))
			final = ApologyReply
			break
		}

		msgs = append(msgs, AI(resp.Content, toolCallsOf(resp)...))

		if len(resp.ToolCalls) == 0 {
			final = resp.Content
			break
		}

		for _, tc := range resp.ToolCalls {
			call := ToolCall{ID: tc.ID, Name: tc.Name, Args: tc.Args}
			result := a.invokeTool(ctx, call, eventCh)
			msgs = append(msgs, ToolMsg(result.ToolCallID, result.Name, result.Output))
		}
	}

	if final == "" {
		a.log.Warn("tool-round budget exhausted", zap.Int("rounds", a.cfg.MaxToolRounds))
		final = FallbackReply
	}

	a.persistTurn(input, final)
	return final, nil
}

// callModel sends one request. With an event channel it streams deltas
// as on_chat_model_stream events; otherwise it makes a plain call.
func (a *Agent) callModel(ctx context.Context, msgs []Message, schemas []llm.ToolSchema, eventCh chan<- StreamEvent) (*llm.Response, error) {
	req := llm.Request{
		Model:        a.cfg.Model,
		Messages:     toLLMMessages(msgs),
		Tools:        schemas,
		SystemPrompt: a.cfg.SystemPrompt,
		MaxTokens:    a.cfg.MaxTokens,
		Temperature:  a.cfg.Temperature,
	}

	if eventCh == nil {
		return a.client.Call(ctx, req)
	}

	eventCh <- StreamEvent{Event: "on_chat_model_start", Name: a.cfg.Model}

	chunkCh := make(chan llm.StreamChunk, 64)
	var streamErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		streamErr = a.client.Stream(ctx, req, chunkCh)
	}()

	resp := &llm.Response{}
	for chunk := range chunkCh {
		if chunk.Error != nil {
			wg.Wait()
			return nil, chunk.Error
		}
		if chunk.Delta != "" {
			resp.Content += chunk.Delta
			eventCh <- StreamEvent{
				Event: "on_chat_model_stream",
				Name:  a.cfg.Model,
				Data:  map[string]any{"chunk": chunk.Delta},
			}
		}
		if chunk.ToolCall != nil {
			resp.ToolCalls = append(resp.ToolCalls, *chunk.ToolCall)
		}
	}
	wg.Wait()
	if streamErr != nil {
		return nil, streamErr
	}

	eventCh <- StreamEvent{Event: "on_chat_model_end", Name: a.cfg.Model}
	return resp, nil
}

// invokeTool runs one tool call through the hook chain. Tools execute
// sequentially: every tool mutates the same single-writer store.
func (a *Agent) invokeTool(ctx context.Context, call ToolCall, eventCh chan<- StreamEvent) ToolResult {
	if eventCh != nil {
		eventCh <- StreamEvent{
			Event: "on_tool_start", Name: call.Name, RunID: call.ID,
			Data: map[string]any{"input": call.Args},
		}
	}

	fn := a.baseToolCall
	for i := len(a.hooks) - 1; i >= 0; i-- {
		hook := a.hooks[i]
		next := fn
		fn = func(ctx context.Context, call ToolCall) (*ToolResult, error) {
			return hook.WrapToolCall(ctx, call, next)
		}
	}

	var result ToolResult
	wrapped, err := fn(ctx, call)
	if err != nil {
		result = ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Error:      err.Error(),
			Output:     "Error: " + err.Error(),
		}
	} else if wrapped != nil {
		result = *wrapped
	}

	if eventCh != nil {
		eventCh <- StreamEvent{
			Event: "on_tool_end", Name: call.Name, RunID: call.ID,
			Data: map[string]any{"output": result.Output},
		}
	}
	return result
}

func (a *Agent) baseToolCall(ctx context.Context, call ToolCall) (*ToolResult, error) {
	tool := a.registry.Get(call.Name)
	if tool == nil {
		a.log.Warn("model requested unknown tool", zap.String("tool", call.Name))
		return &ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Error:      "unknown tool",
			Output:     "Error: tool \"" + call.Name + "\" not found",
		}, nil
	}

	output, err := tool.Execute(ctx, call.Args)
	if err != nil {
		return &ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Error:      err.Error(),
			Output:     "Error: " + err.Error(),
		}, nil
	}
	return &ToolResult{ToolCallID: call.ID, Name: call.Name, Output: output}, nil
}

// persistTurn appends the user and assistant messages to the store.
// Persistence failures are logged, never surfaced into the chat.
func (a *Agent) persistTurn(input, reply string) {
	if err := a.store.AppendConversation(memory.RoleUser, input); err != nil {
		a.log.Error("could not persist user message", zap.Error(err))
	}
	if err := a.store.AppendConversation(memory.RoleAssistant, reply); err != nil {
		a.log.Error("could not persist assistant message", zap.Error(err))
	}
}

func toolCallsOf(resp *llm.Response) []ToolCall {
	calls := make([]ToolCall, 0, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		calls = append(calls, ToolCall{ID: tc.ID, Name: tc.Name, Args: tc.Args})
	}
	return calls
}

func toLLMMessages(msgs []Message) []llm.Message {
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		out[i] = llm.Message{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			out[i].ToolCalls = append(out[i].ToolCalls, llm.ToolCallInfo{
				ID:   tc.ID,
				Name: tc.Name,
				Args: tc.Args,
			})
		}
	}
	return out
}
