package agent

// StreamEvent is sent from the agent loop to streaming chat surfaces
// (SSE, websocket).
type StreamEvent struct {
	Event string `json:"event"` // on_chat_model_start/stream/end, on_tool_start, on_tool_end, done, error
	Name  string `json:"name,omitempty"`
	RunID string `json:"run_id,omitempty"`
	Data  any    `json:"data,omitempty"`
}
