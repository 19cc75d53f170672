package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAICall_ParsesToolCalls(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		io.WriteString(w, `{
			"choices": [{
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "add_todo", "arguments": "{\"input\": \"buy milk\"}"}
					}]
				},
				"finish_reason": "tool_calls"
			}]
		}`)
	}))
	defer server.Close()

	c := NewOpenAIClient(server.URL, "sk-test", "gpt-4o-mini")
	resp, err := c.Call(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "add buy milk"}},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "add_todo" || tc.Args["input"] != "buy milk" {
		t.Fatalf("unexpected tool call: %+v", tc)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth header: %q", gotAuth)
	}
}

func TestOpenAIClient_NoAuthHeaderForOllama(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("ollama requests must not carry auth, got %q", got)
		}
		io.WriteString(w, `{"choices": [{"message": {"role": "assistant", "content": "hi"}}]}`)
	}))
	defer server.Close()

	c := NewOpenAIClient(server.URL, "ollama", "llama3.1:8b")
	if _, err := c.Call(context.Background(), Request{}); err != nil {
		t.Fatalf("Call: %v", err)
	}
}

func TestOpenAIStream_AccumulatesToolCallFragments(t *testing.T) {
	// Arguments for one call arrive split over several chunks; two calls
	// are interleaved by index.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		lines := []string{
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"c0","type":"function","function":{"name":"add_todo","arguments":"{\"inp"}}]}}]}`,
			`data: {"choices":[{"delta":{"tool_calls":[{"index":1,"id":"c1","type":"function","function":{"name":"list_todos","arguments":"{}"}}]}}]}`,
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"ut\": \"buy milk\"}"}}]}}]}`,
			`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
			`data: [DONE]`,
		}
		for _, l := range lines {
			io.WriteString(w, l+"\n\n")
		}
	}))
	defer server.Close()

	c := NewOpenAIClient(server.URL, "sk", "gpt-4o-mini")
	ch := make(chan StreamChunk, 16)
	if err := c.Stream(context.Background(), Request{}, ch); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	byID := map[string]*ToolCallResult{}
	for chunk := range ch {
		if chunk.ToolCall != nil {
			byID[chunk.ToolCall.ID] = chunk.ToolCall
		}
	}

	if len(byID) != 2 {
		t.Fatalf("expected 2 assembled tool calls, got %d", len(byID))
	}
	c0 := byID["c0"]
	if c0 == nil || c0.Name != "add_todo" || c0.Args["input"] != "buy milk" {
		t.Fatalf("fragmented arguments not reassembled: %+v", c0)
	}
	c1 := byID["c1"]
	if c1 == nil || c1.Name != "list_todos" {
		t.Fatalf("second call lost: %+v", c1)
	}
}

func TestOpenAIStream_TextDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, `data: {"choices":[{"delta":{"content":"Hel"}}]}`+"\n\n")
		io.WriteString(w, `data: {"choices":[{"delta":{"content":"lo"},"finish_reason":"stop"}]}`+"\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	c := NewOpenAIClient(server.URL, "sk", "gpt-4o-mini")
	ch := make(chan StreamChunk, 16)
	if err := c.Stream(context.Background(), Request{}, ch); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var text string
	for chunk := range ch {
		text += chunk.Delta
	}
	if text != "Hello" {
		t.Fatalf("expected Hello, got %q", text)
	}
}

func TestResolve(t *testing.T) {
	t.Run("gemini with model", func(t *testing.T) {
		c, model, err := Resolve("gemini:gemini-2.0-flash", ResolverConfig{GeminiAPIKey: "k"})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if _, ok := c.(*GeminiClient); !ok {
			t.Fatalf("expected *GeminiClient, got %T", c)
		}
		if model != "gemini-2.0-flash" {
			t.Fatalf("model: %q", model)
		}
	})

	t.Run("bare gemini uses default model", func(t *testing.T) {
		_, model, err := Resolve("gemini", ResolverConfig{GeminiAPIKey: "k"})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if model != DefaultGeminiModel {
			t.Fatalf("model: %q", model)
		}
	})

	t.Run("gemini requires key", func(t *testing.T) {
		if _, _, err := Resolve("gemini", ResolverConfig{}); err == nil {
			t.Fatal("expected error without GEMINI_API_KEY")
		}
	})

	t.Run("ollama keeps colons in model name", func(t *testing.T) {
		c, model, err := Resolve("ollama:llama3.1:8b", ResolverConfig{})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if _, ok := c.(*OpenAIClient); !ok {
			t.Fatalf("expected *OpenAIClient, got %T", c)
		}
		if model != "llama3.1:8b" {
			t.Fatalf("model: %q", model)
		}
	})

	t.Run("ollama requires model", func(t *testing.T) {
		if _, _, err := Resolve("ollama", ResolverConfig{}); err == nil {
			t.Fatal("expected error for bare ollama")
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		if _, _, err := Resolve("grok:whatever", ResolverConfig{}); err == nil {
			t.Fatal("expected error for unknown provider")
		}
	})
}
