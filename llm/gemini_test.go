package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeminiCall_ParsesTextAndFunctionCalls(t *testing.T) {
	var gotPath string
	var gotKey string
	var gotBody geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)

		resp := geminiResponse{Candidates: []geminiCandidate{{
			Content: geminiContent{
				Role: "model",
				Parts: []geminiPart{
					{Text: "Adding that "},
					{Text: "for you."},
					{FunctionCall: &geminiFunctionCall{
						Name: "add_todo",
						Args: map[string]any{"input": "buy milk"},
					}},
				},
			},
		}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewGeminiClient("test-key", "gemini-2.0-flash")
	c.baseURL = server.URL

	resp, err := c.Call(context.Background(), Request{
		SystemPrompt: "be helpful",
		Messages:     []Message{{Role: "user", Content: "add buy milk"}},
		Tools:        []ToolSchema{{Name: "add_todo", Description: "adds"}},
		MaxTokens:    256,
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	if resp.Content != "Adding that for you." {
		t.Fatalf("text parts not joined: %q", resp.Content)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.Name != "add_todo" || tc.Args["input"] != "buy milk" {
		t.Fatalf("unexpected tool call: %+v", tc)
	}
	if tc.ID == "" {
		t.Fatal("tool call needs a generated id")
	}

	if gotPath != "/models/gemini-2.0-flash:generateContent" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header missing, got %q", gotKey)
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "be helpful" {
		t.Fatalf("system instruction not sent: %+v", gotBody.SystemInstruction)
	}
	if gotBody.GenerationConfig == nil || gotBody.GenerationConfig.MaxOutputTokens != 256 {
		t.Fatalf("generation config not sent: %+v", gotBody.GenerationConfig)
	}
	if len(gotBody.Tools) != 1 || gotBody.Tools[0].FunctionDeclarations[0].Name != "add_todo" {
		t.Fatalf("tool declarations not sent: %+v", gotBody.Tools)
	}
}

func TestGeminiBuildRequest_RoleMapping(t *testing.T) {
	c := NewGeminiClient("k", "")
	data, err := c.buildRequest(Request{Messages: []Message{
		{Role: "user", Content: "add buy milk"},
		{Role: "assistant", ToolCalls: []ToolCallInfo{{
			ID: "id1", Name: "add_todo", Args: map[string]any{"input": "buy milk"},
		}}},
		{Role: "tool", Name: "add_todo", Content: "✅ Task 'buy milk' added"},
		{Role: "assistant", Content: "Done!"},
	}})
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}

	var req geminiRequest
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("parse built request: %v", err)
	}
	if len(req.Contents) != 4 {
		t.Fatalf("expected 4 contents, got %d", len(req.Contents))
	}

	if req.Contents[0].Role != "user" {
		t.Fatalf("user turn mapped to %q", req.Contents[0].Role)
	}
	if req.Contents[1].Role != "model" || req.Contents[1].Parts[0].FunctionCall == nil {
		t.Fatalf("assistant tool call not mapped to model functionCall: %+v", req.Contents[1])
	}

	// Tool results ride on a user turn as functionResponse objects.
	fr := req.Contents[2].Parts[0].FunctionResponse
	if req.Contents[2].Role != "user" || fr == nil {
		t.Fatalf("tool result not mapped: %+v", req.Contents[2])
	}
	if fr.Name != "add_todo" || fr.Response["result"] != "✅ Task 'buy milk' added" {
		t.Fatalf("unexpected functionResponse: %+v", fr)
	}

	if req.Contents[3].Role != "model" || req.Contents[3].Parts[0].Text != "Done!" {
		t.Fatalf("assistant text not mapped: %+v", req.Contents[3])
	}
}

func TestGeminiCall_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewGeminiClient("k", "")
	c.baseURL = server.URL

	if _, err := c.Call(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestGeminiStream_ParsesSSE(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, `data: {"candidates":[{"content":{"role":"model","parts":[{"text":"Hel"}]}}]}`+"\n\n")
		io.WriteString(w, `data: {"candidates":[{"content":{"role":"model","parts":[{"text":"lo"}]},"finishReason":"STOP"}]}`+"\n\n")
	}))
	defer server.Close()

	c := NewGeminiClient("k", "")
	c.baseURL = server.URL

	ch := make(chan StreamChunk, 16)
	if err := c.Stream(context.Background(), Request{}, ch); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var text string
	var done bool
	for chunk := range ch {
		text += chunk.Delta
		if chunk.Done {
			done = true
		}
	}
	if text != "Hello" {
		t.Fatalf("expected Hello, got %q", text)
	}
	if !done {
		t.Fatal("missing done chunk")
	}
}
