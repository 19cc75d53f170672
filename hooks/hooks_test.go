package hooks

import (
	"context"
	"strings"
	"testing"

	"snello/agent"
	"snello/memory"
)

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.NewStore(t.TempDir(), "alice")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestProfileHook_InjectsUserContext(t *testing.T) {
	store := newStore(t)
	if err := store.SetUserName("Alice"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	doc := memory.NewTaskDocument()
	doc.Todos = append(doc.Todos, memory.Task{Text: "buy milk", Priority: memory.PriorityMedium})
	if err := store.SaveTasks(doc); err != nil {
		t.Fatalf("save tasks: %v", err)
	}

	hook := NewProfileHook(store)
	msgs, err := hook.ModifyRequest(context.Background(), []agent.Message{agent.Human("hi")})
	if err != nil {
		t.Fatalf("ModifyRequest: %v", err)
	}

	if msgs[0].Role != agent.RoleSystem {
		t.Fatalf("expected injected system message, got %+v", msgs[0])
	}
	content := msgs[0].Content
	for _, want := range []string{"<user_context>", "name: Alice", "active tasks: 1", "completed tasks: 0"} {
		if !strings.Contains(content, want) {
			t.Fatalf("missing %q in injected context:\n%s", want, content)
		}
	}
	if msgs[len(msgs)-1].Content != "hi" {
		t.Fatal("user message lost")
	}
}

func TestProfileHook_AppendsToExistingSystemMessage(t *testing.T) {
	hook := NewProfileHook(newStore(t))

	msgs, err := hook.ModifyRequest(context.Background(), []agent.Message{
		agent.System("base prompt"),
		agent.Human("hi"),
	})
	if err != nil {
		t.Fatalf("ModifyRequest: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected no extra message, got %d", len(msgs))
	}
	if !strings.HasPrefix(msgs[0].Content, "base prompt") || !strings.Contains(msgs[0].Content, "<user_context>") {
		t.Fatalf("context not appended to system message: %q", msgs[0].Content)
	}
}

func TestAuditHook_PassesResultThrough(t *testing.T) {
	hook := NewAuditHook(nil)

	want := &agent.ToolResult{ToolCallID: "c1", Name: "add_todo", Output: "ok"}
	got, err := hook.WrapToolCall(context.Background(),
		agent.ToolCall{ID: "c1", Name: "add_todo"},
		func(ctx context.Context, call agent.ToolCall) (*agent.ToolResult, error) {
			return want, nil
		})
	if err != nil {
		t.Fatalf("WrapToolCall: %v", err)
	}
	if got != want {
		t.Fatalf("result not passed through: %+v", got)
	}
}
