// Package todo exposes the task operations the assistant can perform.
// Every operation is synchronous, persists immediately, and fails
// softly: outcomes are reported as a code plus a human-readable message
// rather than an error, so a bad reference never breaks a chat turn.
package todo

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"snello/memory"
)

// Code names the outcome of a task operation.
type Code string

const (
	CodeOK            Code = "ok"
	CodeAlreadyExists Code = "already_exists"
	CodeNotFound      Code = "not_found"
	CodeAmbiguous     Code = "ambiguous"
	CodeOutOfRange    Code = "out_of_range"
	CodeInvalidInput  Code = "invalid_input"
	CodeStoreFailed   Code = "store_failed"
)

// Result is the outcome of a task operation.
type Result struct {
	Code    Code
	Message string
}

// OK reports whether the operation changed or read state successfully.
func (r Result) OK() bool { return r.Code == CodeOK }

func okf(format string, args ...any) Result {
	return Result{Code: CodeOK, Message: fmt.Sprintf(format, args...)}
}

func failf(code Code, format string, args ...any) Result {
	return Result{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Tools is the task-manipulation façade over the store.
type Tools struct {
	store *memory.Store
	log   *zap.Logger
}

// NewTools creates the task façade.
func NewTools(store *memory.Store, log *zap.Logger) *Tools {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tools{store: store, log: log}
}

// Add appends a task to the active list. Duplicate text
// (case-insensitive, active list only) is a soft no-op.
func (t *Tools) Add(text string, priority memory.Priority, tags []string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return failf(CodeInvalidInput, "❌ Cannot add an empty task")
	}
	if priority == "" {
		priority = memory.PriorityMedium
	}
	if !memory.ValidPriority(priority) {
		return failf(CodeInvalidInput, "❌ Unknown priority %q (use low, medium, or high)", priority)
	}

	doc := t.store.Tasks()
	if idx := findExact(doc.Todos, text); idx >= 0 {
		return failf(CodeAlreadyExists, "⚠️ Task '%s' already exists", doc.Todos[idx].Text)
	}

	doc.Todos = append(doc.Todos, memory.Task{
		Text:      text,
		Priority:  priority,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	})
	if err := t.store.SaveTasks(doc); err != nil {
		t.log.Error("add task failed", zap.String("text", text), zap.Error(err))
		return failf(CodeStoreFailed, "❌ Could not save your task, please try again")
	}
	return okf("✅ Task '%s' added", text)
}

// Remove deletes the task matching ref (1-based index or substring)
// from the active list.
func (t *Tools) Remove(ref string) Result {
	doc := t.store.Tasks()
	idx, res := resolve(doc.Todos, ref)
	if !res.OK() {
		return res
	}

	removed := doc.Todos[idx]
	doc.Todos = append(doc.Todos[:idx], doc.Todos[idx+1:]...)
	if err := t.store.SaveTasks(doc); err != nil {
		t.log.Error("remove task failed", zap.String("ref", ref), zap.Error(err))
		return failf(CodeStoreFailed, "❌ Could not save your list, please try again")
	}
	return okf("✅ Task '%s' removed", removed.Text)
}

// Complete moves the task matching ref from active to completed,
// stamping completed_at.
func (t *Tools) Complete(ref string) Result {
	doc := t.store.Tasks()
	idx, res := resolve(doc.Todos, ref)
	if !res.OK() {
		return res
	}

	task := doc.Todos[idx]
	now := time.Now().UTC()
	task.CompletedAt = &now
	doc.Todos = append(doc.Todos[:idx], doc.Todos[idx+1:]...)
	doc.Completed = append(doc.Completed, task)
	if err := t.store.SaveTasks(doc); err != nil {
		t.log.Error("complete task failed", zap.String("ref", ref), zap.Error(err))
		return failf(CodeStoreFailed, "❌ Could not save your list, please try again")
	}
	return okf("🎉 Task '%s' completed", task.Text)
}

// Update rewrites the text of the task matching ref. The new text must
// not duplicate another active task.
func (t *Tools) Update(ref, newText string) Result {
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return failf(CodeInvalidInput, "❌ Cannot update a task to empty text")
	}

	doc := t.store.Tasks()
	idx, res := resolve(doc.Todos, ref)
	if !res.OK() {
		return res
	}
	if dup := findExact(doc.Todos, newText); dup >= 0 && dup != idx {
		return failf(CodeAlreadyExists, "⚠️ Task '%s' already exists", doc.Todos[dup].Text)
	}

	old := doc.Todos[idx].Text
	doc.Todos[idx].Text = newText
	if err := t.store.SaveTasks(doc); err != nil {
		t.log.Error("update task failed", zap.String("ref", ref), zap.Error(err))
		return failf(CodeStoreFailed, "❌ Could not save your list, please try again")
	}
	return okf("✅ Task updated from '%s' to '%s'", old, newText)
}

// Clear empties the active list; completed tasks survive unless
// includeCompleted is set.
func (t *Tools) Clear(includeCompleted bool) Result {
	if err := t.store.ClearTasks(includeCompleted); err != nil {
		t.log.Error("clear tasks failed", zap.Error(err))
		return failf(CodeStoreFailed, "❌ Could not clear your list, please try again")
	}
	if includeCompleted {
		return okf("✅ All tasks cleared, including completed ones")
	}
	return okf("✅ All active tasks cleared")
}

// List renders the active list (1-based), and the completed list when
// requested. Returns a fixed sentinel when there is nothing to show.
func (t *Tools) List(includeCompleted bool) string {
	doc := t.store.Tasks()
	return renderList(doc, includeCompleted)
}

// Search renders active tasks whose text contains query,
// case-insensitively.
func (t *Tools) Search(query string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return failf(CodeInvalidInput, "❌ Cannot search with an empty query")
	}

	doc := t.store.Tasks()
	if len(doc.Todos) == 0 {
		return failf(CodeNotFound, EmptyListSentinel)
	}

	matches := findAll(doc.Todos, query)
	if len(matches) == 0 {
		return failf(CodeNotFound, "🔍 No tasks found containing '%s'", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 Tasks containing '%s':\n", query)
	for i, idx := range matches {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, renderTask(doc.Todos[idx]))
	}
	return okf("%s", strings.TrimRight(sb.String(), "\n"))
}

// Count reports how many active tasks the user has.
func (t *Tools) Count() string {
	n := len(t.store.Tasks().Todos)
	switch n {
	case 0:
		return "📝 You have no tasks in your todo list"
	case 1:
		return "📝 You have 1 task in your todo list"
	default:
		return fmt.Sprintf("📝 You have %d tasks in your todo list", n)
	}
}

// Get returns the task at a 1-based position in the active list.
func (t *Tools) Get(n int) Result {
	doc := t.store.Tasks()
	if len(doc.Todos) == 0 {
		return failf(CodeNotFound, EmptyListSentinel)
	}
	if n < 1 || n > len(doc.Todos) {
		return failf(CodeOutOfRange, "❌ Invalid task number, choose between 1 and %d", len(doc.Todos))
	}
	return okf("📝 Task %d: %s", n, renderTask(doc.Todos[n-1]))
}
