package todo

import (
	"context"
	"fmt"
	"strings"

	"snello/agent"
	"snello/memory"
)

// Catalog builds the model-facing tool set over the task operations.
// Every tool takes a single "input" string; structure inside it (the
// pipe-separated segments) is described in the tool description so
// the model can produce it without a nested schema.
func Catalog(tools *Tools) []agent.Tool {
	return []agent.Tool{
		&agent.FuncTool{
			ToolName: "add_todo",
			ToolDesc: "Add a task to the todo list. Input is the task text. " +
				"Optionally append ' | <priority>' (low, medium, high) and ' | <comma-separated tags>', " +
				"e.g. 'buy milk | high | errands,shopping'.",
			ToolParams: inputSchema("Task text, optionally followed by ' | priority' and ' | tags'."),
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				text, priority, tags := parseAddInput(inputArg(args))
				return tools.Add(text, priority, tags).Message, nil
			},
		},
		&agent.FuncTool{
			ToolName: "list_todos",
			ToolDesc: "Show the user's todo list. Input may be empty (active tasks only), " +
				"or 'all' / 'completed' to include completed tasks.",
			ToolParams: inputSchema("Empty for active tasks, 'all' or 'completed' to include completed ones."),
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				scope := strings.ToLower(inputArg(args))
				includeCompleted := scope == "all" || scope == "completed"
				return tools.List(includeCompleted), nil
			},
		},
		&agent.FuncTool{
			ToolName: "remove_todo",
			ToolDesc: "Remove a task from the todo list. Input is the task number " +
				"(as shown by list_todos) or a fragment of the task text.",
			ToolParams: inputSchema("Task number or a fragment of the task text."),
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				return tools.Remove(inputArg(args)).Message, nil
			},
		},
		&agent.FuncTool{
			ToolName: "complete_todo",
			ToolDesc: "Mark a task as completed. Input is the task number " +
				"(as shown by list_todos) or a fragment of the task text.",
			ToolParams: inputSchema("Task number or a fragment of the task text."),
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				return tools.Complete(inputArg(args)).Message, nil
			},
		},
		&agent.FuncTool{
			ToolName: "update_todo",
			ToolDesc: "Rewrite the text of an existing task. Input is " +
				"'<task number or fragment> | <new text>', e.g. '2 | buy oat milk'.",
			ToolParams: inputSchema("'<task number or fragment> | <new text>'."),
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				ref, newText, ok := splitPipe(inputArg(args))
				if !ok {
					return "❌ Update needs '<task> | <new text>', e.g. '2 | buy oat milk'", nil
				}
				return tools.Update(ref, newText).Message, nil
			},
		},
		&agent.FuncTool{
			ToolName: "search_todos",
			ToolDesc: "Find tasks whose text contains the input, case-insensitively.",
			ToolParams: inputSchema("Text to search for."),
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				return tools.Search(inputArg(args)).Message, nil
			},
		},
		&agent.FuncTool{
			ToolName: "clear_todos",
			ToolDesc: "Delete every active task. Input may be empty, or 'all' to " +
				"also delete the completed history. Only call this when the user " +
				"clearly asked to clear the whole list.",
			ToolParams: inputSchema("Empty to clear active tasks, 'all' to also clear completed ones."),
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				includeCompleted := strings.ToLower(inputArg(args)) == "all"
				return tools.Clear(includeCompleted).Message, nil
			},
		},
	}
}

// inputArg extracts the single "input" argument, tolerating non-string
// values the model occasionally produces (numbers for task references).
func inputArg(args map[string]any) string {
	v, ok := args["input"]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%v", s)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func inputSchema(desc string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{
				"type":        "string",
				"description": desc,
			},
		},
		"required": []string{"input"},
	}
}

// splitPipe splits "left | right" on the first pipe. ok is false when
// there is no pipe or either side is blank.
func splitPipe(s string) (left, right string, ok bool) {
	before, after, found := strings.Cut(s, "|")
	if !found {
		return "", "", false
	}
	left = strings.TrimSpace(before)
	right = strings.TrimSpace(after)
	return left, right, left != "" && right != ""
}

// parseAddInput splits "text | priority | tag1,tag2" into its parts.
// Missing segments fall back to medium priority and no tags.
func parseAddInput(s string) (text string, priority memory.Priority, tags []string) {
	parts := strings.Split(s, "|")
	text = strings.TrimSpace(parts[0])
	priority = memory.PriorityMedium
	if len(parts) > 1 {
		if p := memory.Priority(strings.ToLower(strings.TrimSpace(parts[1]))); p != "" {
			priority = p
		}
	}
	if len(parts) > 2 {
		for _, tag := range strings.Split(parts[2], ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, strings.TrimPrefix(tag, "#"))
			}
		}
	}
	return text, priority, tags
}
