package todo

import (
	"fmt"
	"strings"

	"snello/memory"
)

// EmptyListSentinel is returned whenever there is nothing to list.
const EmptyListSentinel = "📝 Your todo list is empty"

func renderList(doc *memory.TaskDocument, includeCompleted bool) string {
	if len(doc.Todos) == 0 && (!includeCompleted || len(doc.Completed) == 0) {
		return EmptyListSentinel
	}

	var sb strings.Builder
	if len(doc.Todos) > 0 {
		sb.WriteString("📝 Your Todo List:\n")
		for i, task := range doc.Todos {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, renderTask(task))
		}
	} else {
		sb.WriteString(EmptyListSentinel + "\n")
	}

	if includeCompleted && len(doc.Completed) > 0 {
		sb.WriteString("✅ Completed:\n")
		for i, task := range doc.Completed {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, task.Text)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderTask renders one active task. Default priority stays silent so
// simple lists read as plain text; tags render as #hashtags.
func renderTask(t memory.Task) string {
	var sb strings.Builder
	sb.WriteString(t.Text)
	if t.Priority != "" && t.Priority != memory.PriorityMedium {
		fmt.Fprintf(&sb, " [%s]", t.Priority)
	}
	for _, tag := range t.Tags {
		fmt.Fprintf(&sb, " #%s", tag)
	}
	return sb.String()
}
