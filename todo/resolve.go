package todo

import (
	"fmt"
	"strconv"
	"strings"

	"snello/memory"
)

// resolve turns a user/model-supplied reference into an index in the
// active list. A reference is either a 1-based position or free text
// matched case-insensitively as a substring. Ambiguous text (more than
// one match) is rejected so the caller retries with an index; there is
// no fuzzy ranking and no auto-pick.
func resolve(tasks []memory.Task, ref string) (int, Result) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, failf(CodeInvalidInput, "❌ Tell me which task, by number or text")
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(tasks) {
			if len(tasks) == 0 {
				return -1, failf(CodeOutOfRange, EmptyListSentinel)
			}
			return -1, failf(CodeOutOfRange, "❌ Task number %d is out of range, choose between 1 and %d", n, len(tasks))
		}
		return n - 1, Result{Code: CodeOK}
	}

	matches := findAll(tasks, ref)
	switch len(matches) {
	case 0:
		return -1, failf(CodeNotFound, "⚠️ No task found matching '%s'", ref)
	case 1:
		return matches[0], Result{Code: CodeOK}
	default:
		var sb strings.Builder
		fmt.Fprintf(&sb, "⚠️ '%s' matches %d tasks, use the number instead:\n", ref, len(matches))
		for _, idx := range matches {
			fmt.Fprintf(&sb, "%d. %s\n", idx+1, tasks[idx].Text)
		}
		return -1, failf(CodeAmbiguous, "%s", strings.TrimRight(sb.String(), "\n"))
	}
}

// findAll returns indices of tasks whose text contains query,
// case-insensitively.
func findAll(tasks []memory.Task, query string) []int {
	q := strings.ToLower(query)
	var out []int
	for i, t := range tasks {
		if strings.Contains(strings.ToLower(t.Text), q) {
			out = append(out, i)
		}
	}
	return out
}

// findExact returns the index of the task whose text equals s
// case-insensitively, or -1.
func findExact(tasks []memory.Task, s string) int {
	for i, t := range tasks {
		if strings.EqualFold(t.Text, s) {
			return i
		}
	}
	return -1
}
