// Package hooks contains the agent hooks: profile injection into the
// system context and tool-call auditing.
package hooks

import (
	"context"
	"fmt"
	"strings"

	"snello/agent"
	"snello/memory"
)

// ProfileHook injects the user's profile and a snapshot of their task
// counts into the system context before each model call, so the model
// can greet the user by name and answer "how many tasks do I have"
// without a tool round.
type ProfileHook struct {
	agent.BaseHook
	store *memory.Store
}

// NewProfileHook creates a profile hook bound to one user's store.
func NewProfileHook(store *memory.Store) *ProfileHook {
	return &ProfileHook{store: store}
}

func (h *ProfileHook) Name() string { return "profile" }

// ModifyRequest appends a <user_context> block to the system message,
// creating one if the request has none.
func (h *ProfileHook) ModifyRequest(ctx context.Context, msgs []agent.Message) ([]agent.Message, error) {
	profile := h.store.Profile()
	doc := h.store.Tasks()

	var sb strings.Builder
	sb.WriteString("\n\n<user_context>\n")
	if profile.UserName != "" {
		fmt.Fprintf(&sb, "name: %s\n", profile.UserName)
	}
	for k, v := range profile.Preferences {
		fmt.Fprintf(&sb, "preference %s: %s\n", k, v)
	}
	fmt.Fprintf(&sb, "active tasks: %d\n", len(doc.Todos))
	fmt.Fprintf(&sb, "completed tasks: %d\n", len(doc.Completed))
	sb.WriteString("</user_context>")
	injection := sb.String()

	if len(msgs) > 0 && msgs[0].Role == agent.RoleSystem {
		msgs[0].Content += injection
	} else {
		msgs = append([]agent.Message{agent.System(strings.TrimSpace(injection))}, msgs...)
	}
	return msgs, nil
}
