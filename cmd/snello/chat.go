package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"snello/agent"
	"snello/hooks"
	"snello/llm"
	"snello/todo"
)

// runInteractiveChat is the default command: a terminal REPL talking
// to the agent. Exit keywords end the session without a model call.
func runInteractiveChat(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, model, err := llm.Resolve(cfg.Model, llm.ResolverConfig{
		GeminiAPIKey: cfg.GeminiAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		BaseURL:      cfg.LLMBaseURL,
	})
	if err != nil {
		return fmt.Errorf("resolve model %q: %w", cfg.Model, err)
	}

	store, tools, err := openTools(cfg)
	if err != nil {
		return err
	}

	registry, err := agent.NewRegistry(todo.Catalog(tools)...)
	if err != nil {
		return err
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = agent.DefaultSystemPrompt
	}

	a := agent.New(agent.Config{
		Model:         model,
		SystemPrompt:  systemPrompt,
		MaxToolRounds: cfg.MaxToolRounds,
		HistoryWindow: cfg.HistoryWindow,
		MaxTokens:     cfg.MaxTokens,
	}, client, registry, store, []agent.Hook{
		hooks.NewProfileHook(store),
		hooks.NewAuditHook(logger.Named("audit")),
	}, logger.Named("agent"))

	fmt.Println("🤖 Hi! I'm Snello, your todo assistant.")
	fmt.Println("   Tell me things like 'add buy milk', 'what's on my list?' or 'done with 2'.")
	fmt.Println("   Type 'exit' to leave.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if agent.IsExitKeyword(input) {
			fmt.Println(agent.GoodbyeReply)
			return nil
		}

		reply, err := a.Chat(cmd.Context(), input)
		if err != nil {
			return err
		}
		fmt.Println(reply)
		fmt.Println()
	}
}
