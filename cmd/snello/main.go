// Command snello is the conversational todo assistant. Run without
// arguments for an interactive chat; subcommands manage stored data
// directly and `serve` exposes the HTTP surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"snello/config"
	"snello/memory"
	"snello/todo"
)

var (
	// Global flags
	configPath string
	userID     string
	dataDir    string
	modelSpec  string
	verbose    bool

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "snello",
	Short: "Snello - a conversational todo assistant",
	Long: `Snello manages your todo list through natural conversation.

Free-text messages are routed through a language model that calls task
tools (add, list, remove, complete, update, search, clear) on your
behalf. All data lives in plain JSON files under the data directory.

Run without arguments to start the interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else if cmd.Name() != "serve" {
			// Keep the terminal clean during chat and data commands.
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "snello.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "default", "user id owning the data")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the data directory")
	rootCmd.PersistentFlags().StringVarP(&modelSpec, "model", "m", "", "override the model, e.g. gemini:gemini-2.0-flash")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(clearCmd)
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if modelSpec != "" {
		cfg.Model = modelSpec
	}
	return cfg, nil
}

// openStore opens the flag-selected user's store. Data commands work
// on the store directly, no model needed.
func openStore(cfg *config.Config) (*memory.Store, error) {
	return memory.NewStore(cfg.DataDir, userID,
		memory.WithHistoryLimit(cfg.HistoryLimit),
		memory.WithLogger(logger.Named("memory")),
	)
}

func openTools(cfg *config.Config) (*memory.Store, *todo.Tools, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, todo.NewTools(store, logger.Named("todo")), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
