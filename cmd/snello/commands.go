package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snello"
	"snello/memory"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (JSON chat, SSE stream, websocket)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return snello.NewServer(cfg, snello.WithLogger(logger)).Start()
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the todo list",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, tools, err := openTools(cfg)
		if err != nil {
			return err
		}
		fmt.Println(tools.List(all))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show message and task counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		s := store.Stats()
		fmt.Printf("messages:  %d\n", s.TotalMessages)
		fmt.Printf("active:    %d\n", s.ActiveTasks)
		fmt.Printf("completed: %d\n", s.CompletedTasks)
		fmt.Printf("since:     %s\n", s.CreatedAt.Format("2006-01-02 15:04"))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export all data as a JSON snapshot (stdout when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(store.Export(), "", "  ")
		if err != nil {
			return err
		}
		if len(args) == 0 {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(args[0], data, 0o644); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var snap memory.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("parse snapshot: %w", err)
		}

		mode := memory.ImportMerge
		if overwrite {
			mode = memory.ImportOverwrite
		}
		if err := store.Import(&snap, mode); err != nil {
			return err
		}
		fmt.Printf("imported %s (%s)\n", args[0], mode)
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a timestamped snapshot next to the data files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		path, err := store.Backup()
		if err != nil {
			return err
		}
		fmt.Printf("backup written to %s\n", path)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the todo list",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, tools, err := openTools(cfg)
		if err != nil {
			return err
		}
		fmt.Println(tools.Clear(all).Message)
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("all", false, "include completed tasks")
	clearCmd.Flags().Bool("all", false, "also clear completed tasks")
	importCmd.Flags().Bool("overwrite", false, "replace existing data instead of merging")
}
