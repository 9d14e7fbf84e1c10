package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/taskvault/taskvault/pkg/index"
	"github.com/taskvault/taskvault/pkg/logger"
	"github.com/taskvault/taskvault/pkg/logger/std"
	"github.com/taskvault/taskvault/pkg/store"
)

type ctxKey int

const (
	ctxStore ctxKey = iota
	ctxIndex
	ctxLogger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taskvault",
	Short: "TaskVault - task attribute store",
	Long: `TaskVault stores per-task attribute maps in an append-only log,
serialized with a delimited key-value format, with a secondary index
for attribute queries and blob storage for attachments.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		debug, _ := cmd.Flags().GetBool("debug")
		log := std.NewLogger(debug)

		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}

		tasks, err := store.NewTaskStore(store.TaskStoreConfig{
			DataDir: filepath.Join(dataDir, "tasks"),
			Logger:  log,
		})
		if err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}
		recovery, err := tasks.Open()
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		if recovery.RecordsTruncated > 0 {
			cmd.Printf("Recovered from corruption: %d records truncated\n", recovery.RecordsTruncated)
		}

		taskIndex, err := index.Open(filepath.Join(dataDir, "index"))
		if err != nil {
			tasks.Close()
			return fmt.Errorf("failed to open index: %w", err)
		}

		ctx := context.WithValue(cmd.Context(), ctxStore, tasks)
		ctx = context.WithValue(ctx, ctxIndex, taskIndex)
		ctx = context.WithValue(ctx, ctxLogger, log)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if taskIndex, ok := cmd.Context().Value(ctxIndex).(*index.TaskIndex); ok {
			taskIndex.Close()
		}
		if tasks, ok := cmd.Context().Value(ctxStore).(*store.TaskStore); ok {
			return tasks.Close()
		}
		return nil
	},
}

func taskStoreFrom(cmd *cobra.Command) (*store.TaskStore, error) {
	tasks, ok := cmd.Context().Value(ctxStore).(*store.TaskStore)
	if !ok {
		return nil, fmt.Errorf("store not found in context")
	}
	return tasks, nil
}

func taskIndexFrom(cmd *cobra.Command) (*index.TaskIndex, error) {
	taskIndex, ok := cmd.Context().Value(ctxIndex).(*index.TaskIndex)
	if !ok {
		return nil, fmt.Errorf("index not found in context")
	}
	return taskIndex, nil
}

func loggerFrom(cmd *cobra.Command) logger.Logger {
	if log, ok := cmd.Context().Value(ctxLogger).(logger.Logger); ok {
		return log
	}
	return logger.Nop()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for the store")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}
