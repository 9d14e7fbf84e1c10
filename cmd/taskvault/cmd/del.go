package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskvault/taskvault/pkg/store"
)

// delCmd represents the del command
var delCmd = &cobra.Command{
	Use:   "del <task>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := taskStoreFrom(cmd)
		if err != nil {
			return err
		}

		if err := tasks.Delete(args[0]); err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				return fmt.Errorf("task '%s' not found", args[0])
			}
			return fmt.Errorf("failed to delete task: %w", err)
		}

		taskIndex, err := taskIndexFrom(cmd)
		if err != nil {
			return err
		}
		if err := taskIndex.RemoveTask(args[0]); err != nil {
			return fmt.Errorf("failed to remove task from index: %w", err)
		}

		cmd.Printf("Deleted '%s'\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(delCmd)
}
