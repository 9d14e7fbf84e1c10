package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskvault/taskvault/pkg/store"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <task>",
	Short: "Show a task's attributes",
	Long: `Show a task's attributes, one per line in stored order.

Example:
  taskvault get task-1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := taskStoreFrom(cmd)
		if err != nil {
			return err
		}

		attrs, err := tasks.GetAttributes(args[0])
		if err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				return fmt.Errorf("task '%s' not found", args[0])
			}
			return fmt.Errorf("failed to read task: %w", err)
		}

		for _, name := range attrs.Keys() {
			value, _ := attrs.Get(name)
			cmd.Printf("%s = %v\n", name, value)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
