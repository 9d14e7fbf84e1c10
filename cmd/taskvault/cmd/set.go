package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskvault/taskvault/pkg/codec"
	"github.com/taskvault/taskvault/pkg/store"
)

// setCmd represents the set command
var setCmd = &cobra.Command{
	Use:   "set <task> <attr=value>...",
	Short: "Set attributes on a task",
	Long: `Set one or more attributes on a task, creating the task if it does
not exist. Existing attributes not named are kept.

Values are parsed as the narrowest fitting type: booleans, integers,
floats, then strings. Prefix a value with a type tag to force one,
e.g. s:42 stores the string "42" and l:7 a 64-bit integer.

Example:
  taskvault set task-1 title="buy milk" priority=2 done=false`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		tasks, err := taskStoreFrom(cmd)
		if err != nil {
			return err
		}

		attrs, err := tasks.GetAttributes(key)
		if err != nil {
			if !errors.Is(err, store.ErrTaskNotFound) {
				return fmt.Errorf("failed to read task: %w", err)
			}
			attrs = codec.NewAttributeMap()
		}

		for _, arg := range args[1:] {
			name, literal, ok := strings.Cut(arg, "=")
			if !ok || name == "" {
				return fmt.Errorf("invalid attribute %q, expected name=value", arg)
			}
			attrs.Set(name, codec.ParseLiteral(literal))
		}

		if err := tasks.PutAttributes(key, attrs); err != nil {
			return fmt.Errorf("failed to store task: %w", err)
		}

		taskIndex, err := taskIndexFrom(cmd)
		if err != nil {
			return err
		}
		if err := taskIndex.IndexTask(key, attrs); err != nil {
			return fmt.Errorf("failed to index task: %w", err)
		}

		cmd.Printf("Set %d attribute(s) on '%s'\n", len(args)-1, key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
