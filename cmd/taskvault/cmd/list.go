package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List task keys",
	Long: `List task keys, optionally filtered by prefix.

Example:
  taskvault list --prefix work:`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix, _ := cmd.Flags().GetString("prefix")

		tasks, err := taskStoreFrom(cmd)
		if err != nil {
			return err
		}

		keys, err := tasks.ListKeys(prefix)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		for _, key := range keys {
			cmd.Println(key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().String("prefix", "", "Only list keys with this prefix")
}
