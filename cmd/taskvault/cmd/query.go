package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskvault/taskvault/pkg/codec"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <attribute> <value>",
	Short: "Find tasks by attribute value",
	Long: `Find tasks whose attribute equals the given value.

The value is parsed the same way as in 'set', so matches are typed:
'query priority 2' finds tasks whose priority is the number 2, while
'query priority s:2' finds the string "2".

Example:
  taskvault query tag work`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskIndex, err := taskIndexFrom(cmd)
		if err != nil {
			return err
		}

		keys, err := taskIndex.Lookup(args[0], codec.ParseLiteral(args[1]))
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		for _, key := range keys {
			cmd.Println(key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
