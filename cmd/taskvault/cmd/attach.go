package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/taskvault/taskvault/pkg/storage"
)

func openAttachments(cmd *cobra.Command) (*storage.AttachmentStore, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	return storage.Open(filepath.Join(dataDir, "attachments"))
}

// attachCmd groups the attachment subcommands.
var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Manage attachments",
}

var attachPutCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "Store a file as an attachment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		attachments, err := openAttachments(cmd)
		if err != nil {
			return err
		}
		defer attachments.Close()

		id, err := attachments.Create(data)
		if err != nil {
			return fmt.Errorf("failed to store attachment: %w", err)
		}

		cmd.Println(id.String())
		return nil
	},
}

var attachGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Read an attachment",
	Long:  `Read an attachment and write it to stdout, or to --output if given.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid attachment id: %w", err)
		}

		attachments, err := openAttachments(cmd)
		if err != nil {
			return err
		}
		defer attachments.Close()

		data, err := attachments.Read(id)
		if err != nil {
			if errors.Is(err, storage.ErrAttachmentNotFound) {
				return fmt.Errorf("attachment '%s' not found", args[0])
			}
			return fmt.Errorf("failed to read attachment: %w", err)
		}

		output, _ := cmd.Flags().GetString("output")
		if output != "" {
			return os.WriteFile(output, data, 0644)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var attachRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an attachment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid attachment id: %w", err)
		}

		attachments, err := openAttachments(cmd)
		if err != nil {
			return err
		}
		defer attachments.Close()

		if err := attachments.Delete(id); err != nil {
			if errors.Is(err, storage.ErrAttachmentNotFound) {
				return fmt.Errorf("attachment '%s' not found", args[0])
			}
			return fmt.Errorf("failed to delete attachment: %w", err)
		}

		cmd.Printf("Deleted '%s'\n", args[0])
		return nil
	},
}

var attachLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List attachment ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		attachments, err := openAttachments(cmd)
		if err != nil {
			return err
		}
		defer attachments.Close()

		ids, err := attachments.List()
		if err != nil {
			return fmt.Errorf("failed to list attachments: %w", err)
		}
		for _, id := range ids {
			cmd.Println(id.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attachCmd)
	attachCmd.AddCommand(attachPutCmd)
	attachCmd.AddCommand(attachGetCmd)
	attachCmd.AddCommand(attachRmCmd)
	attachCmd.AddCommand(attachLsCmd)
	attachGetCmd.Flags().StringP("output", "o", "", "Write the attachment to this file")
}
