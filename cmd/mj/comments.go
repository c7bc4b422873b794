package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andreisalomia/mini-jira/internal/types"
	"github.com/andreisalomia/mini-jira/internal/ui"
)

func (c *cli) commentsCmd() *cobra.Command {
	var localTime bool
	cmd := &cobra.Command{
		Use:     "comments <issue-id>",
		GroupID: "issues",
		Short:   "View or manage comments on an issue",
		Long: `View or manage comments on an issue.

Examples:
  # List the live comments on an issue, oldest first
  mj comments mj-a1b2c3

  # Add a comment
  mj comments add mj-a1b2c3 "Working on this now"

  # Add a comment from a file
  mj comments add mj-a1b2c3 -f notes.md

  # Edit or remove one of your own comments
  mj comments edit c-5f0e... "Reworded"
  mj comments rm c-5f0e...`,
		Args: issueIDArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, caller, err := c.authenticate(ctx)
			if err != nil {
				return err
			}
			issueID := args[0]
			comments, err := eng.ListComments(ctx, issueID, caller.ID)
			if err != nil {
				return err
			}
			// Normalize nil to empty slice for consistent JSON output
			if comments == nil {
				comments = make([]*types.Comment, 0)
			}
			if c.jsonOutput {
				return outputJSON(c.out, comments)
			}
			if len(comments) == 0 {
				c.printf("No comments on %s\n", issueID)
				return nil
			}
			c.printf("\nComments on %s:\n\n", ui.RenderID(issueID))
			c.printComments(comments, localTime)
			return nil
		},
	}
	cmd.Flags().BoolVar(&localTime, "local-time", false, "Show timestamps in local time instead of UTC")
	cmd.AddCommand(c.commentsAddCmd(), c.commentsEditCmd(), c.commentsRmCmd())
	return cmd
}

// commentText takes the body from --file when given, else from args[idx].
func commentText(cmd *cobra.Command, args []string, idx int) (string, error) {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - user-provided file path is intentional
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		return string(data), nil
	}
	if len(args) <= idx {
		return "", fmt.Errorf("comment text required (use -f to read from file)")
	}
	return args[idx], nil
}

func (c *cli) commentsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <issue-id> [text]",
		Short: "Add a comment to an issue",
		Args:  issueIDArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := commentText(cmd, args, 1)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			eng, caller, err := c.authenticate(ctx)
			if err != nil {
				return err
			}
			comment, err := eng.AddComment(ctx, args[0], caller.ID, text)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return outputJSON(c.out, comment)
			}
			c.printf("%s Comment %s added to %s\n", ui.RenderPass(ui.IconPass), ui.RenderMuted(comment.ID), ui.RenderID(args[0]))
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "Read comment text from file")
	return cmd
}

func (c *cli) commentsEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <comment-id> [text]",
		Short: "Replace the text of one of your comments",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := commentText(cmd, args, 1)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			eng, caller, err := c.authenticate(ctx)
			if err != nil {
				return err
			}
			comment, err := eng.EditComment(ctx, args[0], caller.ID, text)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return outputJSON(c.out, comment)
			}
			c.printf("%s Comment %s updated\n", ui.RenderPass(ui.IconPass), ui.RenderMuted(comment.ID))
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "Read comment text from file")
	return cmd
}

func (c *cli) commentsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <comment-id>",
		Aliases: []string{"delete"},
		Short:   "Remove one of your comments",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, caller, err := c.authenticate(ctx)
			if err != nil {
				return err
			}
			if err := eng.DeleteComment(ctx, args[0], caller.ID); err != nil {
				return err
			}
			if c.jsonOutput {
				return outputJSON(c.out, map[string]string{"id": args[0], "status": "deleted"})
			}
			c.printf("%s Comment %s removed\n", ui.RenderPass(ui.IconPass), ui.RenderMuted(args[0]))
			return nil
		},
	}
}
