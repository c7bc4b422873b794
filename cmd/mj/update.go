package main

import (
	"github.com/spf13/cobra"

	"github.com/andreisalomia/mini-jira/internal/types"
	"github.com/andreisalomia/mini-jira/internal/ui"
)

func (c *cli) updateCmd() *cobra.Command {
	var (
		title, description, priority, status, assignee string
		unassign                                       bool
	)
	cmd := &cobra.Command{
		Use:     "update <issue-id>",
		GroupID: "issues",
		Short:   "Request a change to one or more fields of an issue",
		Long: `Request a change to an issue. All named fields are applied together or
not at all, and each changed field gets its own audit entry.

Only the reporter and the assignee may edit an issue. Moving an issue to
DONE additionally requires the caller to be its assignee.

Examples:
  mj update mj-a1b2c3 --status in_progress
  mj update mj-a1b2c3 --priority critical --assignee dev
  mj update mj-a1b2c3 --unassign`,
		Args: issueIDArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()

			var cs types.Changeset
			if flags.Changed("title") {
				cs.Title = &title
			}
			if flags.Changed("description") {
				cs.Description = &description
			}
			if flags.Changed("priority") {
				p, err := types.ParsePriority(priority)
				if err != nil {
					return err
				}
				cs.Priority = &p
			}
			if flags.Changed("status") {
				s, err := types.ParseStatus(status)
				if err != nil {
					return err
				}
				cs.Status = &s
			}
			if flags.Changed("assignee") {
				cs.AssigneeID = &assignee
			}
			if unassign {
				cs.AssigneeID = types.StringPtr("")
			}
			if cs.IsEmpty() {
				return types.Errorf(types.ReasonValidation, "no fields to update (see mj update --help)")
			}

			eng, caller, err := c.authenticate(ctx)
			if err != nil {
				return err
			}
			issue, err := eng.RequestChange(ctx, args[0], caller.ID, cs)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return outputJSON(c.out, issue)
			}
			c.printf("%s Updated issue %s: %s [%s]\n", ui.RenderPass(ui.IconPass), ui.RenderID(issue.ID), issue.Title, ui.RenderStatus(issue.Status))
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority: low, medium, high, critical")
	cmd.Flags().StringVar(&status, "status", "", "New status: open, in_progress, done")
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "New assignee user ID")
	cmd.Flags().BoolVar(&unassign, "unassign", false, "Clear the assignee")
	cmd.MarkFlagsMutuallyExclusive("assignee", "unassign")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <issue-id>",
		GroupID: "issues",
		Short:   "Delete an issue (reporter or project owner only)",
		Long: `Delete an issue. The issue disappears from lists and lookups, but its
audit trail stays readable with 'mj audit'.`,
		Args: issueIDArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, caller, err := c.authenticate(ctx)
			if err != nil {
				return err
			}
			if err := eng.DeleteIssue(ctx, args[0], caller.ID); err != nil {
				return err
			}
			if c.jsonOutput {
				return outputJSON(c.out, map[string]string{"id": args[0], "status": "deleted"})
			}
			c.printf("%s Deleted issue %s\n", ui.RenderPass(ui.IconPass), ui.RenderID(args[0]))
			return nil
		},
	}
}
