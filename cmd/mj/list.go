package main

import (
	"github.com/spf13/cobra"

	"github.com/andreisalomia/mini-jira/internal/query"
	"github.com/andreisalomia/mini-jira/internal/types"
	"github.com/andreisalomia/mini-jira/internal/ui"
)

func (c *cli) listCmd() *cobra.Command {
	var (
		project                            string
		search, priority, assignee, status string
		board                              bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		GroupID: "issues",
		Short:   "List issues, optionally filtered or as a board",
		Long: `List issues in creation order. Filters combine with AND.

Examples:
  mj list --project web
  mj list --project web --search login --status open
  mj list --project web --assignee me --priority high
  mj list --project web --board`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			f, err := query.ParseFilter(search, priority, assignee, status)
			if err != nil {
				return err
			}
			eng, caller, err := c.authenticate(ctx)
			if err != nil {
				return err
			}
			snapshot, err := eng.ListIssues(ctx, project, caller.ID)
			if err != nil {
				return err
			}
			issues := snapshot
			if !f.IsEmpty() {
				issues = eng.FilterIssues(snapshot, f, caller.ID)
			}

			if board {
				columns := query.Board(issues)
				if c.jsonOutput {
					return outputJSON(c.out, columns)
				}
				c.printf("%s\n", ui.RenderBoard(columns, ui.TerminalWidth(120)))
				return nil
			}
			if c.jsonOutput {
				return outputJSON(c.out, issues)
			}
			c.printIssueList(issues)
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project ID (default: all projects)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive text in title or description")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority: low, medium, high, critical")
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "Assignee: me or unassigned")
	cmd.Flags().StringVar(&status, "status", "", "Status: open, in_progress, done")
	cmd.Flags().BoolVar(&board, "board", false, "Group issues into status columns")
	return cmd
}

func (c *cli) printIssueList(issues []*types.Issue) {
	if len(issues) == 0 {
		c.printf("No issues found.\n")
		return
	}
	for _, issue := range issues {
		assignee := issue.AssigneeID
		if assignee == "" {
			assignee = "-"
		}
		c.printf("%s  %s  %s  %s  %s\n",
			ui.PadStyled(ui.RenderID(issue.ID), issue.ID, 10),
			ui.PadStyled(ui.RenderStatus(issue.Status), string(issue.Status), 11),
			ui.PadStyled(ui.RenderPriority(issue.Priority), string(issue.Priority), 8),
			ui.RenderMuted(ui.PadRight(assignee, 10)),
			ui.TruncateSimple(issue.Title, ui.DefaultTitleWidth),
		)
	}
	c.printf("\n%d issue(s)\n", len(issues))
}
