package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andreisalomia/mini-jira/internal/engine"
	"github.com/andreisalomia/mini-jira/internal/types"
	"github.com/andreisalomia/mini-jira/internal/ui"
	"github.com/andreisalomia/mini-jira/internal/workflow"
)

// timeLayout is how timestamps appear in human output.
const timeLayout = "2006-01-02 15:04"

// issueDetail is the --json shape of `mj show`.
type issueDetail struct {
	*types.Issue
	Comments []*types.Comment `json:"comments"`
}

func (c *cli) showCmd() *cobra.Command {
	var full, localTime bool
	cmd := &cobra.Command{
		Use:     "show <issue-id>",
		GroupID: "issues",
		Short:   "Show an issue with its live comment thread",
		Args:    issueIDArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, caller, err := c.authenticate(ctx)
			if err != nil {
				return err
			}
			detail, err := loadIssueDetail(cmd, eng, args[0], caller.ID)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return outputJSON(c.out, detail)
			}
			c.printIssue(detail, full, localTime)
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Show the complete description")
	cmd.Flags().BoolVar(&localTime, "local-time", false, "Show timestamps in local time instead of UTC")
	return cmd
}

func loadIssueDetail(cmd *cobra.Command, eng *engine.Engine, id, callerID string) (*issueDetail, error) {
	issue, err := eng.GetIssue(cmd.Context(), id, callerID)
	if err != nil {
		return nil, err
	}
	comments, err := eng.ListComments(cmd.Context(), id, callerID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = make([]*types.Comment, 0)
	}
	return &issueDetail{Issue: issue, Comments: comments}, nil
}

// nextStatuses lists the statuses an issue can move to in one step.
func nextStatuses(s types.Status) string {
	targets := workflow.Targets(s)
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, ui.RenderStatus(t))
	}
	return strings.Join(out, ", ")
}

func formatTime(t time.Time, local bool) string {
	if local {
		t = t.Local()
	}
	return t.Format(timeLayout)
}

func (c *cli) printIssue(d *issueDetail, full, localTime bool) {
	issue := d.Issue
	c.printf("\n%s %s\n", ui.RenderID(issue.ID), issue.Title)
	c.printf("%s\n", ui.RenderSeparator())

	assignee := issue.AssigneeID
	if assignee == "" {
		assignee = ui.RenderMuted("unassigned")
	}
	c.printf("Status:    %s\n", ui.RenderStatus(issue.Status))
	c.printf("Next:      %s\n", nextStatuses(issue.Status))
	c.printf("Priority:  %s\n", ui.RenderPriority(issue.Priority))
	c.printf("Project:   %s\n", issue.ProjectID)
	c.printf("Reporter:  %s\n", issue.ReporterID)
	c.printf("Assignee:  %s\n", assignee)
	c.printf("Created:   %s\n", formatTime(issue.CreatedAt, localTime))
	c.printf("Updated:   %s\n", formatTime(issue.UpdatedAt, localTime))

	if issue.Description != "" {
		desc := issue.Description
		if !full {
			desc = ui.TruncateLines(desc, ui.DefaultMaxLines, ui.DefaultContextLines)
		}
		c.printf("\n%s\n%s\n", ui.RenderCategory("Description"), strings.TrimRight(ui.RenderMarkdown(desc), "\n"))
	}

	if len(d.Comments) > 0 {
		c.printf("\n%s\n", ui.RenderCategory("Comments"))
		c.printComments(d.Comments, localTime)
	}
}

func (c *cli) printComments(comments []*types.Comment, localTime bool) {
	for _, comment := range comments {
		edited := ""
		if comment.UpdatedAt.After(comment.CreatedAt) {
			edited = ui.RenderMuted(" (edited)")
		}
		c.printf("[%s] at %s%s %s\n", comment.AuthorID, formatTime(comment.CreatedAt, localTime), edited, ui.RenderMuted(comment.ID))
		rendered := ui.RenderMarkdown(comment.Content)
		for _, line := range strings.Split(strings.TrimRight(rendered, "\n"), "\n") {
			c.printf("  %s\n", line)
		}
		c.printf("\n")
	}
}
