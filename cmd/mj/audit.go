package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andreisalomia/mini-jira/internal/audit"
	"github.com/andreisalomia/mini-jira/internal/timeparsing"
	"github.com/andreisalomia/mini-jira/internal/types"
	"github.com/andreisalomia/mini-jira/internal/ui"
)

func (c *cli) auditCmd() *cobra.Command {
	var (
		since     string
		localTime bool
		noPager   bool
	)
	cmd := &cobra.Command{
		Use:     "audit <issue-id>",
		GroupID: "issues",
		Short:   "Show the audit trail of an issue, oldest first",
		Long: `Show every recorded change to an issue, oldest first. Deleted issues
keep their trail.

--since accepts a compact offset (-2d, -6h), a date (2025-01-20), an
RFC3339 timestamp or plain English ("yesterday", "3 days ago").

Examples:
  mj audit mj-a1b2c3
  mj audit mj-a1b2c3 --since -1w
  mj audit mj-a1b2c3 --since yesterday --json`,
		Args: issueIDArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var from time.Time
			if since != "" {
				t, err := timeparsing.ParseRelativeTime(since, time.Now())
				if err != nil {
					return types.Wrap(types.ReasonValidation, err, "--since")
				}
				from = t
			}

			eng, caller, err := c.authenticate(ctx)
			if err != nil {
				return err
			}
			entries, err := eng.ListAudit(ctx, args[0], caller.ID)
			if err != nil {
				return err
			}
			entries = audit.Since(entries, from)
			if entries == nil {
				entries = make([]*types.AuditEntry, 0)
			}
			if c.jsonOutput {
				return outputJSON(c.out, entries)
			}
			if len(entries) == 0 {
				c.printf("No audit entries for %s\n", args[0])
				return nil
			}
			return ui.ToPager(c.out, formatAudit(args[0], entries, localTime), ui.PagerOptions{NoPager: noPager})
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "Only entries at or after this time")
	cmd.Flags().BoolVar(&localTime, "local-time", false, "Show timestamps in local time instead of UTC")
	cmd.Flags().BoolVar(&noPager, "no-pager", false, "Do not pipe output through a pager")
	return cmd
}

func formatAudit(issueID string, entries []*types.AuditEntry, localTime bool) string {
	var b strings.Builder
	b.WriteString("\nAudit trail for ")
	b.WriteString(ui.RenderID(issueID))
	b.WriteString(":\n\n")
	for _, e := range entries {
		ts := e.Timestamp
		if localTime {
			ts = ts.Local()
		}
		b.WriteString(ui.RenderMuted(ts.Format("2006-01-02 15:04:05")))
		b.WriteString("  ")
		b.WriteString(ui.PadStyled(ui.RenderAccent(e.ActorID), e.ActorID, 10))
		b.WriteString("  ")
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}
