package main

import (
	"github.com/spf13/cobra"

	"github.com/andreisalomia/mini-jira/internal/types"
	"github.com/andreisalomia/mini-jira/internal/ui"
)

func (c *cli) createCmd() *cobra.Command {
	var (
		in       types.NewIssue
		priority string
		useForm  bool
	)
	cmd := &cobra.Command{
		Use:     "create",
		GroupID: "issues",
		Short:   "Create a new issue",
		Long: `Create a new issue in a project. The caller becomes the reporter.

Examples:
  mj create --project web --title "Login page 500s"
  mj create --project web --title "Dark mode" --priority high --assignee dev
  mj create --project web --form`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, caller, err := c.authenticate(ctx)
			if err != nil {
				return err
			}
			if useForm {
				if err := runCreateForm(&in, &priority); err != nil {
					return err
				}
			}
			if priority != "" {
				p, err := types.ParsePriority(priority)
				if err != nil {
					return err
				}
				in.Priority = p
			}
			in.ReporterID = caller.ID

			issue, err := eng.CreateIssue(ctx, in)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return outputJSON(c.out, issue)
			}
			c.printf("%s Created issue %s: %s\n", ui.RenderPass(ui.IconPass), ui.RenderID(issue.ID), issue.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.ProjectID, "project", "p", "", "Project ID (required)")
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "Issue title")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "Issue description (markdown)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority: low, medium, high, critical (default medium)")
	cmd.Flags().StringVarP(&in.AssigneeID, "assignee", "a", "", "Assignee user ID")
	cmd.Flags().BoolVar(&useForm, "form", false, "Fill in the issue with an interactive form")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
