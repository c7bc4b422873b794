package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/andreisalomia/mini-jira/internal/types"
	"github.com/andreisalomia/mini-jira/internal/ui"
	"github.com/andreisalomia/mini-jira/internal/validation"
)

// errFormCancelled is returned when the user aborts the form.
var errFormCancelled = errors.New("issue creation cancelled")

// newCreateForm builds the interactive create form. Values already given on
// the command line are used as the form's initial values.
func newCreateForm(in *types.NewIssue, priority *string, confirm *bool) *huh.Form {
	if *priority == "" {
		*priority = string(types.DefaultPriority)
	}
	priorityOptions := make([]huh.Option[string], 0, len(types.Priorities))
	for _, p := range types.Priorities {
		label := string(p)
		if p == types.DefaultPriority {
			label += " (default)"
		}
		priorityOptions = append(priorityOptions, huh.NewOption(label, string(p)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Description("Brief summary of the issue (required)").
				Placeholder("e.g., Login page returns 500").
				Value(&in.Title).
				Validate(validateFormTitle),

			huh.NewText().
				Title("Description").
				Description("Markdown supported").
				CharLimit(5000).
				Value(&in.Description),

			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions...).
				Value(priority),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Assignee").
				Description("User ID from the project directory (optional)").
				Value(&in.AssigneeID),

			huh.NewConfirm().
				Title("Create this issue?").
				Affirmative("Create").
				Negative("Cancel").
				Value(confirm),
		),
	).WithTheme(huh.ThemeDracula()).WithAccessible(os.Getenv("ACCESSIBLE") != "")
}

func validateFormTitle(s string) error {
	_, err := validation.Title(s)
	return err
}

// runCreateForm fills in from the terminal. It needs a TTY.
func runCreateForm(in *types.NewIssue, priority *string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("--form needs an interactive terminal")
	}
	confirm := true
	if err := newCreateForm(in, priority, &confirm).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errFormCancelled
		}
		return fmt.Errorf("form error: %w", err)
	}
	if !confirm {
		return errFormCancelled
	}
	return nil
}
