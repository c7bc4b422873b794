package engine

import (
	"context"

	"github.com/andreisalomia/mini-jira/internal/audit"
	"github.com/andreisalomia/mini-jira/internal/idgen"
	"github.com/andreisalomia/mini-jira/internal/query"
	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/types"
	"github.com/andreisalomia/mini-jira/internal/validation"
	"github.com/andreisalomia/mini-jira/internal/workflow"
)

// maxIDAttempts bounds the nonce search for a free issue ID.
const maxIDAttempts = 10

// CreateIssue creates an OPEN issue reported by in.ReporterID and records
// one CREATED entry.
func (e *Engine) CreateIssue(ctx context.Context, in types.NewIssue) (*types.Issue, error) {
	if in.ProjectID == "" {
		return nil, types.Errorf(types.ReasonValidation, "project is required")
	}
	if !e.dir.IsMember(ctx, in.ProjectID, in.ReporterID) {
		return nil, types.Errorf(types.ReasonForbidden, "%s is not a member of project %s", in.ReporterID, in.ProjectID)
	}
	title, err := validation.Title(in.Title)
	if err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = types.DefaultPriority
	}
	if !priority.IsValid() {
		return nil, types.Errorf(types.ReasonValidation, "invalid priority: %s", priority)
	}
	if in.AssigneeID != "" && !e.dir.IsMember(ctx, in.ProjectID, in.AssigneeID) {
		return nil, types.Errorf(types.ReasonValidation, "assignee %s is not a member of project %s", in.AssigneeID, in.ProjectID)
	}

	now := e.clock.Now()
	issue := &types.Issue{
		ProjectID:   in.ProjectID,
		Title:       title,
		Description: in.Description,
		Status:      types.StatusOpen,
		Priority:    priority,
		ReporterID:  in.ReporterID,
		AssigneeID:  in.AssigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for nonce := 0; nonce < maxIDAttempts; nonce++ {
		issue.ID = idgen.IssueID(e.prefix, in.ProjectID, title, in.ReporterID, now, idgen.DefaultLength, nonce)
		err = e.mutate(ctx, "create", issue.ID, in.ReporterID, func(tx storage.Transaction) error {
			if _, err := tx.GetIssue(ctx, issue.ID); err == nil {
				return errIDTaken
			} else if !storage.IsNotFound(err) {
				return err
			}
			if err := tx.PutIssue(ctx, issue); err != nil {
				return err
			}
			return e.trail.Append(ctx, tx, audit.NewEntry(issue.ID, in.ReporterID, types.ActionCreated, "",
				nil, types.StringPtr(string(issue.Status)), now))
		})
		if err != errIDTaken {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return issue.Clone(), nil
}

// errIDTaken signals a hash collision; CreateIssue retries with a new nonce.
var errIDTaken = types.Errorf(types.ReasonStorageUnavailable, "could not allocate a unique issue ID")

// GetIssue returns a live issue. The caller must belong to its project.
func (e *Engine) GetIssue(ctx context.Context, id, callerID string) (*types.Issue, error) {
	issue, err := e.store.GetIssue(ctx, id)
	if err != nil {
		return nil, classify(err, "get issue %s", id)
	}
	if issue.IsTombstone() {
		return nil, types.Errorf(types.ReasonNotFound, "issue %s not found", id)
	}
	if err := e.checkMember(ctx, issue.ProjectID, callerID); err != nil {
		return nil, err
	}
	return issue, nil
}

// ListIssues returns the live issues of a project in creation order. The
// caller must belong to the project. An empty projectID lists every project
// the caller belongs to.
func (e *Engine) ListIssues(ctx context.Context, projectID, callerID string) ([]*types.Issue, error) {
	if projectID != "" {
		if err := e.checkMember(ctx, projectID, callerID); err != nil {
			return nil, err
		}
	}
	all, err := e.store.ListIssues(ctx, projectID)
	if err != nil {
		return nil, classify(err, "list issues")
	}
	live := make([]*types.Issue, 0, len(all))
	for _, issue := range all {
		if issue.IsTombstone() {
			continue
		}
		if projectID == "" && !e.dir.IsMember(ctx, issue.ProjectID, callerID) {
			continue
		}
		live = append(live, issue)
	}
	return live, nil
}

// checkMember fails with FORBIDDEN unless callerID belongs to projectID.
func (e *Engine) checkMember(ctx context.Context, projectID, callerID string) error {
	if callerID == "" || !e.dir.IsMember(ctx, projectID, callerID) {
		return types.Errorf(types.ReasonForbidden, "%s is not a member of project %s", callerID, projectID)
	}
	return nil
}

// RequestChange applies cs to an issue on behalf of callerID and returns the
// updated issue. Every changed field gets its own audit entry, all sharing
// one timestamp. A changeset that changes nothing writes nothing and returns
// the current issue.
func (e *Engine) RequestChange(ctx context.Context, issueID, callerID string, cs types.Changeset) (*types.Issue, error) {
	var result *types.Issue
	err := e.mutate(ctx, "update", issueID, callerID, func(tx storage.Transaction) error {
		issue, err := loadIssue(ctx, tx, issueID)
		if err != nil {
			return err
		}
		changes, err := workflow.Plan(issue, callerID, cs)
		if err != nil {
			return err
		}
		if assignee, ok := workflow.AssigneeChange(changes); ok && assignee != "" {
			if !e.dir.IsMember(ctx, issue.ProjectID, assignee) {
				return types.Errorf(types.ReasonValidation, "assignee %s is not a member of project %s", assignee, issue.ProjectID)
			}
		}
		if len(changes) == 0 {
			result = issue
			return nil
		}

		now := e.clock.Now()
		updated := workflow.Apply(issue, changes)
		updated.UpdatedAt = now
		if err := tx.PutIssue(ctx, updated); err != nil {
			return err
		}
		entries := make([]*types.AuditEntry, 0, len(changes))
		for _, c := range changes {
			entries = append(entries, audit.NewEntry(issueID, callerID, c.Action, c.Field, c.Old, c.New, now))
		}
		if err := e.trail.Append(ctx, tx, entries...); err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteIssue tombstones an issue. Only the reporter or the project owner
// may delete. The audit trail is kept and gains one DELETED entry.
func (e *Engine) DeleteIssue(ctx context.Context, issueID, callerID string) error {
	return e.mutate(ctx, "delete", issueID, callerID, func(tx storage.Transaction) error {
		issue, err := loadIssue(ctx, tx, issueID)
		if err != nil {
			return err
		}
		owner, _ := e.dir.ProjectOwner(ctx, issue.ProjectID)
		if callerID == "" || (callerID != issue.ReporterID && callerID != owner) {
			return types.Errorf(types.ReasonForbidden, "only the reporter or the project owner can delete %s", issueID)
		}

		now := e.clock.Now()
		deleted := issue.Clone()
		deleted.DeletedAt = &now
		deleted.DeletedBy = callerID
		deleted.UpdatedAt = now
		if err := tx.PutIssue(ctx, deleted); err != nil {
			return err
		}
		return e.trail.Append(ctx, tx, audit.NewEntry(issueID, callerID, types.ActionDeleted, "",
			types.StringPtr(issue.Title), nil, now))
	})
}

// ListAudit returns an issue's full trail, oldest first. Tombstoned issues
// keep their trail. The caller must belong to the issue's project.
func (e *Engine) ListAudit(ctx context.Context, issueID, callerID string) ([]*types.AuditEntry, error) {
	issue, err := e.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, classify(err, "get issue %s", issueID)
	}
	if err := e.checkMember(ctx, issue.ProjectID, callerID); err != nil {
		return nil, err
	}
	return e.trail.List(ctx, issueID)
}

// FilterIssues narrows a snapshot with f; see query.Apply.
func (e *Engine) FilterIssues(snapshot []*types.Issue, f query.Filter, callerID string) []*types.Issue {
	return query.Apply(snapshot, f, callerID)
}
