package engine

import (
	"context"

	"github.com/andreisalomia/mini-jira/internal/comment"
	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/types"
)

// AddComment appends a comment to a live issue. The author must belong to
// the issue's project.
func (e *Engine) AddComment(ctx context.Context, issueID, authorID, content string) (*types.Comment, error) {
	var added *types.Comment
	err := e.mutate(ctx, "comment.add", issueID, authorID, func(tx storage.Transaction) error {
		issue, err := loadIssue(ctx, tx, issueID)
		if err != nil {
			return err
		}
		if err := e.checkMember(ctx, issue.ProjectID, authorID); err != nil {
			return err
		}
		added, err = e.thread.Add(ctx, tx, issue, authorID, content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// EditComment replaces a comment's content. Author only.
func (e *Engine) EditComment(ctx context.Context, commentID, callerID, content string) (*types.Comment, error) {
	var edited *types.Comment
	err := e.mutateComment(ctx, "comment.edit", commentID, callerID, func(tx storage.Transaction, c *types.Comment) error {
		var err error
		edited, err = e.thread.Edit(ctx, tx, c, callerID, content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

// DeleteComment removes a comment from the live thread. Author only;
// deleting an absent or already deleted comment is NOT_FOUND.
func (e *Engine) DeleteComment(ctx context.Context, commentID, callerID string) error {
	return e.mutateComment(ctx, "comment.delete", commentID, callerID, func(tx storage.Transaction, c *types.Comment) error {
		return e.thread.Remove(ctx, tx, c, callerID)
	})
}

// ListComments returns the live thread of an issue, oldest first. The caller
// must belong to the issue's project.
func (e *Engine) ListComments(ctx context.Context, issueID, callerID string) ([]*types.Comment, error) {
	if _, err := e.GetIssue(ctx, issueID, callerID); err != nil {
		return nil, err
	}
	all, err := e.store.ListComments(ctx, issueID)
	if err != nil {
		return nil, classify(err, "list comments for %s", issueID)
	}
	return comment.Live(all), nil
}

// mutateComment resolves the comment's issue, then runs fn under that
// issue's lock with the comment re-read inside the transaction.
func (e *Engine) mutateComment(ctx context.Context, op, commentID, callerID string, fn func(tx storage.Transaction, c *types.Comment) error) error {
	c, err := e.store.GetComment(ctx, commentID)
	if err != nil {
		return classify(err, "get comment %s", commentID)
	}
	return e.mutate(ctx, op, c.IssueID, callerID, func(tx storage.Transaction) error {
		if _, err := loadIssue(ctx, tx, c.IssueID); err != nil {
			return err
		}
		current, err := tx.GetComment(ctx, commentID)
		if err != nil {
			return classify(err, "get comment %s", commentID)
		}
		return fn(tx, current)
	})
}
