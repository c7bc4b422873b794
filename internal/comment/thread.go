// Package comment implements the comment thread attached to each issue.
//
// Comments are soft-deleted: a removed comment stays in storage with
// DeletedAt set and drops out of the live thread, while the audit trail
// keeps both its COMMENT_ADDED and COMMENT_DELETED entries.
package comment

import (
	"context"
	"sort"

	"github.com/andreisalomia/mini-jira/internal/audit"
	"github.com/andreisalomia/mini-jira/internal/clock"
	"github.com/andreisalomia/mini-jira/internal/idgen"
	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/types"
	"github.com/andreisalomia/mini-jira/internal/validation"
)

// Thread performs comment mutations inside a caller-owned transaction.
type Thread struct {
	trail *audit.Trail
	clock clock.Clock
}

// NewThread creates a thread that records to trail and stamps with clk.
func NewThread(trail *audit.Trail, clk clock.Clock) *Thread {
	if clk == nil {
		clk = clock.Real()
	}
	return &Thread{trail: trail, clock: clk}
}

// Add creates a comment on issue and records COMMENT_ADDED.
func (t *Thread) Add(ctx context.Context, tx storage.Transaction, issue *types.Issue, authorID, content string) (*types.Comment, error) {
	body, err := validation.Content(content)
	if err != nil {
		return nil, err
	}

	now := t.clock.Now()
	c := &types.Comment{
		ID:        idgen.NewCommentID(),
		IssueID:   issue.ID,
		AuthorID:  authorID,
		Content:   body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.PutComment(ctx, c); err != nil {
		return nil, types.Wrap(types.ReasonStorageUnavailable, err, "save comment")
	}
	entry := audit.NewEntry(issue.ID, authorID, types.ActionCommentAdded, types.FieldComment, nil, types.StringPtr(body), now)
	if err := t.trail.Append(ctx, tx, entry); err != nil {
		return nil, err
	}
	return c, nil
}

// Edit replaces the content of c. Only the author may edit; identical
// content after trimming is a no-op and returns c unchanged.
func (t *Thread) Edit(ctx context.Context, tx storage.Transaction, c *types.Comment, callerID, content string) (*types.Comment, error) {
	if c == nil || c.IsDeleted() {
		return nil, types.Errorf(types.ReasonNotFound, "comment not found")
	}
	if callerID != c.AuthorID {
		return nil, types.Errorf(types.ReasonForbidden, "only the author can edit comment %s", c.ID)
	}
	body, err := validation.Content(content)
	if err != nil {
		return nil, err
	}
	if body == c.Content {
		return c, nil
	}

	now := t.clock.Now()
	updated := c.Clone()
	updated.Content = body
	updated.UpdatedAt = now
	if err := tx.PutComment(ctx, updated); err != nil {
		return nil, types.Wrap(types.ReasonStorageUnavailable, err, "save comment")
	}
	entry := audit.NewEntry(c.IssueID, callerID, types.ActionCommentEdited, types.FieldComment,
		types.StringPtr(c.Content), types.StringPtr(body), now)
	if err := t.trail.Append(ctx, tx, entry); err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove soft-deletes c and records COMMENT_DELETED. A nil or already
// deleted comment is NOT_FOUND; a caller other than the author is FORBIDDEN.
func (t *Thread) Remove(ctx context.Context, tx storage.Transaction, c *types.Comment, callerID string) error {
	if c == nil || c.IsDeleted() {
		return types.Errorf(types.ReasonNotFound, "comment not found")
	}
	if callerID != c.AuthorID {
		return types.Errorf(types.ReasonForbidden, "only the author can delete comment %s", c.ID)
	}

	now := t.clock.Now()
	deleted := c.Clone()
	deleted.DeletedAt = &now
	deleted.UpdatedAt = now
	if err := tx.PutComment(ctx, deleted); err != nil {
		return types.Wrap(types.ReasonStorageUnavailable, err, "delete comment")
	}
	entry := audit.NewEntry(c.IssueID, callerID, types.ActionCommentDeleted, types.FieldComment,
		types.StringPtr(c.Content), nil, now)
	return t.trail.Append(ctx, tx, entry)
}

// Live returns the comments still in the thread in commit order, oldest
// first.
func Live(comments []*types.Comment) []*types.Comment {
	out := make([]*types.Comment, 0, len(comments))
	for _, c := range comments {
		if !c.IsDeleted() {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
