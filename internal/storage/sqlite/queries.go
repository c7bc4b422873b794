package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andreisalomia/mini-jira/internal/types"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// dbtx is satisfied by *sql.DB and *sql.Conn.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const issueColumns = `id, project_id, title, description, status, priority, reporter_id,
	assignee_id, created_at, updated_at, deleted_at, deleted_by`

const commentColumns = `rowid, id, issue_id, author_id, content, created_at, updated_at, deleted_at`

const auditColumns = `seq, id, issue_id, action, field, old_value, new_value, actor_id, timestamp`

// GetIssue retrieves an issue by ID
func (s *SQLiteStorage) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return getIssue(ctx, s.db, id)
}

// ListIssues returns a project's issues in creation order, tombstones included
func (s *SQLiteStorage) ListIssues(ctx context.Context, projectID string) ([]*types.Issue, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	query := `SELECT ` + issueColumns + ` FROM issues`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("query issues", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*types.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, wrapDBError("scan issue", err)
		}
		issues = append(issues, issue)
	}
	return issues, wrapDBError("iterate issues", rows.Err())
}

// GetComment retrieves a comment by ID
func (s *SQLiteStorage) GetComment(ctx context.Context, id string) (*types.Comment, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return getComment(ctx, s.db, id)
}

// ListComments retrieves all comments for an issue in insertion order
func (s *SQLiteStorage) ListComments(ctx context.Context, issueID string) ([]*types.Comment, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments
		WHERE issue_id = ?
		ORDER BY rowid ASC
	`, issueID)
	if err != nil {
		return nil, wrapDBError("query comments", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []*types.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, wrapDBError("scan comment", err)
		}
		comments = append(comments, c)
	}
	return comments, wrapDBError("iterate comments", rows.Err())
}

// ListAudit retrieves the audit trail for an issue, oldest first
func (s *SQLiteStorage) ListAudit(ctx context.Context, issueID string) ([]*types.AuditEntry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log
		WHERE issue_id = ?
		ORDER BY timestamp ASC, seq ASC
	`, issueID)
	if err != nil {
		return nil, wrapDBError("query audit log", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*types.AuditEntry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, wrapDBError("scan audit entry", err)
		}
		entries = append(entries, e)
	}
	return entries, wrapDBError("iterate audit log", rows.Err())
}

func getIssue(ctx context.Context, q dbtx, id string) (*types.Issue, error) {
	row := q.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get issue %s", id)
	}
	return issue, nil
}

func getComment(ctx context.Context, q dbtx, id string) (*types.Comment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get comment %s", id)
	}
	return c, nil
}

func upsertIssue(ctx context.Context, q dbtx, issue *types.Issue) error {
	if err := issue.Validate(); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO issues (`+issueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			assignee_id = excluded.assignee_id,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			deleted_by = excluded.deleted_by
	`,
		issue.ID, issue.ProjectID, issue.Title, issue.Description,
		string(issue.Status), string(issue.Priority), issue.ReporterID,
		nullString(issue.AssigneeID), formatTime(issue.CreatedAt), formatTime(issue.UpdatedAt),
		formatTimePtr(issue.DeletedAt), issue.DeletedBy,
	)
	return wrapDBErrorf(err, "put issue %s", issue.ID)
}

func upsertComment(ctx context.Context, q dbtx, c *types.Comment) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO comments (id, issue_id, author_id, content, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
	`,
		c.ID, c.IssueID, c.AuthorID, c.Content,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt), formatTimePtr(c.DeletedAt),
	)
	return wrapDBErrorf(err, "put comment %s", c.ID)
}

func lastAudit(ctx context.Context, q dbtx, issueID string) (*types.AuditEntry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log
		WHERE issue_id = ?
		ORDER BY timestamp DESC, seq DESC
		LIMIT 1
	`, issueID)
	e, err := scanAudit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBErrorf(err, "last audit entry for %s", issueID)
	}
	return e, nil
}

func insertAudit(ctx context.Context, q dbtx, e *types.AuditEntry) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO audit_log (id, issue_id, action, field, old_value, new_value, actor_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.IssueID, string(e.Action), e.Field,
		nullStringPtr(e.OldValue), nullStringPtr(e.NewValue), e.ActorID, formatTime(e.Timestamp),
	)
	if err != nil {
		return wrapDBErrorf(err, "append audit entry for %s", e.IssueID)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get audit seq: %w", err)
	}
	e.Seq = seq
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(sc scanner) (*types.Issue, error) {
	var (
		issue                types.Issue
		status, priority     string
		assignee             sql.NullString
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	err := sc.Scan(&issue.ID, &issue.ProjectID, &issue.Title, &issue.Description,
		&status, &priority, &issue.ReporterID, &assignee,
		&createdAt, &updatedAt, &deletedAt, &issue.DeletedBy)
	if err != nil {
		return nil, err
	}
	issue.Status = types.Status(status)
	issue.Priority = types.Priority(priority)
	issue.AssigneeID = assignee.String
	if issue.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if issue.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if issue.DeletedAt, err = parseTimePtr(deletedAt); err != nil {
		return nil, err
	}
	return &issue, nil
}

func scanComment(sc scanner) (*types.Comment, error) {
	var (
		c                    types.Comment
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	err := sc.Scan(&c.Seq, &c.ID, &c.IssueID, &c.AuthorID, &c.Content, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if c.DeletedAt, err = parseTimePtr(deletedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanAudit(sc scanner) (*types.AuditEntry, error) {
	var (
		e                  types.AuditEntry
		action             string
		oldValue, newValue sql.NullString
		ts                 string
	)
	err := sc.Scan(&e.Seq, &e.ID, &e.IssueID, &action, &e.Field, &oldValue, &newValue, &e.ActorID, &ts)
	if err != nil {
		return nil, err
	}
	e.Action = types.Action(action)
	if oldValue.Valid {
		e.OldValue = types.StringPtr(oldValue.String)
	}
	if newValue.Valid {
		e.NewValue = types.StringPtr(newValue.String)
	}
	if e.Timestamp, err = parseTime(ts); err != nil {
		return nil, err
	}
	return &e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullStringPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
