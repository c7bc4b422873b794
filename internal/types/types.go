// Package types defines core data structures for the mini-jira issue lifecycle engine.
package types

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength bounds issue titles.
const MaxTitleLength = 255

// Issue represents a trackable work item inside a project
type Issue struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	ReporterID  string     `json:"reporter_id"`
	AssigneeID  string     `json:"assignee_id,omitempty"` // Empty means unassigned
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"` // Tombstone marker; audit history is kept
	DeletedBy   string     `json:"deleted_by,omitempty"`
}

// Clone returns a deep copy so callers never share mutable state with a store.
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	c := *i
	if i.DeletedAt != nil {
		t := *i.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

// IsTombstone returns true if the issue has been soft-deleted
func (i *Issue) IsTombstone() bool {
	return i.DeletedAt != nil
}

// IsAssigned reports whether the issue has an assignee.
func (i *Issue) IsAssigned() bool {
	return i.AssigneeID != ""
}

// Validate checks if the issue has valid field values
func (i *Issue) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return Errorf(ReasonValidation, "title is required")
	}
	if n := utf8.RuneCountInString(i.Title); n > MaxTitleLength {
		return Errorf(ReasonValidation, "title must be %d characters or less (got %d)", MaxTitleLength, n)
	}
	if !i.Status.IsValid() {
		return Errorf(ReasonValidation, "invalid status: %s", i.Status)
	}
	if !i.Priority.IsValid() {
		return Errorf(ReasonValidation, "invalid priority: %s", i.Priority)
	}
	if i.ProjectID == "" {
		return Errorf(ReasonValidation, "project_id is required")
	}
	if i.ReporterID == "" {
		return Errorf(ReasonValidation, "reporter_id is required")
	}
	return nil
}

// Status represents the current state of an issue
type Status string

// Issue status constants
const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusDone}

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseStatus accepts any casing and '-' or ' ' in place of '_'.
func ParseStatus(raw string) (Status, error) {
	s := Status(normalizeEnum(raw))
	if !s.IsValid() {
		return "", Errorf(ReasonValidation, "invalid status %q (expected OPEN, IN_PROGRESS or DONE)", raw)
	}
	return s, nil
}

// Priority expresses urgency
type Priority string

// Priority constants
const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// DefaultPriority is applied when an issue is created without one.
const DefaultPriority = PriorityMedium

// Priorities lists every priority from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ParsePriority accepts any casing.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(normalizeEnum(raw))
	if !p.IsValid() {
		return "", Errorf(ReasonValidation, "invalid priority %q (expected LOW, MEDIUM, HIGH or CRITICAL)", raw)
	}
	return p, nil
}

func normalizeEnum(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// Role is a caller's project-scoped role as reported by the identity provider.
type Role string

// Role constants
const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User is an identity resolved by the identity provider. The engine only reads it.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
	Role  Role   `json:"role" yaml:"role"`
}

// Comment represents a comment on an issue
type Comment struct {
	ID        string     `json:"id"`
	IssueID   string     `json:"issue_id"`
	AuthorID  string     `json:"author_id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Seq       int64      `json:"-"` // Insertion order within the store
}

// Clone returns a deep copy of the comment.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	cp := *c
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		cp.DeletedAt = &t
	}
	return &cp
}

// IsDeleted reports whether the comment was removed from the live thread.
func (c *Comment) IsDeleted() bool {
	return c.DeletedAt != nil
}

// AuditEntry is one immutable record of a committed mutation
type AuditEntry struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"` // Breaks timestamp ties in insertion order
	IssueID   string    `json:"issue_id"`
	Action    Action    `json:"action"`
	Field     string    `json:"field,omitempty"`
	OldValue  *string   `json:"old_value,omitempty"`
	NewValue  *string   `json:"new_value,omitempty"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Clone returns a deep copy of the entry.
func (e *AuditEntry) Clone() *AuditEntry {
	if e == nil {
		return nil
	}
	cp := *e
	if e.OldValue != nil {
		v := *e.OldValue
		cp.OldValue = &v
	}
	if e.NewValue != nil {
		v := *e.NewValue
		cp.NewValue = &v
	}
	return &cp
}

// String renders the entry as "ACTION field: old→new".
func (e *AuditEntry) String() string {
	var b strings.Builder
	b.WriteString(string(e.Action))
	if e.Field != "" {
		b.WriteString(" ")
		b.WriteString(e.Field)
	}
	if e.OldValue != nil || e.NewValue != nil {
		fmt.Fprintf(&b, ": %s→%s", derefOr(e.OldValue, "∅"), derefOr(e.NewValue, "∅"))
	}
	return b.String()
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// Action categorizes audit trail entries
type Action string

// Action constants for the audit trail
const (
	ActionCreated        Action = "CREATED"
	ActionFieldChanged   Action = "FIELD_CHANGED"
	ActionStatusChanged  Action = "STATUS_CHANGED"
	ActionAssigned       Action = "ASSIGNED"
	ActionCommentAdded   Action = "COMMENT_ADDED"
	ActionCommentEdited  Action = "COMMENT_EDITED"
	ActionCommentDeleted Action = "COMMENT_DELETED"
	ActionDeleted        Action = "DELETED"
)

// Field names accepted in a changeset and recorded in audit entries.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPriority    = "priority"
	FieldStatus      = "status"
	FieldAssignee    = "assignee_id"
	FieldComment     = "comment" // Comment entries; values hold the content
)

// Changeset is a partial update request. Nil fields are left untouched.
// An AssigneeID pointing at "" clears the assignee.
type Changeset struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	AssigneeID  *string   `json:"assignee_id,omitempty"`
}

// IsEmpty reports whether the changeset names no field at all.
func (c Changeset) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.Priority == nil && c.Status == nil && c.AssigneeID == nil
}

// NewIssue carries the caller-supplied fields for issue creation.
type NewIssue struct {
	ProjectID   string
	ReporterID  string
	Title       string
	Description string
	Priority    Priority // Empty means DefaultPriority
	AssigneeID  string   // Empty means unassigned
}

// StringPtr returns a pointer to s; handy for optional audit values and changesets.
func StringPtr(s string) *string {
	return &s
}
