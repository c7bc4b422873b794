// Package minijira provides a minimal public API for embedding the mini-jira
// issue engine in other Go programs.
//
// It exports only the types and constructors needed to open a store, load a
// project directory and drive the engine. Everything else stays internal.
package minijira

import (
	"context"

	"github.com/andreisalomia/mini-jira/internal/engine"
	"github.com/andreisalomia/mini-jira/internal/identity"
	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/storage/memory"
	"github.com/andreisalomia/mini-jira/internal/storage/sqlite"
	"github.com/andreisalomia/mini-jira/internal/types"
)

// Core types for working with issues
type (
	Issue      = types.Issue
	Status     = types.Status
	Priority   = types.Priority
	Comment    = types.Comment
	AuditEntry = types.AuditEntry
	Changeset  = types.Changeset
	NewIssue   = types.NewIssue
	User       = types.User
	Reason     = types.Reason
)

// Status constants
const (
	StatusOpen       = types.StatusOpen
	StatusInProgress = types.StatusInProgress
	StatusDone       = types.StatusDone
)

// Priority constants
const (
	PriorityLow      = types.PriorityLow
	PriorityMedium   = types.PriorityMedium
	PriorityHigh     = types.PriorityHigh
	PriorityCritical = types.PriorityCritical
)

// Error reasons
const (
	ReasonUnauthenticated    = types.ReasonUnauthenticated
	ReasonForbidden          = types.ReasonForbidden
	ReasonInvalidTransition  = types.ReasonInvalidTransition
	ReasonNotFound           = types.ReasonNotFound
	ReasonValidation         = types.ReasonValidation
	ReasonStorageUnavailable = types.ReasonStorageUnavailable
)

// Storage is the persistence contract the engine runs on.
type Storage = storage.Storage

// Directory answers membership questions for the engine.
type Directory = identity.Directory

// Engine is the issue lifecycle engine.
type Engine = engine.Engine

// ReasonOf extracts the failure reason from an engine error.
func ReasonOf(err error) Reason {
	return types.ReasonOf(err)
}

// NewMemoryStorage returns an empty in-process store.
func NewMemoryStorage() Storage {
	return memory.New()
}

// NewSQLiteStorage opens (or creates) a SQLite database at dbPath.
func NewSQLiteStorage(ctx context.Context, dbPath string) (Storage, error) {
	s, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// LoadDirectory reads a YAML users/projects file.
func LoadDirectory(path string) (Directory, error) {
	d, err := identity.LoadDirectory(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ParseDirectory parses YAML users/projects data.
func ParseDirectory(data []byte) (Directory, error) {
	d, err := identity.ParseDirectory(data)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// New builds an engine over store and dir.
func New(store Storage, dir Directory) *Engine {
	return engine.New(store, dir)
}
