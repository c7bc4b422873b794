// Package factory provides functions for creating storage backends based on configuration.
package factory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/andreisalomia/mini-jira/internal/storage"
	"github.com/andreisalomia/mini-jira/internal/storage/memory"
	"github.com/andreisalomia/mini-jira/internal/storage/sqlite"
)

// Backend names accepted by New.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// BackendFactory is a function that creates a storage backend
type BackendFactory func(ctx context.Context, path string) (storage.Storage, error)

// backendRegistry holds registered backend factories
var backendRegistry = map[string]BackendFactory{
	BackendSQLite: func(ctx context.Context, path string) (storage.Storage, error) {
		return sqlite.New(ctx, path)
	},
	BackendMemory: func(context.Context, string) (storage.Storage, error) {
		return memory.New(), nil
	},
}

// RegisterBackend registers a storage backend factory
func RegisterBackend(name string, factory BackendFactory) {
	backendRegistry[name] = factory
}

// New creates a storage backend based on the backend type.
// An empty backend selects sqlite.
func New(ctx context.Context, backend, path string) (storage.Storage, error) {
	if backend == "" {
		backend = BackendSQLite
	}
	factory, ok := backendRegistry[backend]
	if !ok {
		return nil, fmt.Errorf("unknown storage backend: %s (supported: %s)", backend, strings.Join(Backends(), ", "))
	}
	return factory(ctx, path)
}

// Backends lists registered backend names, sorted.
func Backends() []string {
	names := make([]string, 0, len(backendRegistry))
	for name := range backendRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
