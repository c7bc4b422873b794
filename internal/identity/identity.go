// Package identity resolves callers from bearer tokens and answers project
// membership questions.
package identity

import (
	"context"

	"github.com/andreisalomia/mini-jira/internal/types"
)

// Provider turns a bearer token into the calling user.
type Provider interface {
	// ResolveCaller fails with UNAUTHENTICATED when the token is missing,
	// malformed, expired or names an unknown user.
	ResolveCaller(ctx context.Context, token string) (*types.User, error)
}

// Directory answers who exists and who belongs to which project.
type Directory interface {
	IsMember(ctx context.Context, projectID, userID string) bool
	ProjectOwner(ctx context.Context, projectID string) (string, bool)
	User(ctx context.Context, id string) (*types.User, bool)
}
