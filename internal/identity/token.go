package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/andreisalomia/mini-jira/internal/clock"
	"github.com/andreisalomia/mini-jira/internal/types"
)

// Verify TokenProvider implements Provider at compile time
var _ Provider = (*TokenProvider)(nil)

// DefaultTokenTTL is used when Issue is called with a zero ttl.
const DefaultTokenTTL = 24 * time.Hour

// tokenIssuer is stamped into every minted token.
const tokenIssuer = "mini-jira"

// Claims represents the JWT claims structure
type Claims struct {
	UserID string     `json:"user_id"`
	Email  string     `json:"email"`
	Role   types.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenProvider validates and mints HS256 bearer tokens.
type TokenProvider struct {
	secret []byte
	dir    Directory
	clock  clock.Clock
}

// TokenOption configures a TokenProvider.
type TokenOption func(*TokenProvider)

// WithDirectory makes ResolveCaller reject tokens for users the directory
// does not know.
func WithDirectory(dir Directory) TokenOption {
	return func(p *TokenProvider) { p.dir = dir }
}

// WithClock overrides the clock used for issuing and expiry checks.
func WithClock(clk clock.Clock) TokenOption {
	return func(p *TokenProvider) { p.clock = clk }
}

// NewTokenProvider creates a provider signing with secret.
func NewTokenProvider(secret string, opts ...TokenOption) (*TokenProvider, error) {
	if secret == "" {
		return nil, errors.New("auth secret is required (set auth.secret or MJ_AUTH_SECRET)")
	}
	p := &TokenProvider{secret: []byte(secret), clock: clock.Real()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Issue mints a token for user valid for ttl.
func (p *TokenProvider) Issue(user *types.User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := p.clock.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.ID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// ResolveCaller parses and validates token. A "Bearer " prefix is accepted.
func (p *TokenProvider) ResolveCaller(ctx context.Context, token string) (*types.User, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, types.Errorf(types.ReasonUnauthenticated, "missing token")
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, types.Wrap(types.ReasonUnauthenticated, err, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, types.Errorf(types.ReasonUnauthenticated, "invalid token claims")
	}

	user := &types.User{ID: claims.UserID, Email: claims.Email, Role: claims.Role}
	if p.dir != nil {
		known, ok := p.dir.User(ctx, claims.UserID)
		if !ok {
			return nil, types.Errorf(types.ReasonUnauthenticated, "unknown user %s", claims.UserID)
		}
		user = known
	}
	return user, nil
}
