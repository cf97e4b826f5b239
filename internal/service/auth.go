// Package service contains application services: authentication, authorization,
// redaction, and victim/witness record orchestration.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/openhrm/victimdb/internal/crypto"
	"github.com/openhrm/victimdb/internal/errs"
	"github.com/openhrm/victimdb/internal/limiter"
	"github.com/openhrm/victimdb/internal/model"
	"github.com/openhrm/victimdb/internal/repository"
)

// AuthService authenticates credentials and validates session tokens.
type AuthService interface {
	// Login verifies credentials (rate-limited by username and client IP) and
	// issues a signed, time-limited session token.
	Login(ctx context.Context, username, password, ip string) (model.Tokens, error)
	// Validate checks a token's signature and expiry and resolves the principal.
	Validate(ctx context.Context, token string) (model.Principal, error)
}

type AuthServiceImpl struct {
	users    repository.UserRepository
	signKey  []byte
	tokenTTL time.Duration
	lim      limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, tokenTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, tokenTTL: tokenTTL, lim: lim}
}

// Login authenticates with rate limiting by (username, ip). Failed lookups and
// wrong passwords are indistinguishable to the caller.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password, ip string) (model.Tokens, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	if !allowed {
		return model.Tokens{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || !u.IsActive || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, username, ipHash); ferr == nil && blocked {
			return model.Tokens{}, errs.ErrRateLimited
		}
		// hide user existence and active state on any failure
		return model.Tokens{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, username, ipHash)

	return s.issueToken(u.Username)
}

// issueToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueToken(username string) (model.Tokens, error) {
	now := time.Now()
	exp := now.Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

// Validate verifies signature and expiry and loads the principal. A token for
// a deleted or deactivated account is rejected even if otherwise valid.
func (s *AuthServiceImpl) Validate(ctx context.Context, token string) (model.Principal, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return model.Principal{}, errs.ErrUnauthorized
	}

	u, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil || !u.IsActive {
		return model.Principal{}, errs.ErrUnauthorized
	}
	return model.Principal{Username: u.Username, Roles: u.Roles, IsActive: u.IsActive}, nil
}
