package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// PINVerifier compares a stored hash with a candidate PIN.
type PINVerifier func(hashedPIN, pin string) error

// AuthService performs PIN based login and keeps issued tokens in a process
// local cache. Tokens do not survive a restart.
type AuthService struct {
	users          UserRepository
	verifyPIN      PINVerifier
	tokenGenerator func() string
	now            func() time.Time
	tokens         *tokenCache
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users UserRepository, verify PINVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(users, verify, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users UserRepository, verify PINVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPIN
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:          users,
		verifyPIN:      verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		tokens:         newTokenCache(sessionTTL, 0, now),
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// AuthenticateByPIN matches the PIN against every stored account and issues
// a token for the first match.
func (s *AuthService) AuthenticateByPIN(ctx context.Context, pin string) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "AuthenticateByPIN")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "authentication succeeded")
	}()

	trimmed := strings.TrimSpace(pin)
	if trimmed == "" {
		err = ErrInvalidCredentials
		return
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return
	}

	for _, user := range users {
		if user.PINHash == "" {
			continue
		}
		if s.verifyPIN(user.PINHash, trimmed) != nil {
			continue
		}

		token := s.tokenGenerator()
		if token == "" {
			err = fmt.Errorf("token generator produced empty token")
			return
		}
		s.tokens.Store(token, Principal{UserID: user.ID, IsAdmin: user.Role == RoleAdmin})
		result = AuthenticateResult{User: user, Token: token}
		return
	}

	err = ErrInvalidCredentials
	return
}

// ValidateToken resolves a token to its principal. Expired or unknown
// tokens are rejected.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("AuthService is nil")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Principal{}, ErrUnauthorized
	}

	principal, ok := s.tokens.Get(trimmed)
	if !ok {
		return Principal{}, ErrUnauthorized
	}
	return principal, nil
}

// RevokeToken drops a token from the cache. Revoking an unknown token is
// not an error.
func (s *AuthService) RevokeToken(ctx context.Context, token string) {
	if s == nil {
		return
	}
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return
	}
	s.tokens.Delete(trimmed)
	s.loggerWith(ctx, "RevokeToken").InfoContext(ctx, "token revoked")
}
