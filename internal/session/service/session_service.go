// Package service issues and verifies session tokens for the mock accounts.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/domain"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/storage"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// Service signs HS256 tokens. When a storage backend is configured, the most
// recent token is kept under the session key so it survives restarts.
type Service struct {
	secret  []byte
	ttl     time.Duration
	users   []domain.User
	backend storage.Backend
	log     *slog.Logger
	now     func() time.Time
}

type Options struct {
	Users   []domain.User
	Backend storage.Backend
	Logger  *slog.Logger
	Now     func() time.Time
}

func NewService(secret string, ttl time.Duration, opts Options) *Service {
	users := opts.Users
	if users == nil {
		users = domain.MockUsers
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		secret:  []byte(secret),
		ttl:     ttl,
		users:   users,
		backend: opts.Backend,
		log:     logger.OrDefault(opts.Logger).With("component", "session"),
		now:     now,
	}
}

// Login checks the credentials and returns a signed token for the account.
func (s *Service) Login(ctx context.Context, username, password string) (string, *domain.Principal, error) {
	user, ok := s.lookup(username, password)
	if !ok {
		return "", nil, domain.ErrInvalidCredentials
	}

	expires := s.now().Add(s.ttl)
	principal := &domain.Principal{
		ID:                   user.ID,
		Username:             user.Username,
		DisplayName:          user.DisplayName,
		Role:                 user.Role,
		ExpiresAtEpochMillis: expires.UnixMilli(),
	}

	claims := jwt.MapClaims{
		"id":                   principal.ID,
		"username":             principal.Username,
		"displayName":          principal.DisplayName,
		"role":                 principal.Role,
		"expiresAtEpochMillis": principal.ExpiresAtEpochMillis,
		"exp":                  expires.Unix(),
		"iat":                  s.now().Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if s.backend != nil {
		if err := s.backend.Set(ctx, storage.KeySession, []byte(token)); err != nil {
			s.log.Warn("failed to persist session token", slog.Any("err", err))
		}
	}

	s.log.Info("user logged in", slog.String("username", user.Username), slog.String("role", user.Role))
	return token, principal, nil
}

// Verify parses a token and returns its principal.
func (s *Service) Verify(token string) (*domain.Principal, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	p := &domain.Principal{}
	id, _ := claims["id"].(float64)
	p.ID = int(id)
	p.Username, _ = claims["username"].(string)
	p.DisplayName, _ = claims["displayName"].(string)
	p.Role, _ = claims["role"].(string)
	exp, _ := claims["expiresAtEpochMillis"].(float64)
	p.ExpiresAtEpochMillis = int64(exp)

	if p.Username == "" || p.Role == "" {
		return nil, domain.ErrInvalidToken
	}
	if p.ExpiresAtEpochMillis != 0 && p.ExpiresAtEpochMillis <= s.now().UnixMilli() {
		return nil, domain.ErrTokenExpired
	}
	return p, nil
}

// Restore reads the persisted token. An expired or unreadable token is
// removed and reported as unauthenticated.
func (s *Service) Restore(ctx context.Context) (string, *domain.Principal, error) {
	if s.backend == nil {
		return "", nil, domain.ErrUnauthenticated
	}

	raw, err := s.backend.Get(ctx, storage.KeySession)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("failed to read session token", slog.Any("err", err))
		}
		return "", nil, domain.ErrUnauthenticated
	}

	token := string(raw)
	p, err := s.Verify(token)
	if err != nil {
		s.log.Info("discarding stored session token", slog.Any("reason", err))
		if err := s.backend.Delete(ctx, storage.KeySession); err != nil {
			s.log.Warn("failed to delete session token", slog.Any("err", err))
		}
		return "", nil, domain.ErrUnauthenticated
	}
	return token, p, nil
}

// Logout forgets the persisted token. Issued tokens stay valid until they
// expire.
func (s *Service) Logout(ctx context.Context) {
	if s.backend == nil {
		return
	}
	if err := s.backend.Delete(ctx, storage.KeySession); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("failed to delete session token", slog.Any("err", err))
	}
}

func (s *Service) lookup(username, password string) (domain.User, bool) {
	for _, u := range s.users {
		if u.Username == username && subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1 {
			return u, true
		}
	}
	return domain.User{}, false
}
