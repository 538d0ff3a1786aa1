package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/human-centric-engineering/sunrise/internal/adapter/metrics"
	"github.com/human-centric-engineering/sunrise/internal/domain"
	"github.com/human-centric-engineering/sunrise/internal/pkg/password"
	"github.com/human-centric-engineering/sunrise/internal/pkg/token"
)

// ipLimiters hands out one login rate limiter per client IP.
//
// TODO: evict limiters that have been idle for a while; the map grows with
// every distinct client IP until restart.
type ipLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newIPLimiters(perSecond float64, burst int) *ipLimiters {
	return &ipLimiters{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *ipLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[ip] = lim
	}
	return lim.Allow()
}

// AuthUseCase handles login, logout and API token issuance. Both credential
// paths share one per-IP rate limit.
type AuthUseCase struct {
	users      domain.UserRepository
	sessions   domain.SessionStore
	logger     *slog.Logger
	m          *metrics.Metrics
	jwtSecret  string
	tokenTTL   time.Duration
	sessionTTL time.Duration
	limiters   *ipLimiters
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(users domain.UserRepository, sessions domain.SessionStore, logger *slog.Logger, m *metrics.Metrics, jwtSecret string, tokenTTL, sessionTTL time.Duration, loginRate float64, loginBurst int) *AuthUseCase {
	return &AuthUseCase{
		users:      users,
		sessions:   sessions,
		logger:     logger,
		m:          m,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		sessionTTL: sessionTTL,
		limiters:   newIPLimiters(loginRate, loginBurst),
	}
}

// Login verifies credentials and opens a server-side session.
func (uc *AuthUseCase) Login(ctx context.Context, email, pass, ip string) (domain.Session, error) {
	ctx, span := otel.Tracer("auth").Start(ctx, "Login")
	defer span.End()

	user, err := uc.verifyCredentials(ctx, email, pass, ip)
	if err != nil {
		return domain.Session{}, err
	}

	now := time.Now().UTC()
	session := domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.sessionTTL),
	}
	if err := uc.sessions.Save(ctx, session, uc.sessionTTL); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}

	uc.countLogin("success")
	uc.logger.Info("user logged in", "user_id", user.ID)
	return session, nil
}

// Logout drops the session. A token that is already gone is not an error.
func (uc *AuthUseCase) Logout(ctx context.Context, sessionToken string) error {
	ctx, span := otel.Tracer("auth").Start(ctx, "Logout")
	defer span.End()

	return uc.sessions.Delete(ctx, sessionToken)
}

// Authenticate resolves a session token back to the session.
func (uc *AuthUseCase) Authenticate(ctx context.Context, sessionToken string) (domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionToken)
	if err != nil {
		return domain.Session{}, err
	}
	if time.Now().After(session.ExpiresAt) {
		_ = uc.sessions.Delete(ctx, sessionToken)
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

// IssueToken verifies credentials and returns a signed JWT for programmatic
// API access.
func (uc *AuthUseCase) IssueToken(ctx context.Context, email, pass, ip string) (string, error) {
	ctx, span := otel.Tracer("auth").Start(ctx, "IssueToken")
	defer span.End()

	user, err := uc.verifyCredentials(ctx, email, pass, ip)
	if err != nil {
		return "", err
	}

	signed, err := token.Generate(user.ID, user.Role, uc.jwtSecret, uc.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	uc.countLogin("success")
	uc.logger.Info("api token issued", "user_id", user.ID)
	return signed, nil
}

// ValidateToken checks a bearer token and returns its claims.
func (uc *AuthUseCase) ValidateToken(tokenString string) (*token.Claims, error) {
	return token.Validate(tokenString, uc.jwtSecret)
}

func (uc *AuthUseCase) verifyCredentials(ctx context.Context, email, pass, ip string) (domain.User, error) {
	if !uc.limiters.allow(ip) {
		uc.countLogin("rate_limited")
		uc.logger.Warn("login rate limited", "ip", ip)
		return domain.User{}, domain.ErrRateLimited
	}

	user, err := uc.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.countLogin("invalid")
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if !password.Compare(user.PasswordHash, pass) {
		uc.countLogin("invalid")
		uc.logger.Warn("login rejected", "user_id", user.ID)
		return domain.User{}, domain.ErrInvalidCredentials
	}

	return user, nil
}

func (uc *AuthUseCase) countLogin(result string) {
	if uc.m != nil {
		uc.m.LoginsTotal.WithLabelValues(result).Inc()
	}
}
