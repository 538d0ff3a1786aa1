package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/human-centric-engineering/sunrise/internal/adapter/metrics"
	"github.com/human-centric-engineering/sunrise/internal/domain"
	"github.com/human-centric-engineering/sunrise/internal/pkg/password"
)

// UserUseCase manages accounts and profiles.
type UserUseCase struct {
	repo   domain.UserRepository
	mailer domain.Mailer
	logger *slog.Logger
	m      *metrics.Metrics
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(repo domain.UserRepository, mailer domain.Mailer, logger *slog.Logger, m *metrics.Metrics) *UserUseCase {
	return &UserUseCase{
		repo:   repo,
		mailer: mailer,
		logger: logger,
		m:      m,
	}
}

// CreateUserInput carries the fields an admin supplies for a new account.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// Create registers a new account and sends the welcome email in the
// background. Delivery failures are logged, never surfaced to the caller.
func (uc *UserUseCase) Create(ctx context.Context, in CreateUserInput) (domain.User, error) {
	ctx, span := otel.Tracer("users").Start(ctx, "Create")
	defer span.End()

	hash, err := password.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.Role == "" {
		user.Role = domain.RoleMember
	}

	if err := uc.repo.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	uc.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	go uc.sendWelcome(user)

	return user, nil
}

func (uc *UserUseCase) sendWelcome(user domain.User) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	email := domain.Email{
		To:      user.Email,
		Subject: "Welcome to Sunrise",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour account is ready. Sign in with this email address to get started.\n",
			user.Name,
		),
	}
	if err := uc.mailer.Send(ctx, email); err != nil {
		uc.logger.Error("failed to send welcome email", "error", err, "user_id", user.ID)
		uc.countMail("error")
		return
	}
	uc.countMail("sent")
}

func (uc *UserUseCase) countMail(status string) {
	if uc.m != nil {
		uc.m.MailTotal.WithLabelValues(status).Inc()
	}
}

// Get returns a single account.
func (uc *UserUseCase) Get(ctx context.Context, id string) (domain.User, error) {
	ctx, span := otel.Tracer("users").Start(ctx, "Get")
	defer span.End()

	return uc.repo.GetByID(ctx, id)
}

// List returns every account, oldest first.
func (uc *UserUseCase) List(ctx context.Context) ([]domain.User, error) {
	ctx, span := otel.Tracer("users").Start(ctx, "List")
	defer span.End()

	return uc.repo.List(ctx)
}

// UpdateProfile changes the caller's display name and, when newPassword is
// set, rotates the password. Empty arguments leave the field as is.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, id, name, newPassword string) (domain.User, error) {
	ctx, span := otel.Tracer("users").Start(ctx, "UpdateProfile")
	defer span.End()

	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if name != "" {
		user.Name = strings.TrimSpace(name)
	}
	if newPassword != "" {
		hash, err := password.Hash(newPassword)
		if err != nil {
			return domain.User{}, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// EnsureAdmin creates the seed admin account on startup when configured and
// not already present.
func (uc *UserUseCase) EnsureAdmin(ctx context.Context, email, pass string) error {
	if email == "" || pass == "" {
		return nil
	}

	_, err := uc.repo.GetByEmail(ctx, strings.ToLower(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := password.Hash(pass)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		Name:         "Admin",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return fmt.Errorf("create seed admin: %w", err)
	}

	uc.logger.Info("seed admin created", "user_id", user.ID)
	return nil
}
