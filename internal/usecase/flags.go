package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/human-centric-engineering/sunrise/internal/domain"
)

// DefaultFlags are the compiled-in flag values used until an admin writes an
// override to the database.
var DefaultFlags = map[string]bool{
	"signup_enabled":     true,
	"new_dashboard":      false,
	"maintenance_banner": false,
}

// FlagUseCase evaluates and manages feature flags. The database is the
// source of truth; compiled-in defaults answer for keys it does not know.
type FlagUseCase struct {
	repo     domain.FlagRepository
	defaults map[string]bool
	logger   *slog.Logger
}

// NewFlagUseCase creates a new FlagUseCase.
func NewFlagUseCase(repo domain.FlagRepository, defaults map[string]bool, logger *slog.Logger) *FlagUseCase {
	return &FlagUseCase{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
	}
}

// Evaluate answers whether a flag is on. Unknown keys that have no default
// report domain.ErrNotFound.
func (uc *FlagUseCase) Evaluate(ctx context.Context, key string) (bool, error) {
	ctx, span := otel.Tracer("flags").Start(ctx, "Evaluate")
	defer span.End()

	flag, err := uc.repo.Get(ctx, key)
	if err == nil {
		return flag.Enabled, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		enabled, ok := uc.defaults[key]
		if !ok {
			return false, domain.ErrNotFound
		}
		return enabled, nil
	}
	return false, err
}

// List returns every known flag, database overrides layered on top of the
// defaults, sorted by key.
func (uc *FlagUseCase) List(ctx context.Context) ([]domain.FeatureFlag, error) {
	ctx, span := otel.Tracer("flags").Start(ctx, "List")
	defer span.End()

	merged := make(map[string]domain.FeatureFlag, len(uc.defaults))
	for key, enabled := range uc.defaults {
		merged[key] = domain.FeatureFlag{Key: key, Enabled: enabled}
	}

	stored, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, flag := range stored {
		merged[flag.Key] = flag
	}

	flags := make([]domain.FeatureFlag, 0, len(merged))
	for _, flag := range merged {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Key < flags[j].Key })
	return flags, nil
}

// Upsert writes a flag override.
func (uc *FlagUseCase) Upsert(ctx context.Context, key string, enabled bool, description string) (domain.FeatureFlag, error) {
	ctx, span := otel.Tracer("flags").Start(ctx, "Upsert")
	defer span.End()

	flag := domain.FeatureFlag{
		Key:         key,
		Enabled:     enabled,
		Description: description,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := uc.repo.Upsert(ctx, flag); err != nil {
		return domain.FeatureFlag{}, err
	}

	uc.logger.Info("feature flag updated", "key", key, "enabled", enabled)
	return flag, nil
}
