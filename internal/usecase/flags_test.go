package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/human-centric-engineering/sunrise/internal/domain"
	"github.com/human-centric-engineering/sunrise/internal/domain/mocks"
)

func TestFlagUseCase_Evaluate(t *testing.T) {
	defaults := map[string]bool{"signup_enabled": true, "new_dashboard": false}

	t.Run("Database Overrides Default", func(t *testing.T) {
		repo := &mocks.MockFlagRepository{Flags: map[string]domain.FeatureFlag{
			"new_dashboard": {Key: "new_dashboard", Enabled: true},
		}}
		uc := NewFlagUseCase(repo, defaults, discardLogger())

		enabled, err := uc.Evaluate(context.Background(), "new_dashboard")
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if !enabled {
			t.Error("stored override should win over the default")
		}
	})

	t.Run("Falls Back To Default", func(t *testing.T) {
		uc := NewFlagUseCase(&mocks.MockFlagRepository{}, defaults, discardLogger())

		enabled, err := uc.Evaluate(context.Background(), "signup_enabled")
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if !enabled {
			t.Error("expected the compiled-in default")
		}
	})

	t.Run("Unknown Key", func(t *testing.T) {
		uc := NewFlagUseCase(&mocks.MockFlagRepository{}, defaults, discardLogger())

		if _, err := uc.Evaluate(context.Background(), "no_such_flag"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("got error %v, want ErrNotFound", err)
		}
	})

	t.Run("Repository Errors Pass Through", func(t *testing.T) {
		boom := fmt.Errorf("connection refused")
		uc := NewFlagUseCase(&mocks.MockFlagRepository{GetErr: boom}, defaults, discardLogger())

		if _, err := uc.Evaluate(context.Background(), "signup_enabled"); !errors.Is(err, boom) {
			t.Fatalf("got error %v, want %v", err, boom)
		}
	})
}

func TestFlagUseCase_List(t *testing.T) {
	defaults := map[string]bool{"signup_enabled": true, "new_dashboard": false}
	repo := &mocks.MockFlagRepository{Flags: map[string]domain.FeatureFlag{
		"new_dashboard": {Key: "new_dashboard", Enabled: true, Description: "ops override"},
		"beta_exports":  {Key: "beta_exports", Enabled: true},
	}}
	uc := NewFlagUseCase(repo, defaults, discardLogger())

	flags, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	wantKeys := []string{"beta_exports", "new_dashboard", "signup_enabled"}
	if len(flags) != len(wantKeys) {
		t.Fatalf("got %d flags, want %d", len(flags), len(wantKeys))
	}
	for i, key := range wantKeys {
		if flags[i].Key != key {
			t.Errorf("flag %d: got key %q, want %q", i, flags[i].Key, key)
		}
	}
	if !flags[1].Enabled || flags[1].Description != "ops override" {
		t.Errorf("override lost: %+v", flags[1])
	}
}

func TestFlagUseCase_Upsert(t *testing.T) {
	repo := &mocks.MockFlagRepository{}
	uc := NewFlagUseCase(repo, DefaultFlags, discardLogger())

	flag, err := uc.Upsert(context.Background(), "maintenance_banner", true, "planned outage")
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if flag.UpdatedAt.IsZero() {
		t.Error("UpdatedAt must be stamped")
	}

	stored, ok := repo.Flags["maintenance_banner"]
	if !ok {
		t.Fatal("flag was not written")
	}
	if !stored.Enabled || stored.Description != "planned outage" {
		t.Errorf("stored flag %+v", stored)
	}
}
