package token

import (
	"testing"
	"time"

	"github.com/human-centric-engineering/sunrise/internal/domain"
)

func TestGenerateAndValidate(t *testing.T) {
	const secret = "test-secret"

	t.Run("Round Trip", func(t *testing.T) {
		signed, err := Generate("u-42", domain.RoleAdmin, secret, time.Hour)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		claims, err := Validate(signed, secret)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if claims.UserID != "u-42" {
			t.Errorf("got user ID %q, want u-42", claims.UserID)
		}
		if claims.Role != domain.RoleAdmin {
			t.Errorf("got role %q, want admin", claims.Role)
		}
	})

	t.Run("Rejects Wrong Secret", func(t *testing.T) {
		signed, err := Generate("u-42", domain.RoleMember, secret, time.Hour)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		if _, err := Validate(signed, "other-secret"); err == nil {
			t.Error("expected validation to fail with the wrong secret")
		}
	})

	t.Run("Rejects Expired Token", func(t *testing.T) {
		signed, err := Generate("u-42", domain.RoleMember, secret, -time.Minute)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		if _, err := Validate(signed, secret); err == nil {
			t.Error("expected validation to fail for an expired token")
		}
	})

	t.Run("Rejects Garbage", func(t *testing.T) {
		if _, err := Validate("not.a.token", secret); err == nil {
			t.Error("expected validation to fail for malformed input")
		}
	})
}
