package settings

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestGetReturnsDefaults(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	s, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.Theme != ThemeLight || !s.AutoCategorize || s.PINHash != "" {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestSetPinValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	cases := []struct {
		pin, confirm string
		want         error
	}{
		{"123", "123", ErrInvalidPin},
		{"12345", "12345", ErrInvalidPin},
		{"12a4", "12a4", ErrInvalidPin},
		{"1234", "4321", ErrPinMismatch},
	}
	for _, tc := range cases {
		if err := svc.SetPIN(ctx, "u1", tc.pin, tc.confirm); !errors.Is(err, tc.want) {
			t.Fatalf("SetPIN(%q,%q) = %v, want %v", tc.pin, tc.confirm, err, tc.want)
		}
	}
}

func TestSetPinStoresHashOnly(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if err := svc.SetPIN(ctx, "u1", "4242", "4242"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	s, err := svc.Repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.PINHash == "" || s.PINHash == "4242" {
		t.Fatalf("PIN stored in plaintext or missing: %q", s.PINHash)
	}
	if bcrypt.CompareHashAndPassword([]byte(s.PINHash), []byte("4242")) != nil {
		t.Fatalf("stored hash does not match PIN")
	}
}

func TestRemovePin(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if err := svc.SetPIN(ctx, "u1", "4242", "4242"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	if err := svc.RemovePIN(ctx, "u1"); err != nil {
		t.Fatalf("remove pin: %v", err)
	}
	policy, err := svc.ReadLockPolicy(ctx, "u1")
	if err != nil {
		t.Fatalf("read policy: %v", err)
	}
	if policy.HasPIN() {
		t.Fatalf("policy still has PIN after removal")
	}
}

func TestReadLockPolicyMissingRowMeansNoPin(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	policy, err := svc.ReadLockPolicy(context.Background(), "never-saved")
	if err != nil {
		t.Fatalf("missing row must not be an error: %v", err)
	}
	if policy.HasPIN() {
		t.Fatalf("expected empty policy")
	}
}

func TestUpdatePrefs(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	dark := ThemeDark
	off := false
	s, err := svc.UpdatePrefs(ctx, "u1", &dark, &off)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.Theme != ThemeDark || s.AutoCategorize {
		t.Fatalf("prefs not applied: %+v", s)
	}

	// Partial update keeps the other field.
	light := ThemeLight
	s, err = svc.UpdatePrefs(ctx, "u1", &light, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.Theme != ThemeLight || s.AutoCategorize {
		t.Fatalf("partial update clobbered autoCategorize: %+v", s)
	}

	bogus := "sepia"
	if _, err := svc.UpdatePrefs(ctx, "u1", &bogus, nil); !errors.Is(err, ErrBadTheme) {
		t.Fatalf("expected ErrBadTheme, got %v", err)
	}
}
