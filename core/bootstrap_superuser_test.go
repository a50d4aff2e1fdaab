package core

import (
	"context"
	"testing"
)

func TestBootstrapSuperuser_CreatesWhenAbsent(t *testing.T) {
	repo := newFakeUserRepo()
	cfg := Config{
		BootstrapSuperuser:     true,
		FirstSuperuser:         "admin@example.com",
		FirstSuperuserPassword: "adminpass123",
	}

	if err := BootstrapSuperuser(context.Background(), repo, cfg); err != nil {
		t.Fatalf("BootstrapSuperuser error: %v", err)
	}

	u, err := repo.FindByUsername(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("superuser not created: %v", err)
	}
	if !u.IsSuperuser {
		t.Fatal("seeded user is not a superuser")
	}
	if u.HashedPassword == "adminpass123" {
		t.Fatal("password stored as plaintext")
	}
	if !CheckPassword("adminpass123", u.HashedPassword) {
		t.Fatal("stored hash does not verify configured password")
	}
}

func TestBootstrapSuperuser_Idempotent(t *testing.T) {
	repo := newFakeUserRepo()
	existing := repo.add(t, "admin@example.com", "original-pass", true)
	cfg := Config{
		BootstrapSuperuser:     true,
		FirstSuperuser:         "admin@example.com",
		FirstSuperuserPassword: "different-pass",
	}

	if err := BootstrapSuperuser(context.Background(), repo, cfg); err != nil {
		t.Fatalf("BootstrapSuperuser error: %v", err)
	}

	u, err := repo.FindByUsername(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("FindByUsername error: %v", err)
	}
	if u.ID != existing.ID || !CheckPassword("original-pass", u.HashedPassword) {
		t.Fatal("existing superuser was modified")
	}
}

func TestBootstrapSuperuser_Disabled(t *testing.T) {
	repo := newFakeUserRepo()

	cases := []Config{
		{BootstrapSuperuser: false, FirstSuperuser: "admin@example.com"},
		{BootstrapSuperuser: true, FirstSuperuser: ""},
	}
	for _, cfg := range cases {
		if err := BootstrapSuperuser(context.Background(), repo, cfg); err != nil {
			t.Fatalf("BootstrapSuperuser error: %v", err)
		}
	}
	if len(repo.byUsername) != 0 {
		t.Fatal("user created although bootstrap was disabled")
	}
}

func TestGeneratePassword(t *testing.T) {
	p1, err := generatePassword(32)
	if err != nil {
		t.Fatalf("generatePassword error: %v", err)
	}
	if len(p1) != 32 {
		t.Fatalf("unexpected length %d", len(p1))
	}
	p2, err := generatePassword(32)
	if err != nil {
		t.Fatalf("generatePassword error: %v", err)
	}
	if p1 == p2 {
		t.Fatal("two generated passwords are identical")
	}
	if _, err := generatePassword(0); err == nil {
		t.Fatal("expected error for non-positive length")
	}
}
