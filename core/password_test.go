package core

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "testpassword123" {
		t.Fatal("hash equals plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash format: %q", hash)
	}
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	h1, err := HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	h2, err := HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password are identical")
	}
	if !CheckPassword("testpassword123", h1) || !CheckPassword("testpassword123", h2) {
		t.Fatal("hash does not verify against its own plaintext")
	}
}

func TestCheckPassword_Wrong(t *testing.T) {
	hash, err := HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if CheckPassword("wrongpassword", hash) {
		t.Fatal("wrong password verified")
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	// A broken stored hash is a mismatch, never a panic.
	for _, hash := range []string{"", "not-a-bcrypt-hash", "$2a$10$tooshort"} {
		if CheckPassword("whatever", hash) {
			t.Fatalf("malformed hash %q verified", hash)
		}
	}
}
