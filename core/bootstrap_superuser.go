package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
)

// BootstrapSuperuser creates the configured first superuser when it does
// not exist yet. It is idempotent: if the username is already present it
// does nothing. When no password is configured a random one is generated
// and logged once, so a fresh deployment is never left without access.
func BootstrapSuperuser(ctx context.Context, repo UserRepository, cfg Config) error {
	if !cfg.BootstrapSuperuser || cfg.FirstSuperuser == "" {
		return nil
	}

	existing, err := repo.FindByUsername(ctx, cfg.FirstSuperuser)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if existing != nil {
		log.Printf("superuser %q already exists", cfg.FirstSuperuser)
		return nil
	}

	password := cfg.FirstSuperuserPassword
	generated := password == ""
	if generated {
		password, err = generatePassword(32)
		if err != nil {
			return err
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	if _, err := repo.Create(ctx, NewUser{
		Username:       cfg.FirstSuperuser,
		Email:          cfg.FirstSuperuser,
		FirstName:      "Admin",
		LastName:       "Admin",
		HashedPassword: hash,
		IsSuperuser:    true,
	}); err != nil {
		return err
	}

	if generated {
		log.Printf("superuser created username=%s password=%s", cfg.FirstSuperuser, password)
	} else {
		log.Printf("superuser created username=%s", cfg.FirstSuperuser)
	}
	return nil
}

func generatePassword(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("password length must be positive")
	}
	// base64 encoding: need 3/4 overhead; ensure enough bytes
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}
