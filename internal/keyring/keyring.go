// Package keyring keeps secrets that must not live in config.yaml in the OS
// keyring: the PostgreSQL connection string and the API signing secret.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/lifeplan/internal/constants"
)

var (
	// ErrNotFound is returned when no entry is stored
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	value, err := keyring.Get(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

func set(user, what, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, user, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func remove(user, what string) error {
	if err := keyring.Delete(constants.AppName, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	return nil
}

// GetConnectionString returns the stored database connection string, or
// ErrNotFound.
func GetConnectionString() (string, error) {
	return get(constants.DefaultKeyringUser)
}

func SetConnectionString(connStr string) error {
	return set(constants.DefaultKeyringUser, "connection string", connStr)
}

func DeleteConnectionString() error {
	return remove(constants.DefaultKeyringUser, "connection string")
}

// GetJWTSecret returns the stored API signing secret, or ErrNotFound.
func GetJWTSecret() (string, error) {
	return get(constants.JWTSecretKeyringUser)
}

func SetJWTSecret(secret string) error {
	return set(constants.JWTSecretKeyringUser, "JWT secret", secret)
}

func DeleteJWTSecret() error {
	return remove(constants.JWTSecretKeyringUser, "JWT secret")
}

// IsAvailable reports whether the OS keyring answers a read. It is a
// best-effort check.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
