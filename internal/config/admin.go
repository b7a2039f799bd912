package config

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// AdminConfig holds the single admin account that may read stored profiles.
// The password is kept only as a bcrypt hash.
type AdminConfig struct {
	Username     string
	passwordHash []byte
	pepper       string
	JWT          *JWTConfig
}

// NewAdminConfig reads ADMIN_USER and ADMIN_PASS (both required), hashes the
// password with BCRYPT_COST (default: 12) and the optional PASSWORD_PEPPER,
// and loads the JWT settings.
func NewAdminConfig() (*AdminConfig, error) {
	user := os.Getenv("ADMIN_USER")
	pass := os.Getenv("ADMIN_PASS")
	if user == "" || pass == "" {
		return nil, fmt.Errorf("ADMIN_USER and ADMIN_PASS are required but not set")
	}

	cost := 12
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		cost = n
	}

	jwtCfg, err := NewJWTConfig()
	if err != nil {
		return nil, err
	}

	return NewAdmin(user, pass, os.Getenv("PASSWORD_PEPPER"), cost, jwtCfg)
}

// NewAdmin builds an AdminConfig from explicit values.
func NewAdmin(user, pass, pepper string, cost int, jwtCfg *JWTConfig) (*AdminConfig, error) {
	if cost < bcrypt.MinCost || cost > 14 {
		return nil, fmt.Errorf("bcrypt cost out of range: %d (must be %d-14)", cost, bcrypt.MinCost)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass+pepper), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return &AdminConfig{Username: user, passwordHash: hash, pepper: pepper, JWT: jwtCfg}, nil
}

// Authenticate reports whether the credentials match the admin account.
func (a *AdminConfig) Authenticate(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(pass+a.pepper)) == nil
	return userOK && passOK
}
