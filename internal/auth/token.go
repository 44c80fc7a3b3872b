// Package auth keeps the bearer token tada sends with outgoing API calls.
// The token comes from TADA_TOKEN when set, otherwise from
// ~/.tada/credentials.json.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const EnvToken = "TADA_TOKEN"

const credentialsFile = "credentials.json"

// Source tells where a token was found.
type Source string

const (
	SourceEnv  Source = "env"
	SourceFile Source = "file"
)

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    Source     `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"` // from the JWT exp claim, if any
}

// Expired reports whether the token has a known expiry before now.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti.ExpiresAt != nil && ti.ExpiresAt.Before(now)
}

// Dir is where credentials and other per-user state live (~/.tada).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

func credentialsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credentialsFile), nil
}

// GetToken returns the active token. (nil, nil) means not logged in.
func GetToken() (*TokenInfo, error) {
	if tok := normalize(os.Getenv(EnvToken)); tok != "" {
		return &TokenInfo{Token: tok, Source: SourceEnv}, nil
	}

	p, err := credentialsPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", p, err)
	}
	ti.Token = normalize(ti.Token)
	if ti.Token == "" {
		return nil, nil
	}
	return &ti, nil
}

// SetToken writes token to the credentials file with mode 0600. A nil
// expires is filled from the token's exp claim when it is a JWT.
func SetToken(token string, expires *time.Time) error {
	token = normalize(token)
	if token == "" {
		return errors.New("empty token")
	}
	if expires == nil {
		expires = jwtExpiry(token)
	}

	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(TokenInfo{
		Token:     token,
		Source:    SourceFile,
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, credentialsFile), b, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// DeleteToken removes the credentials file. A missing file is fine.
func DeleteToken() error {
	p, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Claims decodes a JWT payload without verifying its signature. We only
// hold the token, not the key, so this is for display only.
func Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("not a JWT: %w", err)
	}
	return claims, nil
}

func jwtExpiry(token string) *time.Time {
	c, err := Claims(token)
	if err != nil {
		return nil
	}
	exp, err := c.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}

// normalize drops surrounding space and an optional "Bearer" scheme. A
// scheme with no credentials after it yields "".
func normalize(s string) string {
	f := strings.Fields(s)
	if len(f) > 0 && strings.EqualFold(f[0], "bearer") {
		f = f[1:]
	}
	return strings.Join(f, " ")
}
