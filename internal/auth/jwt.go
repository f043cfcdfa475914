// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written to and required in every token.
const Issuer = "wacrm"

// MinSecretLength matches the configuration check on JWT_SECRET.
const MinSecretLength = 32

// Claims represents JWT claims
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token creation and validation
type JWTManager struct {
	secret []byte
	now    func() time.Time
}

// NewJWTManager creates a manager signing with HMAC-SHA256.
func NewJWTManager(secret string) (*JWTManager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d characters", MinSecretLength)
	}
	return &JWTManager{secret: []byte(secret), now: time.Now}, nil
}

// GenerateToken signs a token for username with role, valid for ttl.
func (m *JWTManager) GenerateToken(username, role string, ttl time.Duration) (string, error) {
	if username == "" || role == "" {
		return "", fmt.Errorf("username and role are required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token lifetime must be positive")
	}

	now := m.now()
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, algorithm, issuer and lifetime and
// returns the claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Username == "" || claims.Role == "" {
		return nil, fmt.Errorf("token is missing username or role")
	}
	return claims, nil
}

// AuthSubject converts validated claims into an AuthSubject.
func (c *Claims) AuthSubject() *AuthSubject {
	id := c.RegisteredClaims.Subject
	if id == "" {
		id = c.Username
	}
	subject := &AuthSubject{
		ID:         id,
		Username:   c.Username,
		Roles:      []string{c.Role},
		AuthMethod: AuthModeJWT,
	}
	if c.ExpiresAt != nil {
		subject.ExpiresAt = c.ExpiresAt.Unix()
	}
	return subject
}
