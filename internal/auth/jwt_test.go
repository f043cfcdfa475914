// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "k9s2m4x7q1w8e5r3t6y0u2i4o7p1a3s5"

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testSecret)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewJWTManager("too-short"); err == nil {
		t.Error("NewJWTManager() should reject a short secret")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestJWTManager(t)

	token, err := m.GenerateToken("alice", "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Username != "alice" || claims.Role != "admin" || claims.Issuer != Issuer {
		t.Errorf("claims = %+v", claims)
	}

	subject := claims.AuthSubject()
	if subject.ID != "alice" || len(subject.Roles) != 1 || subject.Roles[0] != "admin" {
		t.Errorf("AuthSubject() = %+v", subject)
	}
	if subject.AuthMethod != AuthModeJWT || subject.ExpiresAt == 0 {
		t.Errorf("AuthSubject() = %+v", subject)
	}
}

func TestGenerateTokenArguments(t *testing.T) {
	m := newTestJWTManager(t)
	if _, err := m.GenerateToken("", "admin", time.Hour); err == nil {
		t.Error("empty username should fail")
	}
	if _, err := m.GenerateToken("alice", "admin", 0); err == nil {
		t.Error("zero ttl should fail")
	}
}

func TestValidateTokenRejects(t *testing.T) {
	m := newTestJWTManager(t)
	other, err := NewJWTManager(strings.Repeat("x", 40))
	if err != nil {
		t.Fatal(err)
	}

	expired := newTestJWTManager(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.GenerateToken("alice", "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	foreignToken, err := other.GenerateToken("alice", "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"expired", expiredToken},
		{"wrong secret", foreignToken},
		{"HS512", sign(jwt.SigningMethodHS512, []byte(testSecret), &Claims{
			Username: "alice", Role: "admin",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, ExpiresAt: future},
		})},
		{"none algorithm", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &Claims{
			Username: "alice", Role: "admin",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, ExpiresAt: future},
		})},
		{"foreign issuer", sign(jwt.SigningMethodHS256, []byte(testSecret), &Claims{
			Username: "alice", Role: "admin",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: future},
		})},
		{"no expiry", sign(jwt.SigningMethodHS256, []byte(testSecret), &Claims{
			Username: "alice", Role: "admin",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer},
		})},
		{"no role", sign(jwt.SigningMethodHS256, []byte(testSecret), &Claims{
			Username: "alice",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, ExpiresAt: future},
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token); err == nil {
				t.Errorf("ValidateToken(%s) should fail", tt.name)
			}
		})
	}
}

func TestParseAuthMode(t *testing.T) {
	for in, want := range map[string]AuthMode{"": AuthModeNone, "none": AuthModeNone, "jwt": AuthModeJWT} {
		got, err := ParseAuthMode(in)
		if err != nil || got != want {
			t.Errorf("ParseAuthMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseAuthMode("basic"); err == nil {
		t.Error("ParseAuthMode(basic) should fail")
	}
}
