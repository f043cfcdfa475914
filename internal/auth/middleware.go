// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wacrm/internal/logging"
	"github.com/tomtom215/wacrm/internal/models"
)

// localAdmin is the subject injected when authentication is disabled.
var localAdmin = AuthSubject{
	ID:         "local",
	Username:   "local",
	Roles:      []string{models.RoleAdmin},
	AuthMethod: AuthModeNone,
}

// Middleware authenticates requests for the configured mode.
type Middleware struct {
	mode AuthMode
	jwt  *JWTManager
}

// NewMiddleware returns the middleware for mode. jwtManager is required for
// AuthModeJWT and ignored otherwise.
func NewMiddleware(mode AuthMode, jwtManager *JWTManager) *Middleware {
	return &Middleware{mode: mode, jwt: jwtManager}
}

// Authenticate rejects requests without a valid bearer token with 401 and
// stores the AuthSubject in the context otherwise.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.mode == AuthModeNone {
			subject := localAdmin
			subject.Roles = append([]string(nil), localAdmin.Roles...)
			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), &subject)))
			return
		}

		token, err := extractBearerToken(r)
		if err != nil {
			writeUnauthorized(w, r, err.Error())
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			writeUnauthorized(w, r, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), claims.AuthSubject())))
	})
}

// extractBearerToken reads the Authorization header, falling back to the
// "token" cookie set by the web UI.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		cookie, err := r.Cookie("token")
		if err != nil || cookie.Value == "" {
			return "", ErrNoCredentials
		}
		return cookie.Value, nil
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidCredentials
	}
	return strings.TrimSpace(token), nil
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="wacrm"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	resp := &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{Code: "UNAUTHORIZED", Message: message},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode unauthorized response")
	}
}
