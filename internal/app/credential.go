package app

import (
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// credentialExpiryWarning is how close to expiry a credential has to be before we warn.
const credentialExpiryWarning = 15 * time.Minute

// CredentialStatus describes the static upstream credential as far as it can
// be read without the issuer's key.
type CredentialStatus struct {
	HasBearerPrefix bool
	IsJWT           bool
	ExpiresAt       time.Time
}

// InspectCredential reads the bearer prefix and, for JWTs, the exp claim.
// The signature is not verified: the token belongs to the upstream.
func InspectCredential(token string) CredentialStatus {
	status := CredentialStatus{HasBearerPrefix: strings.HasPrefix(token, bearerPrefix)}

	raw := strings.TrimSpace(strings.TrimPrefix(token, bearerPrefix))
	if raw == "" {
		return status
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return status
	}
	status.IsJWT = true

	exp, err := claims.GetExpirationTime()
	if err == nil && exp != nil {
		status.ExpiresAt = exp.Time
	}
	return status
}

// ExpiresIn reports the time left before expiry. ok is false when the
// credential carries no expiry.
func (s CredentialStatus) ExpiresIn(now time.Time) (remaining time.Duration, ok bool) {
	if s.ExpiresAt.IsZero() {
		return 0, false
	}
	return s.ExpiresAt.Sub(now), true
}

// Warnings lists the problems worth logging about the credential. None of them stop the service.
func (s CredentialStatus) Warnings(now time.Time) []string {
	var warnings []string
	if !s.HasBearerPrefix {
		warnings = append(warnings, "AUTH_TOKEN is not set or does not start with 'Bearer '")
	}
	if remaining, ok := s.ExpiresIn(now); ok {
		switch {
		case remaining <= 0:
			warnings = append(warnings, "AUTH_TOKEN has expired")
		case remaining < credentialExpiryWarning:
			warnings = append(warnings, "AUTH_TOKEN expires soon")
		}
	}
	return warnings
}

// LogCredentialWarnings logs every warning for the credential and returns its status.
func LogCredentialWarnings(token string, now time.Time) CredentialStatus {
	status := InspectCredential(token)
	for _, warning := range status.Warnings(now) {
		log.Printf("level=warn component=bootstrap msg=%q expires_at=%s", warning, formatExpiry(status.ExpiresAt))
	}
	return status
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}
