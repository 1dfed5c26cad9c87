package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenRequest exchanges the configured passphrase for an access token.
type TokenRequest struct {
	Passphrase string `json:"passphrase" validate:"required"`
}

// TokenResponse returns the issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// ScopeScheduleWrite allows mutating schedule data.
const ScopeScheduleWrite = "schedule:write"
