package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest carries credentials for token issuance.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token alongside the account profile.
type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expiresIn"`
	UserID    string   `json:"userId"`
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
	StudentID *string  `json:"studentId,omitempty"`
}

// ResetPasswordRequest resets a student account's password.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// JWTClaims are the claims embedded in issued access tokens.
type JWTClaims struct {
	UserID    string   `json:"uid"`
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
	StudentID string   `json:"sid,omitempty"`
	jwt.RegisteredClaims
}
