package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "pomodisc/backend/internal/errors"
)

// localSubject is the only principal of a single-user daemon.
const localSubject = "local"

// AuthService guards the API with one configured password. Without a
// password access control is off and every request is allowed.
type AuthService struct {
	passwordHash []byte
	jwtSecret    []byte
	tokenTTL     time.Duration
}

func NewAuthService(password, jwtSecret string, tokenTTL time.Duration) (*AuthService, error) {
	s := &AuthService{
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
	if password == "" {
		return s, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash access password: %w", err)
	}
	s.passwordHash = hash
	return s, nil
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *AuthService) Enabled() bool {
	return len(s.passwordHash) > 0
}

func (s *AuthService) Login(ctx context.Context, password string) (*AuthResult, *apperrors.APIError) {
	if !s.Enabled() {
		return nil, apperrors.NotFound("auth_disabled", "access control is not enabled")
	}
	if password == "" {
		return nil, apperrors.BadRequest("invalid_credentials", "password is required")
	}
	if bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) != nil {
		return nil, apperrors.Unauthorized("invalid password")
	}
	return s.issueToken()
}

func (s *AuthService) ParseToken(tokenString string) (string, *apperrors.APIError) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", apperrors.Unauthorized("invalid token")
	}

	if claims.Subject != localSubject {
		return "", apperrors.Unauthorized("invalid token subject")
	}

	return claims.Subject, nil
}

func (s *AuthService) issueToken() (*AuthResult, *apperrors.APIError) {
	now := time.Now().UTC()
	expires := now.Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   localSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperrors.Internal("failed to sign token")
	}
	return &AuthResult{Token: signed, ExpiresAt: expires}, nil
}
