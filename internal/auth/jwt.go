// Package auth issues and validates the bearer tokens that bind a browser to
// its session.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer            = "vidto-listen"
	thumbnailAudience = "thumbnail"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify the session a request belongs to.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTService signs with secret. Session tokens expire ttl after issue;
// idle sessions are ended by the session manager long before that.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	return &JWTService{secret: []byte(secret), ttl: ttl}
}

// GenerateToken signs an HS256 token for sessionID.
func (s *JWTService) GenerateToken(sessionID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, algorithm, issuer and expiry.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type thumbnailClaims struct {
	ProjectID string `json:"pid"`
	jwt.RegisteredClaims
}

// SignThumbnail returns the signature that grants access to a project's
// thumbnail. It carries no timestamps, so the same secret always yields the
// same signature and dashboard links stay valid across restarts.
func (s *JWTService) SignThumbnail(projectID string) (string, error) {
	claims := &thumbnailClaims{
		ProjectID: projectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Audience: jwt.ClaimStrings{thumbnailAudience},
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign thumbnail: %w", err)
	}
	return signed, nil
}

// VerifyThumbnail checks that sig was issued for projectID.
func (s *JWTService) VerifyThumbnail(sig, projectID string) error {
	claims := &thumbnailClaims{}
	token, err := jwt.ParseWithClaims(sig, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(thumbnailAudience),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ProjectID == "" || claims.ProjectID != projectID {
		return ErrInvalidToken
	}
	return nil
}
