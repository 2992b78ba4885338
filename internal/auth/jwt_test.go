package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	token, err := svc.GenerateToken("session-1")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.SessionID != "session-1" || claims.Subject != "session-1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRejects(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	good, _ := svc.GenerateToken("s")
	otherKey, _ := NewJWTService("other", time.Hour).GenerateToken("s")
	expired, _ := NewJWTService("secret", -time.Minute).GenerateToken("s")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		SessionID: "s",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong key", otherKey},
		{"expired", expired},
		{"alg none", unsigned},
		{"truncated", good[:len(good)-4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestThumbnailSignatureIsStable(t *testing.T) {
	first, err := NewJWTService("secret", time.Hour).SignThumbnail("p1")
	if err != nil {
		t.Fatal(err)
	}
	// A later process with the same secret.
	restarted := NewJWTService("secret", 2*time.Hour)
	second, err := restarted.SignThumbnail("p1")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("signature changed: %q vs %q", first, second)
	}
	if err := restarted.VerifyThumbnail(first, "p1"); err != nil {
		t.Errorf("VerifyThumbnail: %v", err)
	}
}

func TestVerifyThumbnailRejects(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	good, _ := svc.SignThumbnail("p1")
	otherKey, _ := NewJWTService("other", time.Hour).SignThumbnail("p1")
	session, _ := svc.GenerateToken("p1")

	tests := []struct {
		name    string
		sig     string
		project string
	}{
		{"empty", "", "p1"},
		{"other project", good, "p2"},
		{"wrong key", otherKey, "p1"},
		{"session token", session, "p1"},
		{"truncated", good[:len(good)-4], "p1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.VerifyThumbnail(tt.sig, tt.project); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}

	// A thumbnail signature must not open a session either.
	if _, err := svc.ValidateToken(good); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("thumbnail signature accepted as session token: %v", err)
	}
}
