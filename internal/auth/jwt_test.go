package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestGenerateAndParseJWT(t *testing.T) {
	id := uuid.New()
	token, err := GenerateJWT("secret", id, "coach@club.example", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.OrganizerID != id {
		t.Errorf("organizer id = %s, want %s", claims.OrganizerID, id)
	}
	if claims.Email != "coach@club.example" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.Subject != id.String() {
		t.Errorf("subject = %q", claims.Subject)
	}
}

func TestParseJWTRejects(t *testing.T) {
	id := uuid.New()
	valid, _ := GenerateJWT("secret", id, "", time.Hour)

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		OrganizerID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("secret"))

	foreign, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		OrganizerID:      id,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}).SignedString([]byte("secret"))

	anonymous, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer},
	}).SignedString([]byte("secret"))

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		OrganizerID:      id,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other", valid},
		{"expired", "secret", expired},
		{"foreign issuer", "secret", foreign},
		{"no organizer", "secret", anonymous},
		{"alg none", "secret", none},
		{"garbage", "secret", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJWT(tt.secret, tt.token); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestGenerateJWTNeedsSecret(t *testing.T) {
	if _, err := GenerateJWT("", uuid.New(), "", 0); err == nil {
		t.Fatal("expected an error for an empty secret")
	}
}
