package auth

import (
	"testing"
	"time"

	"github.com/fabguard/storefront-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", JWTIssuer: "https://auth.fabguard.in"}
	now := time.Now().UTC()

	token, err := MintAccessToken(cfg, now, "user-1", "asha@example.com", 30*time.Minute)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID() != "user-1" {
		t.Fatalf("expected subject user-1, got %s", claims.UserID())
	}
	if claims.Email != "asha@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.Issuer != cfg.JWTIssuer {
		t.Fatalf("issuer mismatch %q", claims.Issuer)
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret"}
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), "user-1", "a@b.c", time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseAccessTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	signer := config.AuthConfig{JWTSecret: "secret", JWTIssuer: "issuer-a"}
	token, err := MintAccessToken(signer, time.Now(), "user-1", "a@b.c", time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := ParseAccessToken(config.AuthConfig{JWTSecret: "other"}, token); err == nil {
		t.Fatalf("expected signature failure")
	}
	if _, err := ParseAccessToken(config.AuthConfig{JWTSecret: "secret", JWTIssuer: "issuer-b"}, token); err == nil {
		t.Fatalf("expected issuer mismatch")
	}
}

func TestParseAccessTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := AccessTokenClaims{Email: "a@b.c", RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(config.AuthConfig{JWTSecret: "secret"}, token); err == nil {
		t.Fatalf("expected HS512 token to be rejected")
	}
}

func TestParseAccessTokenRequiresEmail(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret"}
	token, err := MintAccessToken(cfg, time.Now(), "user-1", "", time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatalf("expected missing email to be rejected")
	}
}
