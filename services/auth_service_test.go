package services

import (
	"context"
	"errors"
	"testing"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tokens, err := env.auth.Register(ctx, &models.CreateUserRequest{
		Username: "ayse",
		Email:    "ayse@example.com",
		Password: "gizli-sifre-1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("register should return both tokens")
	}
	if tokens.User.PasswordHash != "" {
		t.Error("password hash must not leak into the response")
	}

	// Access token geçerli claims taşır
	claims, err := env.auth.ValidateAccessToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != tokens.User.ID || claims.Username != "ayse" {
		t.Errorf("claims = %s/%s, want %s/ayse", claims.UserID, claims.Username, tokens.User.ID)
	}

	if _, err := env.auth.Login(ctx, &models.LoginRequest{Username: "ayse", Password: "gizli-sifre-1"}); err != nil {
		t.Errorf("Login with correct password: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.auth.Register(ctx, &models.CreateUserRequest{
		Username: "ayse",
		Email:    "ayse@example.com",
		Password: "gizli-sifre-1",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Yanlış şifre ve olmayan kullanıcı aynı hatayı döner
	_, wrongPass := env.auth.Login(ctx, &models.LoginRequest{Username: "ayse", Password: "yanlis"})
	_, noUser := env.auth.Login(ctx, &models.LoginRequest{Username: "yok", Password: "yanlis"})

	if !errors.Is(wrongPass, pkg.ErrUnauthorized) {
		t.Errorf("wrong password error = %v, want ErrUnauthorized", wrongPass)
	}
	if !errors.Is(noUser, pkg.ErrUnauthorized) {
		t.Errorf("unknown user error = %v, want ErrUnauthorized", noUser)
	}
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := &models.CreateUserRequest{Username: "ayse", Email: "ayse@example.com", Password: "gizli-sifre-1"}
	if _, err := env.auth.Register(ctx, req); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := env.auth.Register(ctx, &models.CreateUserRequest{
		Username: "ayse",
		Email:    "baska@example.com",
		Password: "gizli-sifre-1",
	})
	if !errors.Is(err, pkg.ErrConflict) {
		t.Errorf("duplicate username error = %v, want ErrConflict", err)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tokens, err := env.auth.Register(ctx, &models.CreateUserRequest{
		Username: "ayse",
		Email:    "ayse@example.com",
		Password: "gizli-sifre-1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	rotated, err := env.auth.RefreshToken(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Error("refresh should rotate the token")
	}

	// Eski refresh token artık geçersiz
	if _, err := env.auth.RefreshToken(ctx, tokens.RefreshToken); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Errorf("reused refresh token error = %v, want ErrUnauthorized", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tokens, err := env.auth.Register(ctx, &models.CreateUserRequest{
		Username: "ayse",
		Email:    "ayse@example.com",
		Password: "gizli-sifre-1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := env.auth.Logout(ctx, tokens.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := env.auth.RefreshToken(ctx, tokens.RefreshToken); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Errorf("refresh after logout error = %v, want ErrUnauthorized", err)
	}

	// Tekrar logout sessiz başarıdır
	if err := env.auth.Logout(ctx, tokens.RefreshToken); err != nil {
		t.Errorf("duplicate Logout should succeed: %v", err)
	}
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.auth.ValidateAccessToken("not-a-jwt"); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Errorf("garbage token error = %v, want ErrUnauthorized", err)
	}
}
