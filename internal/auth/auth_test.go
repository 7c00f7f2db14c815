package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/haneul-labs/complyhub/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:    uuid.New(),
		OrgID: uuid.New(),
		Email: "admin@example.com",
		Role:  models.UserRoleAdmin,
	}
}

func TestTokenPairRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", 30*time.Minute, 7*24*time.Hour)
	user := testUser()

	pair, err := m.IssuePair(user)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if pair.TokenType != "bearer" {
		t.Errorf("token type = %q, want bearer", pair.TokenType)
	}
	if pair.ExpiresIn != int64((30 * time.Minute).Seconds()) {
		t.Errorf("expires_in = %d", pair.ExpiresIn)
	}

	claims, err := m.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("user_id = %s, want %s", claims.UserID, user.ID)
	}
	if claims.OrgID != user.OrgID {
		t.Errorf("org_id = %s, want %s", claims.OrgID, user.OrgID)
	}
	if claims.Role != models.UserRoleAdmin {
		t.Errorf("role = %s, want admin", claims.Role)
	}

	if _, err := m.VerifyRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
}

func TestTokenTypeEnforced(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, time.Hour)
	pair, err := m.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := m.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrWrongTokenUse) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	if _, err := m.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrWrongTokenUse) {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute, time.Hour)
	pair, err := m.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if _, err := m.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token accepted: %v", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	m := NewTokenManager("secret-a", time.Minute, time.Hour)
	other := NewTokenManager("secret-b", time.Minute, time.Hour)

	pair, err := m.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if _, err := other.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed with another secret accepted: %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash equals plaintext")
	}

	if err := VerifyPassword(hash, "correct horse battery staple"); err != nil {
		t.Errorf("VerifyPassword with correct password: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("VerifyPassword with wrong password: %v", err)
	}
}
