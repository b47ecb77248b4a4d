package auth

import (
	"testing"
)

const testSecret = "test-secret-key"

func TestTokenPairRoundTrip(t *testing.T) {
	access, refresh, err := GenerateTokenPair(42, true, testSecret, 15, 7)
	if err != nil {
		t.Fatalf("failed to generate token pair: %v", err)
	}

	claims, err := ValidateAccessToken(access, testSecret)
	if err != nil {
		t.Fatalf("access token did not validate: %v", err)
	}
	if claims.UserID != 42 || !claims.IsStaff || claims.Type != AccessToken {
		t.Errorf("unexpected access claims: %+v", claims)
	}

	claims, err = ValidateRefreshToken(refresh, testSecret)
	if err != nil {
		t.Fatalf("refresh token did not validate: %v", err)
	}
	if claims.UserID != 42 || claims.Type != RefreshToken {
		t.Errorf("unexpected refresh claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("refresh token should carry a JTI")
	}
}

func TestTokenTypeMismatch(t *testing.T) {
	access, refresh, err := GenerateTokenPair(1, false, testSecret, 15, 7)
	if err != nil {
		t.Fatalf("failed to generate token pair: %v", err)
	}

	if _, err := ValidateAccessToken(refresh, testSecret); err == nil {
		t.Error("refresh token must not validate as access token")
	}
	if _, err := ValidateRefreshToken(access, testSecret); err == nil {
		t.Error("access token must not validate as refresh token")
	}
}

func TestWrongSecret(t *testing.T) {
	access, _, err := GenerateTokenPair(1, false, testSecret, 15, 7)
	if err != nil {
		t.Fatalf("failed to generate token pair: %v", err)
	}

	if _, err := ValidateAccessToken(access, "other-secret"); err == nil {
		t.Error("token signed with a different secret must not validate")
	}
}

func TestExpiredToken(t *testing.T) {
	access, err := GenerateAccessToken(1, false, testSecret, -1)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := ValidateAccessToken(access, testSecret); err == nil {
		t.Error("expired token must not validate")
	}
}
