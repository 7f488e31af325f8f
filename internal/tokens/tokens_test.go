package tokens

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/docstack/docstack/internal/models"
)

const testSecret = "test-secret-32-bytes-should-be-long-enough"

func testUser() *models.User {
	return &models.User{
		ID:        primitive.NewObjectID(),
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "alice@example.com",
	}
}

func TestGenerate_ValidAndClaims(t *testing.T) {
	u := testUser()
	tokenStr, err := Generate(testSecret, u, 2*time.Minute)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	claims, err := Parse(testSecret, tokenStr)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.UserID != u.ID.Hex() {
		t.Fatalf("unexpected id claim: got=%v want=%v", claims.UserID, u.ID.Hex())
	}
	if claims.Email != u.Email {
		t.Fatalf("unexpected email claim: got=%v want=%v", claims.Email, u.Email)
	}
	if claims.Name != u.FirstName {
		t.Fatalf("unexpected name claim: got=%v want=%v", claims.Name, u.FirstName)
	}
	if claims.ExpiresAt.Before(time.Now()) {
		t.Fatalf("expiry should be in the future: %v", claims.ExpiresAt)
	}
}

func TestParse_ExpiredToken(t *testing.T) {
	u := testUser()
	tokenStr, err := Generate(testSecret, u, -1*time.Minute)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	_, err = Parse(testSecret, tokenStr)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParse_WrongSecretFails(t *testing.T) {
	u := testUser()
	tokenStr, err := Generate(testSecret, u, 2*time.Minute)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	_, err = Parse("different-secret-xxxxxxxxxxxxxxxx", tokenStr)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid with wrong secret, got %v", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse(testSecret, "not.a.jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for malformed token, got %v", err)
	}
}

// Rejected when signed with a non-HMAC algorithm claim (alg=none)
func TestParse_AlgNoneRejected(t *testing.T) {
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"id":"abc","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."
	if _, err := Parse(testSecret, tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for alg=none token, got %v", err)
	}
}

func TestParse_MissingIDClaim(t *testing.T) {
	claims := jwt.MapClaims{"email": "x@x", "exp": time.Now().Add(time.Hour).Unix()}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := jt.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := Parse(testSecret, tokenStr); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for token without id, got %v", err)
	}
}
