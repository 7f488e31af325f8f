package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docstack/docstack/internal/models"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the verified payload of an access token.
type Claims struct {
	UserID    string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// Generate creates a signed HS256 access token for the user with claims
// {id, email, name, iat, exp}.
func Generate(secret string, u *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":    u.ID.Hex(),
		"email": u.Email,
		"name":  u.FirstName,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// Parse verifies signature and expiry and returns the claims.
// Expired-but-well-signed tokens yield ErrTokenExpired so callers can report
// the distinct auth code; every other failure maps to ErrTokenInvalid.
func Parse(secret, raw string) (*Claims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	id, _ := mc["id"].(string)
	if id == "" {
		return nil, ErrTokenInvalid
	}
	email, _ := mc["email"].(string)
	name, _ := mc["name"].(string)
	out := &Claims{UserID: id, Email: email, Name: name}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
