package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	// MinCost keeps the hashing fast in tests
	return NewService(NewMemoryRepository(), bcrypt.MinCost)
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		FirstName:    "Alice",
		LastName:     "Smith",
		Email:        email,
		Password:     "secret123",
		Country:      "DE",
		AgreeToTerms: true,
	}
}

func TestRegister_HashesPassword(t *testing.T) {
	svc := newTestService()
	u, err := svc.Register(context.Background(), registerInput("alice@example.com"))
	require.NoError(t, err)
	require.False(t, u.ID.IsZero())

	assert.NotEqual(t, "secret123", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret123")))
	assert.False(t, u.CreatedAt.IsZero())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService()
	_, err := svc.Register(context.Background(), registerInput("dup@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerInput("dup@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService()
	reg, err := svc.Register(context.Background(), registerInput("bob@example.com"))
	require.NoError(t, err)

	u, err := svc.Authenticate(context.Background(), "bob@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, u.ID)

	_, err = svc.Authenticate(context.Background(), "bob@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// unknown email yields the same generic error as a wrong password
	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetByID(t *testing.T) {
	svc := newTestService()
	reg, err := svc.Register(context.Background(), registerInput("carol@example.com"))
	require.NoError(t, err)

	u, err := svc.GetByID(context.Background(), reg.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", u.Email)

	// malformed hex behaves like a missing user
	_, err = svc.GetByID(context.Background(), "not-a-hex-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountCreatedSince(t *testing.T) {
	svc := newTestService()
	_, err := svc.Register(context.Background(), registerInput("d1@example.com"))
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), registerInput("d2@example.com"))
	require.NoError(t, err)

	total, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	recent, err := svc.CountCreatedSince(context.Background(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), recent)

	future, err := svc.CountCreatedSince(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), future)
}

func TestList_ReturnsCopies(t *testing.T) {
	svc := newTestService()
	_, err := svc.Register(context.Background(), registerInput("eve@example.com"))
	require.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	// mutating the returned user must not leak into the store
	list[0].Email = "mutated@example.com"
	again, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "eve@example.com", again[0].Email)
}
