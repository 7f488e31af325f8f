package users

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/docstack/docstack/internal/models"
)

// ErrInvalidCredentials is deliberately generic: login failures never reveal
// whether the email exists or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service encapsulates user-related business logic
type Service struct {
	repo       Repository
	bcryptCost int
}

func NewService(r Repository, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: r, bcryptCost: bcryptCost}
}

// RegisterInput carries the validated registration payload.
type RegisterInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Country      string
	AgreeToTerms bool
}

// Register stores a new user with a bcrypt password hash.
// Returns ErrDuplicateEmail when the email is taken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Password:     string(hashed),
		Country:      in.Country,
		AgreeToTerms: in.AgreeToTerms,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies the email/password pair against the stored hash.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByID resolves a user by its hex id. Malformed ids behave like missing users.
func (s *Service) GetByID(ctx context.Context, hexID string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Service) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.repo.CountCreatedSince(ctx, since)
}
