package auth

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/minecloud/backend/internal/models"
	"github.com/minecloud/backend/internal/store"
)

// ErrDuplicateEmail is returned when registering with an email that already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidCredentials is returned on a failed login or password reset.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ProfileStore is the slice of the record store identity needs.
type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile, passwordHash string) error
	GetCredentialsByEmail(ctx context.Context, email string) (*models.Profile, string, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetPasswordHash(ctx context.Context, email, hash string) error
}

type Service interface {
	Register(ctx context.Context, email, password string) (*models.Profile, error)
	Login(ctx context.Context, email, password string) (string, *models.Profile, error)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type service struct {
	profiles ProfileStore
	secret   []byte
}

func NewService(profiles ProfileStore) *service {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "supersecretmvp"
	}
	return &service{profiles: profiles, secret: []byte(secret)}
}

var _ Service = (*service)(nil)

// Register creates a fresh profile with a default USER authority and a new
// account document. The caller can never set its own authority columns.
func (s *service) Register(ctx context.Context, email, password string) (*models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	p := &models.Profile{
		ID:      id,
		Email:   email,
		IsAdmin: false,
		Role:    "user",
		Account: models.NewAccount(id, email),
	}
	if err := s.profiles.Create(ctx, p, string(hash)); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return p, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *models.Profile, error) {
	p, hash, err := s.profiles.GetCredentialsByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.issueToken(p.ID)
	if err != nil {
		return "", nil, err
	}
	return token, p, nil
}

// issueToken signs a 24h token carrying only the principal id. Authority is
// deliberately not embedded: the middleware resolves it from the store on
// every request.
func (s *service) issueToken(userID uuid.UUID) (string, error) {
	c := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	tok, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	c, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || !tok.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	return uuid.Parse(c.Subject)
}

func (s *service) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	return s.profiles.EmailExists(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// ResetPassword replaces the credential for an existing email.
func (s *service) ResetPassword(ctx context.Context, email, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.profiles.SetPasswordHash(ctx, strings.ToLower(strings.TrimSpace(email)), string(hash)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}
