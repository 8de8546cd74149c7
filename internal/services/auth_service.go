package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"akun/internal/models"
	"akun/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken is returned when registration collides with an existing
	// account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned when no account exists for the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// EventPublisher publishes account lifecycle events for downstream
// consumers. A nil publisher disables events.
type EventPublisher interface {
	PublishUserRegistered(event map[string]interface{}) error
}

// AuthService handles business logic for registration and login.
type AuthService struct {
	userRepo   repositories.UserRepository
	events     EventPublisher
	bcryptCost int
	jwtSecret  []byte
	tokenTTL   time.Duration
}

// NewAuthService creates a new AuthService. An out-of-range bcrypt cost
// falls back to the library default.
func NewAuthService(userRepo repositories.UserRepository, events EventPublisher, jwtSecret string, bcryptCost int, tokenTTL time.Duration) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		events:     events,
		bcryptCost: bcryptCost,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
	}
}

// Register hashes the password and inserts the new account. Duplicate
// detection rides on the store's unique email index rather than a prior
// lookup, so two concurrent registrations for the same email cannot both
// succeed.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	// Event publishing is best effort; a broker outage must not fail the
	// registration that already committed.
	if s.events != nil {
		event := map[string]interface{}{
			"user_id": user.ID,
			"name":    user.Name,
			"email":   user.Email,
		}
		if err := s.events.PublishUserRegistered(event); err != nil {
			log.Printf("Failed to publish registration event for %s: %v", user.Email, err)
		}
	}
	return user, nil
}

// Login verifies the credentials and returns the account together with a
// signed, expiring JWT. Unknown email and bad password are distinct
// failures so the handler can map them to 404 and 401.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.Name,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, tokenString, nil
}

// GetUser loads an account by ID, for token-authenticated profile reads.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
