package repositories

import (
	"context"
	"strings"
	"sync"

	"akun/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository. It
// enforces the same unique-email semantics as the GORM implementation so
// tests exercise the real conflict path.
type MockUserRepository struct {
	byEmail map[string]models.User
	byID    map[string]string // id -> email key
	mu      sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		byEmail: make(map[string]models.User),
		byID:    make(map[string]string),
	}
}

// Create adds a new user, failing with ErrDuplicateEmail on collision.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := r.byEmail[key]; ok {
		return ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.byEmail[key] = *user
	r.byID[user.ID] = key
	return nil
}

// GetByEmail returns a user by their email.
func (r *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

// GetByID returns a user by their ID.
func (r *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := r.byEmail[key]
	return &user, nil
}
