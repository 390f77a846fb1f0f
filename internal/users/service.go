package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
)

// Service handles user management business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser hashes the password and inserts the account.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if input.Email == "" {
		return User{}, fmt.Errorf("%w: email required", httpx.ErrValidation)
	}
	if len(input.Password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, input, string(hash))
}

// UpdateUser updates mutable account fields.
func (s *Service) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (User, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return User{}, fmt.Errorf("%w: name required", httpx.ErrValidation)
	}
	return s.repo.UpdateUser(ctx, id, input)
}

// DeactivateUser disables an account.
func (s *Service) DeactivateUser(ctx context.Context, id int64) error {
	return s.repo.DeactivateUser(ctx, id)
}
