package users

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/stockyard-erp/stockyard/internal/rbac"
	"github.com/stockyard-erp/stockyard/internal/shared"
)

// Service orchestrates user account management.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries fields for a new account.
type CreateInput struct {
	Email    string
	FullName string
	Password string
	Role     string
	Phone    string
	HiredAt  *time.Time
}

// UpdateInput carries fields for an account update. Password is optional,
// empty keeps the current hash.
type UpdateInput struct {
	Email    string
	FullName string
	Password string
	Role     string
	Phone    string
	HiredAt  *time.Time
	Active   bool
}

// List returns active staff accounts, optionally filtered by name or
// email.
func (s *Service) List(ctx context.Context, search string) ([]User, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new account with a hashed password.
func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return User{}, shared.ValidationError("l'adresse email est obligatoire")
	}
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return User{}, shared.ValidationError("le nom complet est obligatoire")
	}
	if len(input.Password) < 8 {
		return User{}, shared.ValidationError("le mot de passe doit contenir au moins 8 caractères")
	}
	role, ok := rbac.ParseRole(input.Role)
	if !ok {
		return User{}, shared.ValidationError("rôle inconnu: %s", input.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	return s.repo.Create(ctx, User{
		Email:        email,
		FullName:     name,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        strings.TrimSpace(input.Phone),
		HiredAt:      input.HiredAt,
		Active:       true,
	})
}

// Update modifies an existing account.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return shared.ValidationError("l'adresse email est obligatoire")
	}
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return shared.ValidationError("le nom complet est obligatoire")
	}
	role, ok := rbac.ParseRole(input.Role)
	if !ok {
		return shared.ValidationError("rôle inconnu: %s", input.Role)
	}

	hash := current.PasswordHash
	if input.Password != "" {
		if len(input.Password) < 8 {
			return shared.ValidationError("le mot de passe doit contenir au moins 8 caractères")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		hash = string(hashed)
	}

	current.Email = email
	current.FullName = name
	current.PasswordHash = hash
	current.Role = role
	current.Phone = strings.TrimSpace(input.Phone)
	current.HiredAt = input.HiredAt
	current.Active = input.Active
	return s.repo.Update(ctx, current)
}

// SoftDelete retires an account. The row stays for sale history and
// audit trails.
func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.SoftDelete(ctx, id)
}

// RoleOf implements rbac.RoleLookup. Inactive accounts carry no role.
func (s *Service) RoleOf(ctx context.Context, userID int64) (rbac.Role, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.Active {
		return "", shared.ErrNotFound
	}
	return user.Role, nil
}

var _ rbac.RoleLookup = (*Service)(nil)
