package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockyard-erp/stockyard/internal/rbac"
	"github.com/stockyard-erp/stockyard/internal/shared"
)

type memoryRepo struct {
	nextID int64
	users  map[int64]User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, users: make(map[int64]User)}
}

func (m *memoryRepo) List(ctx context.Context, search string) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) Create(ctx context.Context, user User) (User, error) {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return User{}, shared.ErrConflict
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryRepo) Update(ctx context.Context, user User) error {
	if _, ok := m.users[user.ID]; !ok {
		return shared.ErrNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *memoryRepo) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), CreateInput{
		Email:    "Marie@Stockyard.Local",
		FullName: "Marie Dupont",
		Password: "motdepasse",
		Role:     "seller",
	})
	require.NoError(t, err)
	require.Equal(t, "marie@stockyard.local", created.Email)
	require.Equal(t, rbac.RoleSeller, created.Role)
	require.True(t, created.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("motdepasse")))
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateInput{Email: "a@b.fr", FullName: "A", Password: "court", Role: "SELLER"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInput{Email: "a@b.fr", FullName: "A", Password: "motdepasse", Role: "ROOT"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryRepo())

	input := CreateInput{Email: "a@b.fr", FullName: "A", Password: "motdepasse", Role: "ADMIN"}
	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateUserKeepsPasswordWhenEmpty(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Email: "a@b.fr", FullName: "A", Password: "motdepasse", Role: "ADMIN"})
	require.NoError(t, err)
	originalHash := created.PasswordHash

	err = svc.Update(context.Background(), created.ID, UpdateInput{
		Email:    "a@b.fr",
		FullName: "A B",
		Role:     "MANAGER",
		Active:   true,
	})
	require.NoError(t, err)

	updated, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, originalHash, updated.PasswordHash)
	require.Equal(t, rbac.RoleManager, updated.Role)
}

func TestSoftDeleteUser(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Email: "a@b.fr", FullName: "A", Password: "motdepasse", Role: "SELLER"})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.ErrorIs(t, svc.SoftDelete(context.Background(), created.ID), shared.ErrNotFound)
	require.ErrorIs(t, svc.SoftDelete(context.Background(), 0), shared.ErrNotFound)
}

func TestRoleOfInactiveUser(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Email: "a@b.fr", FullName: "A", Password: "motdepasse", Role: "SELLER"})
	require.NoError(t, err)

	role, err := svc.RoleOf(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, rbac.RoleSeller, role)

	err = svc.Update(context.Background(), created.ID, UpdateInput{Email: "a@b.fr", FullName: "A", Role: "SELLER", Active: false})
	require.NoError(t, err)

	_, err = svc.RoleOf(context.Background(), created.ID)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}
