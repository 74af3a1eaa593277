package categories

import (
	"context"
	"regexp"
	"strings"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Service orchestrates category operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search string) ([]CategoryRow, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, category Category) (Category, error) {
	if err := s.validate(&category); err != nil {
		return Category{}, err
	}
	return s.repo.Create(ctx, category)
}

func (s *Service) Update(ctx context.Context, id int64, category Category) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.validate(&category); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, category)
}

// SoftDelete hides the category. Products keep their reference for
// audit.
func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.SoftDelete(ctx, id)
}

// Restore reactivates a soft-deleted category.
func (s *Service) Restore(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Restore(ctx, id)
}

func (s *Service) validate(c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	c.Color = strings.TrimSpace(c.Color)
	if c.Name == "" {
		return shared.ValidationError("le nom de la catégorie est obligatoire")
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
	if !hexColorPattern.MatchString(c.Color) {
		return shared.ValidationError("couleur invalide, format attendu #RRGGBB")
	}
	return nil
}
