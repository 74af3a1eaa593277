package products

import (
	"context"
	"strconv"

	"github.com/stockyard-erp/stockyard/internal/shared"
	"github.com/stockyard-erp/stockyard/internal/stock"
)

// Service orchestrates product operations.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, search string, page shared.Pagination) ([]ProductRow, int, error) {
	return s.repo.List(ctx, search, page)
}

// ActiveProductOptions implements stock.ProductLister for movement forms.
func (s *Service) ActiveProductOptions(ctx context.Context) ([]stock.ProductOption, error) {
	return s.repo.ListOptions(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (ProductRow, error) {
	if id <= 0 {
		return ProductRow{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, product Product, actorID int64) (Product, error) {
	if err := s.validate(&product); err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.recordAudit(ctx, actorID, "product.create", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, product Product, actorID int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.validate(&product); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, product); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "product.update", id)
	return nil
}

func (s *Service) SoftDelete(ctx context.Context, id int64, actorID int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "product.delete", id)
	return nil
}

func (s *Service) Restore(ctx context.Context, id int64, actorID int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "product.restore", id)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "product",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}
