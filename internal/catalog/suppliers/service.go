package suppliers

import (
	"context"
	"strings"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

// Defaults applied when the form leaves these fields blank.
const (
	DefaultCountry      = "France"
	DefaultPaymentTerms = "30 jours"
)

// Service orchestrates supplier operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search string) ([]Supplier, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	if err := s.validate(&supplier); err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, supplier)
}

func (s *Service) Update(ctx context.Context, id int64, supplier Supplier) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.validate(&supplier); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, supplier)
}

// SoftDelete hides the supplier. Products keep their reference for
// audit.
func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.SoftDelete(ctx, id)
}

// Restore reactivates a soft-deleted supplier.
func (s *Service) Restore(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Restore(ctx, id)
}

func (s *Service) validate(sup *Supplier) error {
	sup.Name = strings.TrimSpace(sup.Name)
	sup.ContactName = strings.TrimSpace(sup.ContactName)
	sup.Phone = strings.TrimSpace(sup.Phone)
	sup.Email = strings.TrimSpace(sup.Email)
	sup.Address = strings.TrimSpace(sup.Address)
	sup.City = strings.TrimSpace(sup.City)
	sup.PostalCode = strings.TrimSpace(sup.PostalCode)
	sup.Country = strings.TrimSpace(sup.Country)
	sup.VATNumber = strings.TrimSpace(sup.VATNumber)
	sup.PaymentTerms = strings.TrimSpace(sup.PaymentTerms)

	if sup.Name == "" {
		return shared.ValidationError("le nom du fournisseur est obligatoire")
	}
	if sup.Country == "" {
		sup.Country = DefaultCountry
	}
	if sup.PaymentTerms == "" {
		sup.PaymentTerms = DefaultPaymentTerms
	}
	return nil
}
