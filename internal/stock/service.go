package stock

import (
	"context"
	"strconv"
	"time"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MovementInput describes a movement to record. IdempotencyKey, when
// set, absorbs double-submits of the same movement.
type MovementInput struct {
	ProductID      int64
	Kind           MovementKind
	Reason         MovementReason
	Quantity       int
	UnitPrice      float64
	SupplierID     *int64
	Client         string
	Reference      string
	Comment        string
	OccurredAt     time.Time
	ActorID        int64
	IdempotencyKey string
}

// Service coordinates the stock ledger.
type Service struct {
	repo        RepositoryPort
	cache       *LevelCache
	audit       AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService builds a Service. Cache, audit and idempotency may be nil.
func NewService(repo RepositoryPort, cache *LevelCache, audit AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, cache: cache, audit: audit, idempotency: idem}
}

// RecordMovement appends one entry to the ledger. There is no stock
// floor, the ledger records claimed events even when the derived level
// goes negative.
func (s *Service) RecordMovement(ctx context.Context, input MovementInput) (Movement, error) {
	if input.ProductID <= 0 {
		return Movement{}, shared.ValidationError("produit obligatoire")
	}
	if !ValidKind(input.Kind) {
		return Movement{}, shared.ValidationError("type de mouvement inconnu: %s", input.Kind)
	}
	if !ValidReason(input.Reason) {
		return Movement{}, shared.ValidationError("motif inconnu: %s", input.Reason)
	}
	if input.Quantity <= 0 {
		return Movement{}, shared.ValidationError("la quantité doit être positive")
	}
	if input.UnitPrice < 0 {
		return Movement{}, shared.ValidationError("le prix unitaire doit être positif")
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	insertedKey := false
	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "stock"); err != nil {
			return Movement{}, err
		}
		insertedKey = true
	}

	var created Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		active, err := tx.ProductIsActive(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if !active {
			return shared.ValidationError("produit inactif")
		}

		created, err = tx.InsertMovement(ctx, Movement{
			ProductID:  input.ProductID,
			Kind:       input.Kind,
			Reason:     input.Reason,
			Quantity:   input.Quantity,
			UnitPrice:  input.UnitPrice,
			SupplierID: input.SupplierID,
			Client:     input.Client,
			Reference:  input.Reference,
			Comment:    input.Comment,
			OccurredAt: occurredAt,
		})
		return err
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		return Movement{}, err
	}

	s.cache.Invalidate(ctx, input.ProductID)
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "stock.movement",
			Entity:   "stock_movement",
			EntityID: strconv.FormatInt(created.ID, 10),
			Meta: map[string]any{
				"product_id": input.ProductID,
				"kind":       string(input.Kind),
				"reason":     string(input.Reason),
				"quantity":   input.Quantity,
			},
		})
	}
	return created, nil
}

// CurrentStock returns the derived stock level for a product, served
// from the cache between ledger writes.
func (s *Service) CurrentStock(ctx context.Context, productID int64) (int, error) {
	return s.cache.Get(ctx, productID, s.repo.CurrentStock)
}

// IsBelowThreshold reports whether the product needs restocking.
// The boundary counts, level equal to the threshold raises the alert.
func (s *Service) IsBelowThreshold(ctx context.Context, productID int64, threshold int) (bool, error) {
	level, err := s.CurrentStock(ctx, productID)
	if err != nil {
		return false, err
	}
	return level <= threshold, nil
}

// ListMovements returns active ledger entries matching the filter.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter, page shared.Pagination) ([]MovementRow, int, error) {
	return s.repo.ListMovements(ctx, filter, page)
}
