package sales

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the sales ledger.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	integration IntegrationHandler
	now         func() time.Time
}

// NewService builds a Service. Audit and integration may be nil.
func NewService(repo RepositoryPort, audit AuditPort, integration IntegrationHandler) *Service {
	return &Service{repo: repo, audit: audit, integration: integration, now: time.Now}
}

// CreateInput describes a new sale.
type CreateInput struct {
	ClientName  string
	ClientEmail string
	ClientPhone string
	Discount    float64
	PaymentMode PaymentMode
	Comment     string
	SellerID    int64
}

// UpdateInput describes editable sale header fields.
type UpdateInput struct {
	ClientName  string
	ClientEmail string
	ClientPhone string
	Discount    float64
	PaymentMode PaymentMode
	Status      SaleStatus
	Comment     string
}

// FinalizeItem is one (product, quantity) pair passed to Finalize.
type FinalizeItem struct {
	ProductID int64
	Quantity  int
}

// Create opens a new IN_PROGRESS sale with zero totals.
func (s *Service) Create(ctx context.Context, input CreateInput) (Sale, error) {
	input.ClientName = strings.TrimSpace(input.ClientName)
	if input.ClientName == "" {
		return Sale{}, shared.ValidationError("le nom du client est obligatoire")
	}
	if input.Discount < 0 {
		return Sale{}, shared.ValidationError("la remise doit être positive")
	}
	if input.PaymentMode == "" {
		input.PaymentMode = PaymentCash
	}
	if !ValidPaymentMode(input.PaymentMode) {
		return Sale{}, shared.ValidationError("mode de paiement inconnu: %s", input.PaymentMode)
	}

	now := s.now()
	sale := Sale{
		Number:      NewSaleNumber(now),
		ClientName:  input.ClientName,
		ClientEmail: strings.TrimSpace(input.ClientEmail),
		ClientPhone: strings.TrimSpace(input.ClientPhone),
		Status:      StatusInProgress,
		SoldAt:      now,
		Discount:    input.Discount,
		FinalAmount: -input.Discount,
		PaymentMode: input.PaymentMode,
		Comment:     strings.TrimSpace(input.Comment),
		SellerID:    input.SellerID,
	}

	var created Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.InsertSale(ctx, sale)
		return err
	})
	if err != nil {
		return Sale{}, err
	}

	s.recordAudit(ctx, input.SellerID, "sale.create", created.ID, map[string]any{"number": created.Number})
	return created, nil
}

// AddLine appends a line to an in-progress sale, freezing the price from
// the product when no override is given, and recomputes the totals in
// the same transaction.
func (s *Service) AddLine(ctx context.Context, saleID, productID int64, quantity int, priceOverride float64, actorID int64) (SaleLine, error) {
	if quantity <= 0 {
		return SaleLine{}, shared.ValidationError("la quantité doit être positive")
	}
	if priceOverride < 0 {
		return SaleLine{}, shared.ValidationError("le prix unitaire doit être positif")
	}

	var created SaleLine
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != StatusInProgress {
			return shared.ValidationError("la vente n'est plus modifiable")
		}

		product, err := tx.GetProductPricing(ctx, productID)
		if err != nil {
			return err
		}
		if !product.Active {
			return shared.ValidationError("produit inactif")
		}

		price := product.SalePrice
		if priceOverride > 0 {
			price = priceOverride
		}

		created, err = tx.InsertLine(ctx, SaleLine{
			SaleID:    saleID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: price,
			Amount:    price * float64(quantity),
		})
		if err != nil {
			return err
		}

		return s.recomputeTotals(ctx, tx, &sale)
	})
	if err != nil {
		return SaleLine{}, err
	}

	s.recordAudit(ctx, actorID, "sale.line.add", saleID, map[string]any{"product_id": productID, "quantity": quantity})
	return created, nil
}

// RemoveLine soft-deletes a line and recomputes the totals.
func (s *Service) RemoveLine(ctx context.Context, saleID, lineID int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != StatusInProgress {
			return shared.ValidationError("la vente n'est plus modifiable")
		}
		if err := tx.SoftDeleteLine(ctx, saleID, lineID); err != nil {
			return err
		}
		return s.recomputeTotals(ctx, tx, &sale)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, "sale.line.remove", saleID, map[string]any{"line_id": lineID})
	return nil
}

// Finalize adds the given items, recomputes the totals once, and marks
// the sale COMPLETED, all in one transaction. After commit the
// finalized event fans out to integrations, which record the stock
// exits.
func (s *Service) Finalize(ctx context.Context, saleID int64, items []FinalizeItem, actorID int64) (Sale, error) {
	var (
		finalized Sale
		evt       SaleFinalizedEvent
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != StatusInProgress {
			return shared.ValidationError("la vente n'est plus modifiable")
		}

		for _, item := range items {
			if item.Quantity <= 0 {
				continue
			}
			product, err := tx.GetProductPricing(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if !product.Active {
				return shared.ValidationError("produit inactif")
			}
			_, err = tx.InsertLine(ctx, SaleLine{
				SaleID:    saleID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: product.SalePrice,
				Amount:    product.SalePrice * float64(item.Quantity),
			})
			if err != nil {
				return err
			}
		}

		lines, err := tx.ActiveLines(ctx, saleID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return shared.ValidationError("impossible de finaliser une vente sans ligne")
		}

		sale.Status = StatusCompleted
		if err := s.recomputeTotals(ctx, tx, &sale); err != nil {
			return err
		}
		finalized = sale

		evt = SaleFinalizedEvent{
			SaleID:     sale.ID,
			Number:     sale.Number,
			ClientName: sale.ClientName,
			SoldAt:     sale.SoldAt,
		}
		for _, line := range lines {
			evt.Lines = append(evt.Lines, FinalizedLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	if s.integration != nil {
		if err := s.integration.HandleSaleFinalized(ctx, evt); err != nil {
			return Sale{}, err
		}
	}

	s.recordAudit(ctx, actorID, "sale.finalize", saleID, map[string]any{"number": finalized.Number, "final_amount": finalized.FinalAmount})
	return finalized, nil
}

// Update edits the sale header. The final amount is re-derived in the
// same transaction whatever changed.
func (s *Service) Update(ctx context.Context, saleID int64, input UpdateInput, actorID int64) error {
	input.ClientName = strings.TrimSpace(input.ClientName)
	if input.ClientName == "" {
		return shared.ValidationError("le nom du client est obligatoire")
	}
	if input.Discount < 0 {
		return shared.ValidationError("la remise doit être positive")
	}
	if input.PaymentMode != "" && !ValidPaymentMode(input.PaymentMode) {
		return shared.ValidationError("mode de paiement inconnu: %s", input.PaymentMode)
	}
	if input.Status != "" && !ValidStatus(input.Status) {
		return shared.ValidationError("statut inconnu: %s", input.Status)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		sale.ClientName = input.ClientName
		sale.ClientEmail = strings.TrimSpace(input.ClientEmail)
		sale.ClientPhone = strings.TrimSpace(input.ClientPhone)
		sale.Discount = input.Discount
		sale.Comment = strings.TrimSpace(input.Comment)
		if input.PaymentMode != "" {
			sale.PaymentMode = input.PaymentMode
		}
		if input.Status != "" {
			sale.Status = input.Status
		}
		return s.recomputeTotals(ctx, tx, &sale)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, "sale.update", saleID, nil)
	return nil
}

// Cancel moves an in-progress sale to CANCELLED.
func (s *Service) Cancel(ctx context.Context, saleID int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != StatusInProgress {
			return shared.ValidationError("seule une vente en cours peut être annulée")
		}
		sale.Status = StatusCancelled
		return tx.UpdateSale(ctx, sale)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, "sale.cancel", saleID, nil)
	return nil
}

// SoftDelete hides the sale from listings. Lines stay active, the sale
// itself carries the tombstone.
func (s *Service) SoftDelete(ctx context.Context, saleID int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		now := s.now()
		sale.DeletedAt = &now
		return tx.UpdateSale(ctx, sale)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, "sale.delete", saleID, nil)
	return nil
}

// Get fetches one sale with its lines.
func (s *Service) Get(ctx context.Context, saleID int64) (SaleDetail, error) {
	if saleID <= 0 {
		return SaleDetail{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, saleID)
}

// List returns active sales matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter, page shared.Pagination) ([]SaleRow, int, error) {
	return s.repo.List(ctx, filter, page)
}

// recomputeTotals derives total and final from active lines and
// persists the sale. It must run inside the caller's transaction so the
// totals can never drift from the lines.
func (s *Service) recomputeTotals(ctx context.Context, tx TxRepository, sale *Sale) error {
	lines, err := tx.ActiveLines(ctx, sale.ID)
	if err != nil {
		return err
	}
	total := 0.0
	for _, line := range lines {
		total += line.Amount
	}
	sale.TotalAmount = total
	sale.FinalAmount = total - sale.Discount
	return tx.UpdateSale(ctx, *sale)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, saleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "sale",
		EntityID: strconv.FormatInt(saleID, 10),
		Meta:     meta,
	})
}
