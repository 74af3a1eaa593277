package alerting

import (
	"context"
	"fmt"
	"strings"
)

// Service computes low-stock alerts.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ComputeAlerts returns products at or below their alert threshold,
// most depleted first. Missing supplier names are replaced by the
// display fallback.
func (s *Service) ComputeAlerts(ctx context.Context) ([]Alert, error) {
	alerts, err := s.repo.BelowThreshold(ctx)
	if err != nil {
		return nil, err
	}
	for i := range alerts {
		if strings.TrimSpace(alerts[i].SupplierName) == "" {
			alerts[i].SupplierName = NoSupplier
		}
	}
	return alerts, nil
}

// EmailSubject is the subject line of the daily alert email.
func EmailSubject(count int) string {
	return fmt.Sprintf("Alerte stock: %d produit(s) sous le seuil", count)
}

// EmailBody renders the daily alert email, one block per product.
func EmailBody(alerts []Alert) string {
	var b strings.Builder
	b.WriteString("Les produits suivants sont au niveau ou en dessous de leur seuil d'alerte :\n\n")
	for _, a := range alerts {
		supplier := a.SupplierName
		if strings.TrimSpace(supplier) == "" {
			supplier = NoSupplier
		}
		fmt.Fprintf(&b, "Produit : %s\n", a.ProductName)
		fmt.Fprintf(&b, "Code : %s\n", a.ProductCode)
		fmt.Fprintf(&b, "Stock actuel : %d\n", a.CurrentStock)
		fmt.Fprintf(&b, "Seuil d'alerte : %d\n", a.Threshold)
		fmt.Fprintf(&b, "Fournisseur : %s\n\n", supplier)
	}
	b.WriteString("Merci de prévoir un réapprovisionnement.\n")
	return b.String()
}
