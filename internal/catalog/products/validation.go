package products

import (
	"strings"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

func validUnit(u Unit) bool {
	for _, known := range AllUnits {
		if u == known {
			return true
		}
	}
	return false
}

func (s *Service) validate(p *Product) error {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)

	if p.Code == "" {
		return shared.ValidationError("le code produit est obligatoire")
	}
	if p.Name == "" {
		return shared.ValidationError("la désignation est obligatoire")
	}
	if !validUnit(p.Unit) {
		return shared.ValidationError("unité inconnue: %s", p.Unit)
	}
	if p.PurchasePrice < 0 {
		return shared.ValidationError("le prix d'achat doit être positif")
	}
	if p.SalePrice < 0 {
		return shared.ValidationError("le prix de vente doit être positif")
	}
	if p.AlertThreshold < 0 {
		return shared.ValidationError("le seuil d'alerte doit être positif")
	}
	if p.AlertThreshold == 0 {
		p.AlertThreshold = DefaultAlertThreshold
	}
	return nil
}
