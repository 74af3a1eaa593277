package alerting

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/stockyard-erp/stockyard/testing"
)

type staticRepo struct {
	alerts []Alert
}

func (s *staticRepo) BelowThreshold(context.Context) ([]Alert, error) {
	return s.alerts, nil
}

func TestComputeAlertsFillsSupplierFallback(t *testing.T) {
	svc := NewService(&staticRepo{alerts: []Alert{
		{ProductID: 1, ProductCode: "VIS-001", ProductName: "Vis 4x40", CurrentStock: 3, Threshold: 10, SupplierName: "Bricodis"},
		{ProductID: 2, ProductCode: "CLO-002", ProductName: "Clous 50mm", CurrentStock: 0, Threshold: 10},
	}})

	alerts, err := svc.ComputeAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	require.Equal(t, "Bricodis", alerts[0].SupplierName)
	require.Equal(t, NoSupplier, alerts[1].SupplierName)
}

func TestComputeAlertsEmpty(t *testing.T) {
	svc := NewService(&staticRepo{})
	alerts, err := svc.ComputeAlerts(context.Background())
	require.NoError(t, err)
	require.Empty(t, alerts)
}

func TestEmailBodyFormat(t *testing.T) {
	body := EmailBody([]Alert{
		{ProductCode: "VIS-001", ProductName: "Vis 4x40", CurrentStock: 3, Threshold: 10, SupplierName: "Bricodis"},
		{ProductCode: "CLO-002", ProductName: "Clous 50mm", CurrentStock: -2, Threshold: 5},
	})

	require.Contains(t, body, "Produit : Vis 4x40")
	require.Contains(t, body, "Code : VIS-001")
	require.Contains(t, body, "Stock actuel : 3")
	require.Contains(t, body, "Seuil d'alerte : 10")
	require.Contains(t, body, "Fournisseur : Bricodis")
	require.Contains(t, body, "Fournisseur : "+NoSupplier)
	require.Contains(t, body, "Stock actuel : -2")
	require.Equal(t, 2, strings.Count(body, "Produit : "))
}

func TestEmailSubjectCountsProducts(t *testing.T) {
	require.Contains(t, EmailSubject(3), "3 produit(s)")
}
