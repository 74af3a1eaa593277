package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// topProductLimit caps the best-sellers ranking on the daily report.
const topProductLimit = 5

// Service produces activity reports.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// DailyReport aggregates the calendar day of the given date, in the
// date's location. The four queries run in parallel, the report is a
// pure read.
func (s *Service) DailyReport(ctx context.Context, day time.Time) (DailyReport, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	report := DailyReport{Day: from}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.repo.MovementStats(ctx, from, to)
		if err != nil {
			return err
		}
		report.StockIn = stats.In
		report.StockOut = stats.Out
		report.Adjustments = stats.Adjustments
		report.Returns = stats.Returns
		report.Revenue = stats.Revenue
		report.SalesCount = stats.SalesCount
		return nil
	})
	g.Go(func() error {
		stats, err := s.repo.SaleStats(ctx, from, to)
		if err != nil {
			return err
		}
		report.CompletedCount = stats.CompletedCount
		report.CompletedRevenue = stats.CompletedRevenue
		report.Discounts = stats.Discounts
		return nil
	})
	g.Go(func() error {
		top, err := s.repo.TopProducts(ctx, from, to, topProductLimit)
		if err != nil {
			return err
		}
		report.TopProducts = top
		return nil
	})
	g.Go(func() error {
		count, err := s.repo.AlertCount(ctx)
		if err != nil {
			return err
		}
		report.AlertCount = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return DailyReport{}, err
	}
	return report, nil
}

// EmailSubject is the subject line of the daily report email.
func EmailSubject(day time.Time) string {
	return "Rapport journalier du " + day.Format("02/01/2006")
}

// EmailBody renders the daily report email.
func EmailBody(report DailyReport) string {
	printer := message.NewPrinter(language.French)
	var b strings.Builder

	fmt.Fprintf(&b, "Rapport d'activité du %s\n\n", report.Day.Format("02/01/2006"))
	fmt.Fprintf(&b, "Ventes finalisées : %d\n", report.SalesCount)
	b.WriteString("Chiffre d'affaires : " + printer.Sprintf("%.2f", report.Revenue) + "\n")
	b.WriteString("Remises accordées : " + printer.Sprintf("%.2f", report.Discounts) + "\n\n")
	fmt.Fprintf(&b, "Entrées de stock : %d\n", report.StockIn)
	fmt.Fprintf(&b, "Sorties de stock : %d\n", report.StockOut)
	fmt.Fprintf(&b, "Ajustements : %d\n", report.Adjustments)
	fmt.Fprintf(&b, "Retours : %d\n\n", report.Returns)
	fmt.Fprintf(&b, "Produits en alerte : %d\n", report.AlertCount)

	if len(report.TopProducts) > 0 {
		b.WriteString("\nMeilleures ventes :\n")
		for _, top := range report.TopProducts {
			b.WriteString("- " + top.ProductName + " : " +
				printer.Sprintf("%d", top.Quantity) + " vendu(s), " +
				printer.Sprintf("%.2f", top.Amount) + "\n")
		}
	}
	return b.String()
}
