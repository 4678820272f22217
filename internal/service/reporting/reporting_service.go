package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

const dateLayout = "2006-01-02"

// Repository is the persistence the reports read from.
type Repository interface {
	ListSales(ctx context.Context, filter repository.SaleFilter) ([]models.Sale, error)
	ListSupplies(ctx context.Context, filter repository.SupplyFilter) ([]models.Supply, error)
	ListProductions(ctx context.Context, filter repository.ProductionFilter) ([]models.EggProduction, error)
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
	ListDailyReports(ctx context.Context, from, to time.Time) ([]models.DailyReport, error)
}

// Service exposes profit reports and the scheduled snapshots.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(repository Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Summary returns sales minus supply costs, for one batch when batchID is set.
func (s *Service) Summary(ctx context.Context, actor access.Actor, batchID string) (models.ProfitSummary, error) {
	if err := actor.Require(access.ViewReports); err != nil {
		return models.ProfitSummary{}, err
	}
	return s.profit(ctx, batchID, time.Time{}, time.Time{})
}

// MonthlyProfit returns the profit of one calendar month.
func (s *Service) MonthlyProfit(ctx context.Context, actor access.Actor, year, month int) (models.MonthlyProfit, error) {
	if err := actor.Require(access.ViewReports); err != nil {
		return models.MonthlyProfit{}, err
	}
	if month < 1 || month > 12 {
		return models.MonthlyProfit{}, apperror.NewInvalid("month must be between 1 and 12").WithDetail("month", month)
	}
	if year < 1 {
		return models.MonthlyProfit{}, apperror.NewInvalid("year must be positive").WithDetail("year", year)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	summary, err := s.profit(ctx, "", start, end)
	if err != nil {
		return models.MonthlyProfit{}, err
	}
	return models.MonthlyProfit{Year: year, Month: month, ProfitSummary: summary}, nil
}

// DailyReports returns the stored snapshots between from and to, oldest first.
func (s *Service) DailyReports(ctx context.Context, actor access.Actor, from, to time.Time) ([]models.DailyReport, error) {
	if err := actor.Require(access.ViewReports); err != nil {
		return nil, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, apperror.NewValidation("to must not be before from")
	}
	reports, err := s.repo.ListDailyReports(ctx, from, to)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list daily reports: %w", err))
	}
	return reports, nil
}

// DailySnapshot aggregates one day of activity and stores it, replacing a
// previous snapshot of the same day.
func (s *Service) DailySnapshot(ctx context.Context, day time.Time) (models.DailyReport, error) {
	day = models.DayOf(day)
	report, err := s.aggregate(ctx, day, day)
	if err != nil {
		return models.DailyReport{}, err
	}
	report.Date = day
	report.CreatedAt = s.now()

	if err := s.repo.SaveDailyReport(ctx, report); err != nil {
		return models.DailyReport{}, fmt.Errorf("save daily report: %w", err)
	}
	s.logger.Info("daily report stored",
		zap.String("date", day.Format(dateLayout)),
		zap.Int("eggs_collected", report.EggsCollected),
		zap.String("sales_amount", report.SalesAmount.String()),
		zap.String("profit", report.Profit.String()))
	return report, nil
}

// WeeklyDigest summarizes the seven days ending on now as a short text
// suitable for a chat message.
func (s *Service) WeeklyDigest(ctx context.Context, now time.Time) (string, error) {
	end := models.DayOf(now)
	start := end.AddDate(0, 0, -6)
	report, err := s.aggregate(ctx, start, end)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weekly summary (%s to %s)\n", start.Format(dateLayout), end.Format(dateLayout))
	fmt.Fprintf(&b, "Eggs collected: %d\n", report.EggsCollected)
	fmt.Fprintf(&b, "Eggs sold: %d\n", report.EggsSold)
	fmt.Fprintf(&b, "Sales: %s (collected %s)\n", report.SalesAmount.StringFixed(2), report.Collected.StringFixed(2))
	fmt.Fprintf(&b, "Supplies: %s\n", report.Expenses.StringFixed(2))
	fmt.Fprintf(&b, "Profit: %s\n", report.Profit.StringFixed(2))
	fmt.Fprintf(&b, "Pending credit: %s", report.UnpaidBalance.StringFixed(2))
	return b.String(), nil
}

func (s *Service) profit(ctx context.Context, batchID string, from, to time.Time) (models.ProfitSummary, error) {
	sales, err := s.repo.ListSales(ctx, repository.SaleFilter{BatchID: batchID, From: from, To: to})
	if err != nil {
		return models.ProfitSummary{}, apperror.NewInternal(fmt.Errorf("list sales: %w", err))
	}
	supplies, err := s.repo.ListSupplies(ctx, repository.SupplyFilter{BatchID: batchID, From: from, To: to})
	if err != nil {
		return models.ProfitSummary{}, apperror.NewInternal(fmt.Errorf("list supplies: %w", err))
	}

	totalSales := decimal.Zero
	for _, sale := range sales {
		totalSales = totalSales.Add(sale.Total)
	}
	totalCost := decimal.Zero
	for _, supply := range supplies {
		totalCost = totalCost.Add(supply.CostOrZero())
	}
	return models.ProfitSummary{
		TotalSales:        totalSales,
		TotalSuppliesCost: totalCost,
		Profit:            totalSales.Sub(totalCost),
	}, nil
}

// aggregate totals the activity dated between from and to inclusive. The
// unpaid balance covers every credit sale regardless of date.
func (s *Service) aggregate(ctx context.Context, from, to time.Time) (models.DailyReport, error) {
	report := models.DailyReport{
		SalesAmount:   decimal.Zero,
		Collected:     decimal.Zero,
		UnpaidBalance: decimal.Zero,
		Expenses:      decimal.Zero,
	}

	productions, err := s.repo.ListProductions(ctx, repository.ProductionFilter{From: from, To: to})
	if err != nil {
		return report, fmt.Errorf("list productions: %w", err)
	}
	for _, p := range productions {
		report.EggsCollected += p.Quantity
	}

	sales, err := s.repo.ListSales(ctx, repository.SaleFilter{From: from, To: to})
	if err != nil {
		return report, fmt.Errorf("list sales: %w", err)
	}
	for _, sale := range sales {
		report.EggsSold += sale.Quantity
		report.SalesAmount = report.SalesAmount.Add(sale.Total)
		report.Collected = report.Collected.Add(sale.AmountPaid)
	}

	pending, err := s.repo.ListSales(ctx, repository.SaleFilter{PaymentType: models.PaymentCredit, PendingOnly: true})
	if err != nil {
		return report, fmt.Errorf("list pending credits: %w", err)
	}
	for _, sale := range pending {
		report.UnpaidBalance = report.UnpaidBalance.Add(sale.PendingAmount)
	}

	supplies, err := s.repo.ListSupplies(ctx, repository.SupplyFilter{From: from, To: to})
	if err != nil {
		return report, fmt.Errorf("list supplies: %w", err)
	}
	for _, supply := range supplies {
		report.Expenses = report.Expenses.Add(supply.CostOrZero())
	}

	report.Profit = report.SalesAmount.Sub(report.Expenses)
	return report, nil
}
