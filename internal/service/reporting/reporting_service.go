package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/domain/models"
	repo "github.com/mamadbah2/hamma/internal/repository/sheets"
)

const dateLayout = "2006-01-02"

// WeeklySpend summarizes the orders committed in one week.
type WeeklySpend struct {
	Start    time.Time
	End      time.Time
	Orders   int
	Spend    decimal.Decimal
	ByStatus map[models.OrderStatus]int
}

// Service builds spend summaries from the order log sheet.
type Service struct {
	repo     repo.Repository
	currency string
	logger   *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(repository repo.Repository, currency string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, currency: currency, logger: logger}
}

type loggedOrder struct {
	committed time.Time
	status    models.OrderStatus
	total     decimal.Decimal
}

// CalculateWeeklySpend covers orders committed between the Monday before now (00:00 in
// now's location) and now. Each order counts once with its latest logged status;
// declined orders are counted but add nothing to the spend.
func (s *Service) CalculateWeeklySpend(ctx context.Context, now time.Time) (WeeklySpend, error) {
	rows, err := s.repo.ReadRange(ctx, repo.OrderLogRange)
	if err != nil {
		return WeeklySpend{}, fmt.Errorf("load order log: %w", err)
	}

	orders := make(map[string]*loggedOrder)
	for _, row := range rows {
		if len(row) <= repo.ColTotal {
			continue
		}

		at, err := parseTimestamp(row[repo.ColTimestamp])
		if err != nil {
			s.logger.Debug("skip order row with invalid timestamp", zap.Any("value", row[repo.ColTimestamp]), zap.Error(err))
			continue
		}

		total, err := decimal.NewFromString(fmt.Sprint(row[repo.ColTotal]))
		if err != nil {
			s.logger.Debug("skip order row with invalid total", zap.Any("value", row[repo.ColTotal]), zap.Error(err))
			continue
		}

		// Order ids are unique per session only.
		key := fmt.Sprint(row[repo.ColSession]) + "/" + fmt.Sprint(row[repo.ColOrderID])
		status := models.OrderStatus(fmt.Sprint(row[repo.ColStatus]))
		if existing, ok := orders[key]; ok {
			existing.status = status
			continue
		}
		orders[key] = &loggedOrder{committed: at, status: status, total: total}
	}

	start := weekStart(now)
	summary := WeeklySpend{
		Start:    start,
		End:      now,
		Spend:    decimal.Zero,
		ByStatus: make(map[models.OrderStatus]int),
	}
	for _, o := range orders {
		if o.committed.Before(start) || o.committed.After(now) {
			continue
		}
		summary.Orders++
		summary.ByStatus[o.status]++
		if o.status != models.StatusDeclined {
			summary.Spend = summary.Spend.Add(o.total)
		}
	}

	return summary, nil
}

// GenerateWeeklyReport renders the weekly spend as a chat message.
func (s *Service) GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error) {
	summary, err := s.CalculateWeeklySpend(ctx, now)
	if err != nil {
		return "", err
	}

	period := fmt.Sprintf("%s-%s", summary.Start.Format(dateLayout), summary.End.Format(dateLayout))
	if summary.Orders == 0 {
		return fmt.Sprintf("Procurement (%s): no orders this week.", period), nil
	}

	statuses := make([]string, 0, len(summary.ByStatus))
	for status, n := range summary.ByStatus {
		statuses = append(statuses, fmt.Sprintf("%s: %d", status, n))
	}
	sort.Strings(statuses)

	return fmt.Sprintf("Procurement (%s): %d orders, %s %s spent.\n%s",
		period, summary.Orders, summary.Spend.StringFixed(2), s.currency, strings.Join(statuses, "\n")), nil
}

func weekStart(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func parseTimestamp(value interface{}) (time.Time, error) {
	str := fmt.Sprint(value)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t, nil
	}
	if len(str) > 10 {
		str = str[:10]
	}
	return time.Parse(dateLayout, str)
}
