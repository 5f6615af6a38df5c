package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hamma/internal/domain/models"
	repo "github.com/mamadbah2/hamma/internal/repository/sheets"
)

type staticRepo struct {
	rows [][]interface{}
	err  error
}

func (s staticRepo) WriteRow(context.Context, string, []interface{}) error { return nil }

func (s staticRepo) ReadRange(_ context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange != repo.OrderLogRange {
		return nil, errors.New("unexpected range " + sheetRange)
	}
	return s.rows, s.err
}

func row(ts, id, status, total string) []interface{} {
	return []interface{}{ts, id, "s1", "Site Foreman", status, total, 1}
}

// Friday 2024-05-10 20:00 UTC; the week starts Monday 2024-05-06.
var friday = time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC)

func testRows() [][]interface{} {
	return [][]interface{}{
		repo.OrderLogHeader,
		row("2024-05-03T10:00:00Z", "ORD-1000", "Auto-Approved", "50.00"),
		row("2024-05-06T09:30:00Z", "ORD-2001", "Order Declined", "300.00"),
		row("2024-05-07T11:00:00Z", "ORD-3002", "Auto-Approved", "4.00"),
		row("2024-05-08T12:00:00Z", "ORD-4003", "Order Declined", "250.00"),
		row("2024-05-09T08:00:00Z", "ORD-2001", "Admin Approved", "300.00"),
		row("garbage", "ORD-5004", "Auto-Approved", "1.00"),
		{"short"},
	}
}

func TestCalculateWeeklySpend(t *testing.T) {
	svc := NewService(staticRepo{rows: testRows()}, "EUR", nil)

	summary, err := svc.CalculateWeeklySpend(context.Background(), friday)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), summary.Start)
	assert.Equal(t, 3, summary.Orders)
	assert.Equal(t, "304.00", summary.Spend.StringFixed(2), "re-approved order counts, declined does not")
	assert.Equal(t, 1, summary.ByStatus[models.StatusAdminApproved])
	assert.Equal(t, 1, summary.ByStatus[models.StatusDeclined])
	assert.Equal(t, 1, summary.ByStatus[models.StatusAutoApproved])
}

func TestCalculateWeeklySpend_SameOrderIDInTwoSessions(t *testing.T) {
	rows := [][]interface{}{
		repo.OrderLogHeader,
		{"2024-05-07T10:00:00Z", "ORD-1234", "session-a", "Site Foreman", "Auto-Approved", "100.00", 1},
		{"2024-05-08T10:00:00Z", "ORD-1234", "session-b", "Site Foreman", "Order Declined", "900.00", 2},
	}
	svc := NewService(staticRepo{rows: rows}, "EUR", nil)

	summary, err := svc.CalculateWeeklySpend(context.Background(), friday)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Orders)
	assert.Equal(t, "100.00", summary.Spend.StringFixed(2))
	assert.Equal(t, 1, summary.ByStatus[models.StatusAutoApproved])
	assert.Equal(t, 1, summary.ByStatus[models.StatusDeclined])
}

func TestGenerateWeeklyReport(t *testing.T) {
	svc := NewService(staticRepo{rows: testRows()}, "EUR", nil)

	report, err := svc.GenerateWeeklyReport(context.Background(), friday)
	require.NoError(t, err)
	assert.Contains(t, report, "Procurement (2024-05-06-2024-05-10): 3 orders, 304.00 EUR spent.")
	assert.Contains(t, report, "Order Declined: 1")

	empty := NewService(staticRepo{}, "EUR", nil)
	report, err = empty.GenerateWeeklyReport(context.Background(), friday)
	require.NoError(t, err)
	assert.Equal(t, "Procurement (2024-05-06-2024-05-10): no orders this week.", report)
}

func TestCalculateWeeklySpend_ReadError(t *testing.T) {
	svc := NewService(staticRepo{err: errors.New("quota")}, "EUR", nil)

	_, err := svc.CalculateWeeklySpend(context.Background(), friday)
	assert.Error(t, err)
}

func TestWeekStart(t *testing.T) {
	sunday := time.Date(2024, 5, 12, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), weekStart(sunday))

	monday := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, weekStart(monday))
}
