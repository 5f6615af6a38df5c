package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/mamadbah2/hamma/internal/config"
	"github.com/mamadbah2/hamma/internal/domain/models"
)

func newTestSheet(t *testing.T, handler http.HandlerFunc) *GoogleSheetRepository {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	repo, err := NewGoogleSheetRepository(context.Background(),
		config.SheetsConfig{SpreadsheetID: "sheet-1"}, nil,
		option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)
	return repo
}

func TestGoogleSheetRepository_WriteRow(t *testing.T) {
	var got struct {
		Values [][]interface{} `json:"values"`
	}
	repo := newTestSheet(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-1/values/"), r.URL.Path)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":append"), r.URL.Path)
		assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
		assert.Equal(t, "INSERT_ROWS", r.URL.Query().Get("insertDataOption"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId": "sheet-1", "updates": {"updatedRange": "Orders!A2:G2", "updatedRows": 1}}`))
	})

	err := repo.WriteRow(context.Background(), OrderLogRange, []interface{}{"2024-05-06T09:30:00Z", "ORD-1234", "s1", "Site Foreman", "Auto-Approved", "4.00", 1})
	require.NoError(t, err)

	require.Len(t, got.Values, 1)
	assert.Equal(t, "ORD-1234", got.Values[0][1])
	assert.Equal(t, "4.00", got.Values[0][5])
}

func TestGoogleSheetRepository_ReadRange(t *testing.T) {
	repo := newTestSheet(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "UNFORMATTED_VALUE", r.URL.Query().Get("valueRenderOption"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range": "Orders!A1:G2", "majorDimension": "ROWS", "values": [
			["timestamp", "order_id", "session_id", "requester", "status", "total", "items"],
			["2024-05-06T09:30:00Z", "ORD-1234", "s1", "Site Foreman", "Auto-Approved", "4.00", 1]
		]}`))
	})

	rows, err := repo.ReadRange(context.Background(), OrderLogRange)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ORD-1234", rows[1][ColOrderID])
	assert.Equal(t, "4.00", rows[1][ColTotal])
}

func TestGoogleSheetRepository_APIErrors(t *testing.T) {
	repo := newTestSheet(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "The caller does not have permission"}}`))
	})

	err := repo.WriteRow(context.Background(), OrderLogRange, []interface{}{"x"})
	assert.ErrorIs(t, err, models.ErrBackendUnavailable)

	_, err = repo.ReadRange(context.Background(), OrderLogRange)
	assert.ErrorIs(t, err, models.ErrBackendUnavailable)

	assert.Error(t, repo.WriteRow(context.Background(), "", nil))
}

func TestNewGoogleSheetRepository_RequiresSpreadsheetID(t *testing.T) {
	_, err := NewGoogleSheetRepository(context.Background(), config.SheetsConfig{}, nil, option.WithoutAuthentication())
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
