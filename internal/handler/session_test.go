package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/group-order/internal/config"
	"github.com/iliyamo/group-order/internal/repository"
	"github.com/iliyamo/group-order/internal/sharecode"
)

func newSessionHandlerWithMock(t *testing.T) (*SessionHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewSessionHandler(
		repository.NewShopRepo(db),
		repository.NewOrderRepo(db),
		repository.NewSelectionRepo(db),
		sharecode.New(),
		nil, // disabled extraction client; terminate never needs it
		nil, // no Redis in tests
		config.CacheConfig{},
		"http://localhost:8080",
	)
	return h, mock
}

func TestTerminateSession_FirstCloseSnapshotsTally(t *testing.T) {
	h, mock := newSessionHandlerWithMock(t)
	e := echo.New()

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE orders SET status = \\?, closed_at = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT " + orderColumns + "\\s+FROM orders WHERE id = ?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(strings.Split(orderColumns, ", ")).
			AddRow(7, 3, "AbC123", "closed", "lunch run", now.Add(-time.Hour), now.Add(time.Hour), now))
	mock.ExpectQuery("SELECT id, name, address, is_temporary, created_at, updated_at FROM shops WHERE id = ?").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "is_temporary", "created_at", "updated_at"}).
			AddRow(3, "Test Cafe", nil, false, now, now))
	mock.ExpectQuery("SELECT os.id, os.menu_item_id, os.participant_name, os.quantity").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "menu_item_id", "participant_name", "quantity", "name", "price", "created_at"}).
			AddRow(11, 1, "Alice", 2, "Americano", 4500, now))

	c, rec := newRequestContext(e, http.MethodPost, "")
	c.SetPath("/v1/orders/:id/terminate")
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.TerminateSession(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"closed"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTerminateSession_RepeatedCloseDoesNotRepublish(t *testing.T) {
	h, mock := newSessionHandlerWithMock(t)
	e := echo.New()

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE orders SET status = \\?, closed_at = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM orders WHERE id = ?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("closed"))
	mock.ExpectQuery("SELECT " + orderColumns + "\\s+FROM orders WHERE id = ?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(strings.Split(orderColumns, ", ")).
			AddRow(7, 3, "AbC123", "closed", "lunch run", now.Add(-time.Hour), now.Add(time.Hour), now.Add(-time.Minute)))

	c, rec := newRequestContext(e, http.MethodPost, "")
	c.SetPath("/v1/orders/:id/terminate")
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.TerminateSession(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	// The close event needs shop and selection lookups; none were
	// expected, so a repeat terminate must not reach them.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTerminateSession_MissingSessionNotFound(t *testing.T) {
	h, mock := newSessionHandlerWithMock(t)
	e := echo.New()

	mock.ExpectExec("UPDATE orders SET status = \\?, closed_at = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM orders WHERE id = ?").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	c, rec := newRequestContext(e, http.MethodPost, "")
	c.SetPath("/v1/orders/:id/terminate")
	c.SetParamNames("id")
	c.SetParamValues("404")

	require.NoError(t, h.TerminateSession(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
