package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/group-order/internal/config"
	"github.com/iliyamo/group-order/internal/repository"
)

const orderColumns = "id, shop_id, share_code, status, title, created_at, expires_at, closed_at"

func newOrderHandlerWithMock(t *testing.T) (*OrderHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewOrderHandler(
		repository.NewShopRepo(db),
		repository.NewMenuItemRepo(db),
		repository.NewOrderRepo(db),
		repository.NewSelectionRepo(db),
		nil, // no Redis in tests: cache invalidation is a no-op
		config.CacheConfig{},
		"http://localhost:8080",
	)
	return h, mock
}

func newRequestContext(e *echo.Echo, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/", reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func TestSubmitSelections_EmptyItemsRejectedBeforeStore(t *testing.T) {
	h, mock := newOrderHandlerWithMock(t)
	e := echo.New()

	c, rec := newRequestContext(e, http.MethodPost, `{"participant_name":"Alice","items":[]}`)
	c.SetPath("/v1/orders/:code/selections")
	c.SetParamNames("code")
	c.SetParamValues("AbC123")

	require.NoError(t, h.SubmitSelections(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// No expectations were registered: the validation failure must not
	// touch the store at all.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitSelections_ClosedSessionRejectedWithoutInsert(t *testing.T) {
	h, mock := newOrderHandlerWithMock(t)
	e := echo.New()

	now := time.Now().UTC()
	closedAt := now.Add(-time.Minute)
	mock.ExpectQuery("SELECT " + orderColumns + "\\s+FROM orders WHERE share_code = ?").
		WithArgs("AbC123").
		WillReturnRows(sqlmock.NewRows(strings.Split(orderColumns, ", ")).
			AddRow(7, 3, "AbC123", "closed", "lunch run", now.Add(-time.Hour), now.Add(time.Hour), closedAt))

	c, rec := newRequestContext(e, http.MethodPost, `{"participant_name":"Carol","items":[{"menu_item_id":1,"quantity":1}]}`)
	c.SetPath("/v1/orders/:code/selections")
	c.SetParamNames("code")
	c.SetParamValues("AbC123")

	require.NoError(t, h.SubmitSelections(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "closed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitSelections_ExpiredButOpenSessionRejected(t *testing.T) {
	h, mock := newOrderHandlerWithMock(t)
	e := echo.New()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT " + orderColumns + "\\s+FROM orders WHERE share_code = ?").
		WithArgs("AbC123").
		WillReturnRows(sqlmock.NewRows(strings.Split(orderColumns, ", ")).
			AddRow(7, 3, "AbC123", "open", nil, now.Add(-2*time.Hour), now.Add(-time.Hour), nil))

	c, rec := newRequestContext(e, http.MethodPost, `{"participant_name":"Dave","items":[{"menu_item_id":1,"quantity":1}]}`)
	c.SetPath("/v1/orders/:code/selections")
	c.SetParamNames("code")
	c.SetParamValues("AbC123")

	require.NoError(t, h.SubmitSelections(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
	// The stored status stays "open": no UPDATE was expected or issued.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitSelections_ZeroQuantityRejected(t *testing.T) {
	h, mock := newOrderHandlerWithMock(t)
	e := echo.New()

	c, rec := newRequestContext(e, http.MethodPost, `{"participant_name":"Eve","items":[{"menu_item_id":1,"quantity":0}]}`)
	c.SetPath("/v1/orders/:code/selections")
	c.SetParamNames("code")
	c.SetParamValues("AbC123")

	require.NoError(t, h.SubmitSelections(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitSelections_OpenSessionAcceptsItems(t *testing.T) {
	h, mock := newOrderHandlerWithMock(t)
	e := echo.New()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT " + orderColumns + "\\s+FROM orders WHERE share_code = ?").
		WithArgs("AbC123").
		WillReturnRows(sqlmock.NewRows(strings.Split(orderColumns, ", ")).
			AddRow(7, 3, "AbC123", "open", "lunch run", now, now.Add(time.Hour), nil))
	mock.ExpectQuery("SELECT COUNT\\(DISTINCT id\\) FROM menu_items WHERE shop_id = \\? AND id IN").
		WithArgs(uint64(3), uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec("INSERT INTO order_selections").
		WithArgs(uint64(7), uint64(1), "Bob", uint32(2), uint64(7), uint64(2), "Bob", uint32(1)).
		WillReturnResult(sqlmock.NewResult(1, 2))
	// The order.placed event snapshots the shop name and menu prices.
	mock.ExpectQuery("SELECT id, name, address, is_temporary, created_at, updated_at FROM shops WHERE id = ?").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "is_temporary", "created_at", "updated_at"}).
			AddRow(3, "Test Cafe", nil, false, now, now))
	mock.ExpectQuery("SELECT id, shop_id, name, description, price, created_at\\s+FROM menu_items WHERE shop_id = ?").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shop_id", "name", "description", "price", "created_at"}).
			AddRow(1, 3, "Americano", nil, 4500, now).
			AddRow(2, 3, "Latte", nil, 5000, now))

	c, rec := newRequestContext(e, http.MethodPost,
		`{"participant_name":"Bob","items":[{"menu_item_id":1,"quantity":2},{"menu_item_id":2,"quantity":1}]}`)
	c.SetPath("/v1/orders/:code/selections")
	c.SetParamNames("code")
	c.SetParamValues("AbC123")

	require.NoError(t, h.SubmitSelections(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accepted":2`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitSelections_UnknownItemRejected(t *testing.T) {
	h, mock := newOrderHandlerWithMock(t)
	e := echo.New()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT " + orderColumns + "\\s+FROM orders WHERE share_code = ?").
		WithArgs("AbC123").
		WillReturnRows(sqlmock.NewRows(strings.Split(orderColumns, ", ")).
			AddRow(7, 3, "AbC123", "open", nil, now, now.Add(time.Hour), nil))
	mock.ExpectQuery("SELECT COUNT\\(DISTINCT id\\) FROM menu_items WHERE shop_id = \\? AND id IN").
		WithArgs(uint64(3), uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	c, rec := newRequestContext(e, http.MethodPost, `{"participant_name":"Bob","items":[{"menu_item_id":99,"quantity":1}]}`)
	c.SetPath("/v1/orders/:code/selections")
	c.SetParamNames("code")
	c.SetParamValues("AbC123")

	require.NoError(t, h.SubmitSelections(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown menu item")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByShareCode_ReportsDerivedExpiryWithoutWrite(t *testing.T) {
	h, mock := newOrderHandlerWithMock(t)
	e := echo.New()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT " + orderColumns + "\\s+FROM orders WHERE share_code = ?").
		WithArgs("AbC123").
		WillReturnRows(sqlmock.NewRows(strings.Split(orderColumns, ", ")).
			AddRow(7, 3, "AbC123", "open", "lunch run", now.Add(-2*time.Hour), now.Add(-time.Hour), nil))
	mock.ExpectQuery("SELECT id, name, address, is_temporary, created_at, updated_at FROM shops WHERE id = ?").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "is_temporary", "created_at", "updated_at"}).
			AddRow(3, "Test Cafe", nil, false, now, now))
	mock.ExpectQuery("SELECT id, shop_id, name, description, price, created_at\\s+FROM menu_items WHERE shop_id = ?").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shop_id", "name", "description", "price", "created_at"}).
			AddRow(1, 3, "Americano", nil, 4500, now))
	mock.ExpectQuery("SELECT os.id, os.menu_item_id, os.participant_name, os.quantity").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "menu_item_id", "participant_name", "quantity", "name", "price", "created_at"}).
			AddRow(11, 1, "Alice", 1, "Americano", 4500, now))

	c, rec := newRequestContext(e, http.MethodGet, "")
	c.SetPath("/v1/orders/:code")
	c.SetParamNames("code")
	c.SetParamValues("AbC123")

	require.NoError(t, h.GetByShareCode(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Order struct {
			Status  string `json:"status"`
			Expired bool   `json:"expired"`
		} `json:"order"`
		Tally struct {
			TotalQuantity uint32 `json:"total_quantity"`
			TotalAmount   int64  `json:"total_amount"`
		} `json:"tally"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// The session reads as expired while its stored status stays open.
	assert.Equal(t, "open", resp.Order.Status)
	assert.True(t, resp.Order.Expired)
	assert.Equal(t, uint32(1), resp.Tally.TotalQuantity)
	assert.Equal(t, int64(4500), resp.Tally.TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByShareCode_NotFound(t *testing.T) {
	h, mock := newOrderHandlerWithMock(t)
	e := echo.New()

	mock.ExpectQuery("SELECT " + orderColumns + "\\s+FROM orders WHERE share_code = ?").
		WithArgs("zzzzzz").
		WillReturnError(sql.ErrNoRows)

	c, rec := newRequestContext(e, http.MethodGet, "")
	c.SetPath("/v1/orders/:code")
	c.SetParamNames("code")
	c.SetParamValues("zzzzzz")

	require.NoError(t, h.GetByShareCode(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
