package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/group-order/internal/config"
	"github.com/iliyamo/group-order/internal/extract"
	"github.com/iliyamo/group-order/internal/middleware"
	"github.com/iliyamo/group-order/internal/model"
	"github.com/iliyamo/group-order/internal/queue"
	"github.com/iliyamo/group-order/internal/repository"
	queue_publisher "github.com/iliyamo/group-order/internal/service"
	"github.com/iliyamo/group-order/internal/sharecode"
	"github.com/iliyamo/group-order/internal/tally"
)

// Session expiry bounds: sessions default to half an hour and may not
// be stretched past a day.
const (
	defaultExpiryMinutes = 30
	maxExpiryMinutes     = 1440
)

// createAttempts bounds how often session creation restarts after the
// unique key on share_code rejects an insert.  Each restart allocates a
// fresh code, so hitting this bound means the code space is effectively
// saturated.
const createAttempts = 5

// SessionHandler covers the shop-side session operations: opening a
// time-boxed session with a fresh share code, terminating it, deleting
// it, and pruning individual selections.
type SessionHandler struct {
	ShopRepo      *repository.ShopRepo
	OrderRepo     *repository.OrderRepo
	SelectionRepo *repository.SelectionRepo
	Codes         *sharecode.Generator
	Extractor     *extract.Client
	Rdb           *redis.Client
	CacheCfg      config.CacheConfig
	PublicBaseURL string
}

// NewSessionHandler constructs a SessionHandler and panics if a
// repository or the code generator is nil.  Rdb may be nil (cache
// invalidation becomes a no-op) and Extractor may be disabled.
func NewSessionHandler(shopRepo *repository.ShopRepo, orderRepo *repository.OrderRepo, selectionRepo *repository.SelectionRepo, codes *sharecode.Generator, extractor *extract.Client, rdb *redis.Client, cacheCfg config.CacheConfig, publicBaseURL string) *SessionHandler {
	if shopRepo == nil || orderRepo == nil || selectionRepo == nil || codes == nil {
		panic("nil dependency passed to NewSessionHandler")
	}
	return &SessionHandler{
		ShopRepo:      shopRepo,
		OrderRepo:     orderRepo,
		SelectionRepo: selectionRepo,
		Codes:         codes,
		Extractor:     extractor,
		Rdb:           rdb,
		CacheCfg:      cacheCfg,
		PublicBaseURL: publicBaseURL,
	}
}

// CreateSession handles POST /v1/shops/:id/orders.  The body may carry
// a title and an expiry in minutes (default 30, capped at 1440).  An
// empty title is filled by the title generator, falling back to the
// local list.  The share code is allocated with a bounded retry and the
// insert retries on a duplicate-key conflict with a fresh code.
func (h *SessionHandler) CreateSession(c echo.Context) error {
	shopID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop id"})
	}
	var body struct {
		Title            string `json:"title"`
		ExpiresInMinutes int    `json:"expires_in_minutes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	minutes := body.ExpiresInMinutes
	if minutes == 0 {
		minutes = defaultExpiryMinutes
	}
	if minutes < 0 || minutes > maxExpiryMinutes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expires_in_minutes must be between 1 and 1440"})
	}
	ctx := c.Request().Context()
	shop, err := h.ShopRepo.GetByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	title := strings.TrimSpace(body.Title)
	if title == "" {
		title = h.Extractor.GenerateTitle(ctx, shop.Name)
	}
	expiresAt := time.Now().UTC().Add(time.Duration(minutes) * time.Minute)

	var order *model.Order
	for attempt := 0; attempt < createAttempts; attempt++ {
		code, err := h.Codes.AllocateUnique(ctx, h.OrderRepo)
		if err != nil {
			if errors.Is(err, sharecode.ErrAllocationExhausted) {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "could not allocate a share code, try again"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		o := &model.Order{ShopID: shopID, ShareCode: code, Title: &title, ExpiresAt: &expiresAt}
		err = h.OrderRepo.Create(ctx, o)
		if errors.Is(err, repository.ErrShareCodeTaken) {
			continue // lost the race to a concurrent creation; take a fresh code
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		order = o
		break
	}
	if order == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "could not allocate a share code, try again"})
	}

	middleware.InvalidateCache(ctx, h.Rdb, h.CacheCfg, "/v1/shops/"+c.Param("id"))
	return c.JSON(http.StatusCreated, echo.Map{
		"order":     newOrderView(order, time.Now().UTC()),
		"share_url": h.PublicBaseURL + "/order/" + order.ShareCode,
	})
}

// TerminateSession handles POST /v1/orders/:id/terminate.  It flips the
// stored status to closed, stamps closed_at and publishes the final
// merged tally to the order.closed queue.  Re-terminating an already
// closed session is a no-op and does not publish a second close event.
func (h *SessionHandler) TerminateSession(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()
	closedAt := time.Now().UTC()
	closed, err := h.OrderRepo.Terminate(ctx, id, closedAt)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	order, err := h.OrderRepo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if closed {
		h.publishClosed(ctx, order)
		middleware.InvalidateCache(ctx, h.Rdb, h.CacheCfg, "/v1/orders/"+order.ShareCode)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": newOrderView(order, closedAt)})
}

// publishClosed snapshots the merged tally and publishes the
// order.closed event.  Failures are logged and ignored: the receipt log
// is best-effort and must never fail the termination itself.
func (h *SessionHandler) publishClosed(ctx context.Context, order *model.Order) {
	shop, err := h.ShopRepo.GetByID(ctx, order.ShopID)
	if err != nil {
		log.Printf("session: shop lookup for close event failed: %v", err)
		return
	}
	details, err := h.SelectionRepo.ListDetailsByOrder(ctx, order.ID)
	if err != nil {
		log.Printf("session: selection lookup for close event failed: %v", err)
		return
	}
	res := tally.Aggregate(toTallyLines(details))
	merged := make([]queue.ReceiptLine, 0, len(res.Merged))
	for _, m := range res.Merged {
		merged = append(merged, queue.ReceiptLine{Name: m.ItemName, UnitPrice: m.UnitPrice, Quantity: m.Quantity})
	}
	title := ""
	if order.Title != nil {
		title = *order.Title
	}
	closedAt := ""
	if order.ClosedAt != nil {
		closedAt = order.ClosedAt.UTC().Format(time.RFC3339)
	}
	_ = queue_publisher.PublishSessionClosed(ctx, queue.SessionClosedEvent{
		OrderID:       order.ID,
		ShareCode:     order.ShareCode,
		ShopName:      shop.Name,
		Title:         title,
		Merged:        merged,
		TotalQuantity: res.TotalQuantity,
		TotalAmount:   res.TotalAmount,
		ClosedAt:      closedAt,
	})
}

// DeleteSession handles DELETE /v1/orders/:id, removing the session and
// its selections regardless of status.
func (h *SessionHandler) DeleteSession(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()
	order, err := h.OrderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.OrderRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	middleware.InvalidateCache(ctx, h.Rdb, h.CacheCfg, "/v1/orders/"+order.ShareCode)
	return c.NoContent(http.StatusNoContent)
}

// DeleteSelection handles DELETE /v1/selections/:id, the shop pruning a
// single erroneous entry from a session.
func (h *SessionHandler) DeleteSelection(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid selection id"})
	}
	ctx := c.Request().Context()
	orderID, err := h.SelectionRepo.GetOrderID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSelectionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "selection not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.SelectionRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrSelectionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "selection not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if order, err := h.OrderRepo.GetByID(ctx, orderID); err == nil {
		middleware.InvalidateCache(ctx, h.Rdb, h.CacheCfg, "/v1/orders/"+order.ShareCode)
	}
	return c.NoContent(http.StatusNoContent)
}

// toTallyLines converts joined selection rows into tally input.
func toTallyLines(details []repository.SelectionDetail) []tally.Line {
	lines := make([]tally.Line, 0, len(details))
	for _, d := range details {
		lines = append(lines, tally.Line{
			SelectionID: d.ID,
			Participant: d.ParticipantName,
			ItemName:    d.ItemName,
			UnitPrice:   d.UnitPrice,
			Quantity:    d.Quantity,
		})
	}
	return lines
}
