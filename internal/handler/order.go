// This file defines handlers for the public order page. These routes let
// participants reach a session through its share code without any account:
// view the shop's menu and the running tally, and submit their own
// selections. Responses never expose more than the share code identifies.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/iliyamo/group-order/internal/config"
	"github.com/iliyamo/group-order/internal/middleware"
	"github.com/iliyamo/group-order/internal/model"
	"github.com/iliyamo/group-order/internal/queue"
	"github.com/iliyamo/group-order/internal/repository"
	queue_publisher "github.com/iliyamo/group-order/internal/service"
	"github.com/iliyamo/group-order/internal/tally"
)

// OrderHandler aggregates the repositories needed by the public order
// page: resolving a share code, rendering the menu and tally, and
// accepting participant selections.
type OrderHandler struct {
	ShopRepo      *repository.ShopRepo
	MenuItemRepo  *repository.MenuItemRepo
	OrderRepo     *repository.OrderRepo
	SelectionRepo *repository.SelectionRepo
	Rdb           *redis.Client
	CacheCfg      config.CacheConfig
	PublicBaseURL string
}

// NewOrderHandler constructs an OrderHandler with the provided
// repositories.  All repositories must be non-nil; Rdb may be nil.
func NewOrderHandler(shopRepo *repository.ShopRepo, menuItemRepo *repository.MenuItemRepo, orderRepo *repository.OrderRepo, selectionRepo *repository.SelectionRepo, rdb *redis.Client, cacheCfg config.CacheConfig, publicBaseURL string) *OrderHandler {
	if shopRepo == nil || menuItemRepo == nil || orderRepo == nil || selectionRepo == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{
		ShopRepo:      shopRepo,
		MenuItemRepo:  menuItemRepo,
		OrderRepo:     orderRepo,
		SelectionRepo: selectionRepo,
		Rdb:           rdb,
		CacheCfg:      cacheCfg,
		PublicBaseURL: publicBaseURL,
	}
}

// GetByShareCode handles GET /v1/orders/:code.  It returns the session
// (with the derived expired flag), the shop, the menu and the
// aggregated tally.  Reading an expired-but-still-open session reports
// expired=true without mutating the stored status.
func (h *OrderHandler) GetByShareCode(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid share code"})
	}
	ctx := c.Request().Context()
	order, err := h.OrderRepo.GetByShareCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	shop, err := h.ShopRepo.GetByID(ctx, order.ShopID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items, err := h.MenuItemRepo.ListByShop(ctx, order.ShopID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	details, err := h.SelectionRepo.ListDetailsByOrder(ctx, order.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order":      newOrderView(order, time.Now().UTC()),
		"shop":       echo.Map{"id": shop.ID, "name": shop.Name},
		"menu_items": menuItemResponses(items),
		"tally":      tally.Aggregate(toTallyLines(details)),
	})
}

// SubmitSelections handles POST /v1/orders/:code/selections.  The body
// carries the participant's display name and the chosen item/quantity
// pairs.  An empty item list fails validation before any store call;
// a closed session and an expired session both reject the submission
// as business errors without inserting anything.  On success one row
// is written per item and the cached session page is invalidated.
func (h *OrderHandler) SubmitSelections(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid share code"})
	}
	var body struct {
		ParticipantName string `json:"participant_name"`
		Items           []struct {
			MenuItemID uint64 `json:"menu_item_id"`
			Quantity   uint32 `json:"quantity"`
		} `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	// The participant name is kept byte-for-byte as typed; it is a
	// label on the tally, not an identity, so no trimming or casing.
	if body.ParticipantName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "participant_name is required"})
	}
	if len(body.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items is required"})
	}
	for _, it := range body.Items {
		if it.MenuItemID == 0 || it.Quantity == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "every item needs a menu_item_id and a positive quantity"})
		}
	}

	ctx := c.Request().Context()
	order, err := h.OrderRepo.GetByShareCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := time.Now().UTC()
	if !order.AcceptsSelections(now) {
		if order.Status == model.StatusClosed {
			return c.JSON(http.StatusConflict, echo.Map{"error": "order session is closed"})
		}
		return c.JSON(http.StatusConflict, echo.Map{"error": "order session has expired"})
	}

	// Verify every referenced item belongs to the session's shop.
	ids := make([]uint64, 0, len(body.Items))
	seen := make(map[uint64]struct{})
	for _, it := range body.Items {
		if _, ok := seen[it.MenuItemID]; !ok {
			seen[it.MenuItemID] = struct{}{}
			ids = append(ids, it.MenuItemID)
		}
	}
	missing, err := h.SelectionRepo.CountMissingItems(ctx, order.ShopID, ids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if missing > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown menu item in selection"})
	}

	sels := make([]model.OrderSelection, 0, len(body.Items))
	for _, it := range body.Items {
		sels = append(sels, model.OrderSelection{
			OrderID:         order.ID,
			MenuItemID:      it.MenuItemID,
			ParticipantName: body.ParticipantName,
			Quantity:        it.Quantity,
		})
	}
	if err := h.SelectionRepo.CreateBulk(ctx, sels); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	h.publishSubmitted(ctx, order, body.ParticipantName, sels, now)
	middleware.InvalidateCache(ctx, h.Rdb, h.CacheCfg, "/v1/orders/"+order.ShareCode)
	return c.JSON(http.StatusCreated, echo.Map{"accepted": len(sels)})
}

// publishSubmitted publishes the order.placed event for the receipt
// log.  Failures are logged by the publisher and ignored here.
func (h *OrderHandler) publishSubmitted(ctx context.Context, order *model.Order, participant string, sels []model.OrderSelection, now time.Time) {
	shop, err := h.ShopRepo.GetByID(ctx, order.ShopID)
	if err != nil {
		return
	}
	items, err := h.MenuItemRepo.ListByShop(ctx, order.ShopID)
	if err != nil {
		return
	}
	byID := make(map[uint64]*model.MenuItem, len(items))
	for _, m := range items {
		byID[m.ID] = m
	}
	lines := make([]queue.ReceiptLine, 0, len(sels))
	var amount int64
	for _, s := range sels {
		m, ok := byID[s.MenuItemID]
		if !ok {
			continue
		}
		lines = append(lines, queue.ReceiptLine{Name: m.Name, UnitPrice: m.Price, Quantity: s.Quantity})
		amount += m.Price * int64(s.Quantity)
	}
	_ = queue_publisher.PublishSelectionsSubmitted(ctx, queue.SelectionsSubmittedEvent{
		OrderID:     order.ID,
		ShareCode:   order.ShareCode,
		ShopName:    shop.Name,
		Participant: participant,
		Lines:       lines,
		Amount:      amount,
		SubmittedAt: now.Format(time.RFC3339),
	})
}

// ShareQR handles GET /v1/orders/:code/qr.  It renders a PNG QR code of
// the public order URL so shops can print or screen-share the link.
func (h *OrderHandler) ShareQR(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid share code"})
	}
	ctx := c.Request().Context()
	order, err := h.OrderRepo.GetByShareCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	png, err := qrcode.Encode(h.PublicBaseURL+"/order/"+order.ShareCode, qrcode.Medium, 256)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to render qr code"})
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
