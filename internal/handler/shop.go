package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/group-order/internal/model"
	"github.com/iliyamo/group-order/internal/repository"
)

// ShopHandler bundles the repositories needed to manage shops: creating
// them (including the temporary quick-order variant), reading them back
// together with their menu and sessions, promoting them to permanent
// listings and deleting them.
type ShopHandler struct {
	ShopRepo     *repository.ShopRepo
	MenuItemRepo *repository.MenuItemRepo
	OrderRepo    *repository.OrderRepo
}

// NewShopHandler constructs a ShopHandler and panics if any dependency is nil.
func NewShopHandler(shopRepo *repository.ShopRepo, menuItemRepo *repository.MenuItemRepo, orderRepo *repository.OrderRepo) *ShopHandler {
	if shopRepo == nil || menuItemRepo == nil || orderRepo == nil {
		panic("nil repository passed to NewShopHandler")
	}
	return &ShopHandler{ShopRepo: shopRepo, MenuItemRepo: menuItemRepo, OrderRepo: orderRepo}
}

// CreateShop handles POST /v1/shops.  The body must contain a non-empty
// name; address is optional and is_temporary marks shops created through
// the quick-order flow.  Returns 201 with the stored shop.
func (h *ShopHandler) CreateShop(c echo.Context) error {
	var body struct {
		Name        string  `json:"name"`
		Address     *string `json:"address"`
		IsTemporary bool    `json:"is_temporary"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	shop := &model.Shop{Name: body.Name, Address: body.Address, IsTemporary: body.IsTemporary}
	if err := h.ShopRepo.Create(c.Request().Context(), shop); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, shopResponse(shop))
}

// GetShop handles GET /v1/shops/:id.  It returns the shop together with
// its full menu and all of its sessions, newest session first.  Session
// expiry is derived for display; the stored status is untouched.
func (h *ShopHandler) GetShop(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop id"})
	}
	ctx := c.Request().Context()
	shop, err := h.ShopRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items, err := h.MenuItemRepo.ListByShop(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	orders, err := h.OrderRepo.ListByShop(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := time.Now().UTC()
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o, now))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"shop":       shopResponse(shop),
		"menu_items": menuItemResponses(items),
		"orders":     views,
	})
}

// PromoteShop handles POST /v1/shops/:id/promote.  Promotion requires
// an address; it clears the temporary flag so the shop becomes a
// permanent listing.
func (h *ShopHandler) PromoteShop(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop id"})
	}
	var body struct {
		Address string `json:"address"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Address = strings.TrimSpace(body.Address)
	if body.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "address is required"})
	}
	if err := h.ShopRepo.Promote(c.Request().Context(), id, body.Address); err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"promoted": true})
}

// DeleteShop handles DELETE /v1/shops/:id.  The shop's menu items,
// sessions and selections are removed with it.
func (h *ShopHandler) DeleteShop(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop id"})
	}
	if err := h.ShopRepo.DeleteByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// shopResponse renders a shop for API responses.
func shopResponse(s *model.Shop) echo.Map {
	return echo.Map{
		"id":           s.ID,
		"name":         s.Name,
		"address":      s.Address,
		"is_temporary": s.IsTemporary,
		"created_at":   s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// menuItemResponses renders menu items for API responses.
func menuItemResponses(items []*model.MenuItem) []echo.Map {
	out := make([]echo.Map, 0, len(items))
	for _, m := range items {
		out = append(out, echo.Map{
			"id":          m.ID,
			"name":        m.Name,
			"description": m.Description,
			"price":       m.Price,
		})
	}
	return out
}
