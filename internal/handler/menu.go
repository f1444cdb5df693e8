package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/group-order/internal/extract"
	"github.com/iliyamo/group-order/internal/model"
	"github.com/iliyamo/group-order/internal/repository"
)

// MenuHandler manages a shop's menu: manual adds and edits, bulk import
// of extracted candidates, the "reset all menus" operation, and the
// extraction endpoint itself (photo or pasted text).
type MenuHandler struct {
	ShopRepo     *repository.ShopRepo
	MenuItemRepo *repository.MenuItemRepo
	Extractor    *extract.Client
}

// NewMenuHandler constructs a MenuHandler.  Extractor may be a disabled
// client; the repositories must be non-nil.
func NewMenuHandler(shopRepo *repository.ShopRepo, menuItemRepo *repository.MenuItemRepo, extractor *extract.Client) *MenuHandler {
	if shopRepo == nil || menuItemRepo == nil {
		panic("nil repository passed to NewMenuHandler")
	}
	return &MenuHandler{ShopRepo: shopRepo, MenuItemRepo: menuItemRepo, Extractor: extractor}
}

type menuItemInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       int64   `json:"price"`
}

// AddMenuItems handles POST /v1/shops/:id/menu-items.  The body carries
// an "items" array; every item needs a non-empty name and prices below
// zero are clamped to 0.  Items are inserted in bulk in one statement.
func (h *MenuHandler) AddMenuItems(c echo.Context) error {
	shopID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop id"})
	}
	var body struct {
		Items []menuItemInput `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items is required"})
	}
	items := make([]model.MenuItem, 0, len(body.Items))
	for _, in := range body.Items {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "every item needs a name"})
		}
		price := in.Price
		if price < 0 {
			price = 0
		}
		items = append(items, model.MenuItem{Name: name, Description: in.Description, Price: price})
	}
	ctx := c.Request().Context()
	if _, err := h.ShopRepo.GetByID(ctx, shopID); err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.MenuItemRepo.CreateBulk(ctx, shopID, items); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": len(items)})
}

// UpdateMenuItem handles PUT /v1/menu-items/:id with a full replacement
// of name, description and price.
func (h *MenuHandler) UpdateMenuItem(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid menu item id"})
	}
	var body menuItemInput
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	price := body.Price
	if price < 0 {
		price = 0
	}
	if err := h.MenuItemRepo.Update(c.Request().Context(), id, name, body.Description, price); err != nil {
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteMenuItem handles DELETE /v1/menu-items/:id.  Items referenced
// by submitted selections cannot be removed and yield a 409.
func (h *MenuHandler) DeleteMenuItem(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid menu item id"})
	}
	if err := h.MenuItemRepo.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrMenuItemNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "menu item has selections; reset the menu instead"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetMenu handles DELETE /v1/shops/:id/menu-items.  It wipes the
// shop's entire menu (and any selections referencing it) ahead of a
// re-import.
func (h *MenuHandler) ResetMenu(c echo.Context) error {
	shopID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop id"})
	}
	ctx := c.Request().Context()
	if _, err := h.ShopRepo.GetByID(ctx, shopID); err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.MenuItemRepo.ResetByShop(ctx, shopID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ExtractMenu handles POST /v1/shops/:id/menu-items/extract.  The body
// carries either a base64 image ("image" + "mime_type") or a block of
// free text ("text").  The provider's loosely-structured reply is
// validated by the extract package; candidates are returned to the
// client for review, nothing is persisted here.  When the provider is
// not configured, pasted text still works through the local line
// parser so manual bulk entry never depends on the provider.
func (h *MenuHandler) ExtractMenu(c echo.Context) error {
	shopID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop id"})
	}
	var body struct {
		Text     string `json:"text"`
		Image    string `json:"image"`     // base64-encoded image bytes
		MimeType string `json:"mime_type"` // e.g. image/jpeg
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Text = strings.TrimSpace(body.Text)
	if body.Text == "" && body.Image == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text or image is required"})
	}
	ctx := c.Request().Context()
	if _, err := h.ShopRepo.GetByID(ctx, shopID); err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shop not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var raw string
	var err error
	switch {
	case body.Image != "":
		if !h.Extractor.Enabled() {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "extraction service not configured"})
		}
		if body.MimeType == "" {
			body.MimeType = "image/jpeg"
		}
		raw, err = h.Extractor.ExtractFromImage(ctx, body.MimeType, body.Image)
	case h.Extractor.Enabled():
		raw, err = h.Extractor.ExtractFromText(ctx, body.Text)
	default:
		// No provider: parse the pasted lines locally.
		items, perr := extract.ParseFreeText(body.Text)
		if perr != nil {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "no menu extracted", "retry": true})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	}
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "extraction service failed", "retry": true})
	}
	items, err := extract.ParseCandidates(raw)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "no menu extracted", "retry": true})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
