package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/group-order/internal/handler" // shop-side handlers
)

// RegisterShop registers the shop-side endpoints under /v1: shop
// lifecycle, menu management and session management.  There is no
// authentication in this product, so these routes are distinguished
// from the participant surface only by their shape.
func RegisterShop(e *echo.Echo, s *handler.ShopHandler, m *handler.MenuHandler, o *handler.SessionHandler) {
	g := e.Group("/v1")

	// ---- Shops ----
	g.POST("/shops", s.CreateShop)
	g.GET("/shops/:id", s.GetShop)
	g.POST("/shops/:id/promote", s.PromoteShop)
	g.DELETE("/shops/:id", s.DeleteShop)

	// ---- Menu items ----
	g.POST("/shops/:id/menu-items", m.AddMenuItems)
	g.POST("/shops/:id/menu-items/extract", m.ExtractMenu)
	g.DELETE("/shops/:id/menu-items", m.ResetMenu) // bulk reset ahead of a re-import
	g.PUT("/menu-items/:id", m.UpdateMenuItem)
	g.PATCH("/menu-items/:id", m.UpdateMenuItem) // allow partial-style updates via PATCH as well
	g.DELETE("/menu-items/:id", m.DeleteMenuItem)

	// ---- Sessions ----
	g.POST("/shops/:id/orders", o.CreateSession)
	g.POST("/orders/:id/terminate", o.TerminateSession)
	g.DELETE("/orders/:id", o.DeleteSession)
	g.DELETE("/selections/:id", o.DeleteSelection)
}
