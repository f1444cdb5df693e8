package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/group-order/internal/handler"
)

// RegisterPublicOrder registers the participant-facing endpoints under
// /v1.  These routes are reached through a shared link, carry no
// authentication, and are protected instead by the supplied rate-limit
// middleware; the session page additionally sits behind the response
// cache, which write handlers invalidate explicitly.
func RegisterPublicOrder(e *echo.Echo, h *handler.OrderHandler, rateLimit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", rateLimit)

	// Session page: menu, status (including derived expiry) and tally.
	g.GET("/orders/:code", h.GetByShareCode, cache)
	// Participant submissions.
	g.POST("/orders/:code/selections", h.SubmitSelections)
	// Printable/scannable share link.
	g.GET("/orders/:code/qr", h.ShareQR)
}
