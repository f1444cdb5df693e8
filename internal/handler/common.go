package handler // handler defines http handlers

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/group-order/internal/model"
)

// parseID extracts a positive uint64 path parameter.  The boolean is
// false when the parameter is missing, malformed or zero.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// orderView is the JSON shape of a session in API responses.  Expired
// is derived from expires_at at render time; the stored status column
// is never flipped by a read.
type orderView struct {
	ID        uint64  `json:"id"`
	ShareCode string  `json:"share_code"`
	Status    string  `json:"status"`
	Title     *string `json:"title,omitempty"`
	CreatedAt string  `json:"created_at"`
	ExpiresAt *string `json:"expires_at,omitempty"`
	ClosedAt  *string `json:"closed_at,omitempty"`
	Expired   bool    `json:"expired"`
}

// newOrderView renders a session for API responses, computing the
// derived expired flag against the supplied instant.
func newOrderView(o *model.Order, now time.Time) orderView {
	v := orderView{
		ID:        o.ID,
		ShareCode: o.ShareCode,
		Status:    o.Status,
		Title:     o.Title,
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
		Expired:   o.IsExpired(now),
	}
	if o.ExpiresAt != nil {
		s := o.ExpiresAt.UTC().Format(time.RFC3339)
		v.ExpiresAt = &s
	}
	if o.ClosedAt != nil {
		s := o.ClosedAt.UTC().Format(time.RFC3339)
		v.ClosedAt = &s
	}
	return v
}
