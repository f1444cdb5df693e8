package model

import "time"

// Order statuses stored in the `orders.status` column.  Expiry is
// never written into this column by a read path: a session whose
// expires_at has passed keeps StatusOpen in the database and is
// reported as expired by IsExpired at read time.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Order is a time-boxed group-order session belonging to one shop.
// The share code is the public identifier participants use to
// reach the session; it is unique across all sessions.
//
// Fields:
//  ID        – primary key identifier.
//  ShopID    – owning shop.
//  ShareCode – short public identifier used in URLs (unique).
//  Status    – "open" or "closed".
//  Title     – optional human-readable title.
//  CreatedAt – creation timestamp.
//  ExpiresAt – when the session stops accepting selections (nullable).
//  ClosedAt  – when the session was explicitly terminated (nullable).
type Order struct {
	ID        uint64     // orders.id
	ShopID    uint64     // orders.shop_id
	ShareCode string     // orders.share_code
	Status    string     // orders.status
	Title     *string    // orders.title (nullable)
	CreatedAt time.Time  // orders.created_at
	ExpiresAt *time.Time // orders.expires_at (nullable)
	ClosedAt  *time.Time // orders.closed_at (nullable)
}

// IsExpired reports whether the session's expiry timestamp has
// passed at the given instant.  A session without an expiry never
// expires.  The stored status is not consulted and not mutated.
func (o *Order) IsExpired(now time.Time) bool {
	return o.ExpiresAt != nil && now.After(*o.ExpiresAt)
}

// AcceptsSelections reports whether a new selection may be written
// to this session: the stored status must still be open and the
// session must not have expired.
func (o *Order) AcceptsSelections(now time.Time) bool {
	return o.Status == StatusOpen && !o.IsExpired(now)
}
