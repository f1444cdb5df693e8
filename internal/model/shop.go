package model

import "time"

// Shop represents a food shop that publishes a menu and opens
// group-order sessions.  A shop created through the quick-order
// flow starts out temporary and can later be promoted to a
// permanent listing by supplying an address.  This struct
// corresponds to a row in the `shops` table.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name of the shop.
//  Address     – street address (nullable until promoted).
//  IsTemporary – true while the shop is an ad-hoc quick-order shop.
//  CreatedAt   – timestamp when the shop was created.
//  UpdatedAt   – timestamp of last update.
type Shop struct {
	ID          uint64    // shops.id
	Name        string    // shops.name
	Address     *string   // shops.address (nullable)
	IsTemporary bool      // shops.is_temporary
	CreatedAt   time.Time // shops.created_at
	UpdatedAt   time.Time // shops.updated_at
}
