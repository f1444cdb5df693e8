package model

import "time"

// MenuItem is a single orderable entry on a shop's menu.  Items
// are created one at a time from the edit form or in bulk when a
// menu is imported from extraction.  Prices are stored as whole
// currency units; an unparseable imported price becomes 0.
//
// Fields:
//  ID          – primary key identifier.
//  ShopID      – owning shop.
//  Name        – item name (required, non-empty).
//  Description – optional free-text description.
//  Price       – unit price in whole currency units, defaults to 0.
//  CreatedAt   – creation timestamp.
type MenuItem struct {
	ID          uint64    // menu_items.id
	ShopID      uint64    // menu_items.shop_id
	Name        string    // menu_items.name
	Description *string   // menu_items.description (nullable)
	Price       int64     // menu_items.price
	CreatedAt   time.Time // menu_items.created_at
}
