package model

import "time"

// OrderSelection records one participant's pick of one menu item
// within a session.  Repeated submissions produce additional rows
// for the same participant/item pair; rows are merged only at
// read time by the tally package, never at write time.
//
// Fields:
//  ID              – primary key identifier.
//  OrderID         – owning session.
//  MenuItemID      – chosen menu item.
//  ParticipantName – display name typed by the participant
//                    (free text, not an identity).
//  Quantity        – positive integer quantity.
//  CreatedAt       – submission timestamp.
type OrderSelection struct {
	ID              uint64    // order_selections.id
	OrderID         uint64    // order_selections.order_id
	MenuItemID      uint64    // order_selections.menu_item_id
	ParticipantName string    // order_selections.participant_name
	Quantity        uint32    // order_selections.quantity
	CreatedAt       time.Time // order_selections.created_at
}
