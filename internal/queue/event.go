// Package queue defines message payloads exchanged over the message broker.
package queue

// ReceiptLine is one line of an order receipt as carried in events.
type ReceiptLine struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  uint32 `json:"quantity"`
}

// SelectionsSubmittedEvent is published when a participant's selections are
// accepted into a session.  It contains enough information for downstream
// consumers to log or notify without querying the primary database.
type SelectionsSubmittedEvent struct {
	OrderID     uint64        `json:"order_id"`
	ShareCode   string        `json:"share_code"`
	ShopName    string        `json:"shop_name"`
	Participant string        `json:"participant"`
	Lines       []ReceiptLine `json:"lines"`
	Amount      int64         `json:"amount"`
	SubmittedAt string        `json:"submitted_at"`
}

// SessionClosedEvent is published when a shop terminates a session.  It
// carries the merged tally snapshot so the receipt log shows the final
// totals the shop will prepare against.
type SessionClosedEvent struct {
	OrderID       uint64        `json:"order_id"`
	ShareCode     string        `json:"share_code"`
	ShopName      string        `json:"shop_name"`
	Title         string        `json:"title"`
	Merged        []ReceiptLine `json:"merged"`
	TotalQuantity uint32        `json:"total_quantity"`
	TotalAmount   int64         `json:"total_amount"`
	ClosedAt      string        `json:"closed_at"`
}
