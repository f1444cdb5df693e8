package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/group-order/internal/model"
)

// ErrSelectionNotFound is returned when a selection row cannot be found.
var ErrSelectionNotFound = errors.New("selection not found")

// SelectionDetail is a selection row joined with its menu item's name
// and unit price.  The tally package consumes these rows to build the
// per-participant breakdown and the shop-facing merged receipt; keeping
// name and price on the row means the aggregation reflects what the
// participant actually picked, even if the menu changes later.
type SelectionDetail struct {
	ID              uint64    // order_selections.id
	MenuItemID      uint64    // order_selections.menu_item_id
	ParticipantName string    // order_selections.participant_name
	Quantity        uint32    // order_selections.quantity
	ItemName        string    // menu_items.name at read time
	UnitPrice       int64     // menu_items.price at read time
	CreatedAt       time.Time // order_selections.created_at
}

// SelectionRepo provides data access to the order_selections table.
// Writes are append-only: repeated submissions add rows and are merged
// only at read time.
type SelectionRepo struct {
	db *sql.DB
}

// NewSelectionRepo returns a new SelectionRepo bound to the provided database.
func NewSelectionRepo(db *sql.DB) *SelectionRepo { return &SelectionRepo{db: db} }

// CreateBulk inserts one selection row per chosen item in a single
// statement.  Each selection must specify OrderID, MenuItemID,
// ParticipantName and Quantity; the created_at column is set by the
// database.  Passing an empty slice has no effect and returns nil.
func (r *SelectionRepo) CreateBulk(ctx context.Context, sels []model.OrderSelection) error {
	if len(sels) == 0 {
		return nil
	}
	query := `INSERT INTO order_selections (order_id, menu_item_id, participant_name, quantity) VALUES `
	args := make([]interface{}, 0, len(sels)*4)
	for i, s := range sels {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, s.OrderID, s.MenuItemID, s.ParticipantName, s.Quantity)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListDetailsByOrder returns the session's full selection list joined
// with menu item names and prices, in submission order.
func (r *SelectionRepo) ListDetailsByOrder(ctx context.Context, orderID uint64) ([]SelectionDetail, error) {
	const q = `SELECT os.id, os.menu_item_id, os.participant_name, os.quantity,
	                  mi.name, mi.price, os.created_at
	           FROM order_selections os
	           JOIN menu_items mi ON mi.id = os.menu_item_id
	           WHERE os.order_id = ?
	           ORDER BY os.id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SelectionDetail
	for rows.Next() {
		var d SelectionDetail
		if err := rows.Scan(&d.ID, &d.MenuItemID, &d.ParticipantName, &d.Quantity, &d.ItemName, &d.UnitPrice, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountMissingItems reports how many of the given menu item IDs do not
// belong to the specified shop.  Submissions referencing foreign or
// deleted items are rejected before any insert.
func (r *SelectionRepo) CountMissingItems(ctx context.Context, shopID uint64, itemIDs []uint64) (int, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(DISTINCT id) FROM menu_items WHERE shop_id = ? AND id IN (`
	args := make([]interface{}, 0, len(itemIDs)+1)
	args = append(args, shopID)
	for i, id := range itemIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	var found int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return 0, err
	}
	return len(itemIDs) - found, nil
}

// GetOrderID returns the session a selection belongs to.  Returns
// ErrSelectionNotFound when no row exists.
func (r *SelectionRepo) GetOrderID(ctx context.Context, id uint64) (uint64, error) {
	var orderID uint64
	if err := r.db.QueryRowContext(ctx,
		`SELECT order_id FROM order_selections WHERE id = ?`, id).Scan(&orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrSelectionNotFound
		}
		return 0, err
	}
	return orderID, nil
}

// Delete removes a single selection row, typically a shop owner pruning
// an erroneous entry.  Returns ErrSelectionNotFound when no row exists.
func (r *SelectionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM order_selections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSelectionNotFound
	}
	return nil
}
