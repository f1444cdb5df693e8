package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/group-order/internal/model"
)

// ErrMenuItemNotFound is returned when a menu item cannot be found in the DB.
var ErrMenuItemNotFound = errors.New("menu item not found")

// MenuItemRepo provides data access to the menu_items table.  Items
// always arrive as a batch, whether typed into the edit form or saved
// from an extracted menu, so creation is bulk-only.
type MenuItemRepo struct {
	db *sql.DB
}

// NewMenuItemRepo returns a new MenuItemRepo bound to the provided database.
func NewMenuItemRepo(db *sql.DB) *MenuItemRepo { return &MenuItemRepo{db: db} }

// CreateBulk inserts multiple menu items for one shop in a single
// statement.  Passing an empty slice has no effect and returns nil.
// Generated IDs are not populated; callers that need them should
// re-list the shop's menu.
func (r *MenuItemRepo) CreateBulk(ctx context.Context, shopID uint64, items []model.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO menu_items (shop_id, name, description, price) VALUES `
	args := make([]interface{}, 0, len(items)*4)
	for i, m := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, shopID, m.Name, m.Description, m.Price)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListByShop returns all menu items for a shop ordered by id.
func (r *MenuItemRepo) ListByShop(ctx context.Context, shopID uint64) ([]*model.MenuItem, error) {
	const q = `SELECT id, shop_id, name, description, price, created_at
	           FROM menu_items WHERE shop_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.MenuItem
	for rows.Next() {
		m := new(model.MenuItem)
		if err := rows.Scan(&m.ID, &m.ShopID, &m.Name, &m.Description, &m.Price, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the name, description and price of a menu item.  It
// returns ErrMenuItemNotFound when the item does not exist.
func (r *MenuItemRepo) Update(ctx context.Context, id uint64, name string, description *string, price int64) error {
	const q = `UPDATE menu_items SET name = ?, description = ?, price = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, name, description, price, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists uint64
		if err := r.db.QueryRowContext(ctx, `SELECT id FROM menu_items WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMenuItemNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a single menu item.  Items that selections still
// reference cannot be removed without corrupting past sessions, so the
// method returns ErrConflict in that case and ErrMenuItemNotFound when
// the item does not exist.
func (r *MenuItemRepo) Delete(ctx context.Context, id uint64) error {
	var refs uint64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_selections WHERE menu_item_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

// ResetByShop removes every menu item of a shop together with any
// selections referencing them, inside one transaction.  It is used by
// the "reset all menus" operation before a re-import.
func (r *MenuItemRepo) ResetByShop(ctx context.Context, shopID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`DELETE os FROM order_selections os
         JOIN menu_items mi ON mi.id = os.menu_item_id
         WHERE mi.shop_id = ?`, shopID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM menu_items WHERE shop_id = ?`, shopID); err != nil {
		return err
	}
	return nil
}
