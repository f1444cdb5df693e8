// Package repository contains data access logic separated from HTTP handlers.
// This file defines repository methods for shops. A Shop owns menu items and
// group-order sessions; deleting a shop cascades over both inside a single
// transaction.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to define custom error values

	"github.com/iliyamo/group-order/internal/model"
)

// ErrShopNotFound is returned when a shop cannot be found in the DB.
var ErrShopNotFound = errors.New("shop not found")

// ShopRepo encapsulates all database queries related to shops.  It
// depends on a sql.DB connection which should be configured elsewhere.
type ShopRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewShopRepo constructs a ShopRepo with the provided DB handle.  This
// function allows dependency injection of the database in tests and at
// startup.
func NewShopRepo(db *sql.DB) *ShopRepo {
	return &ShopRepo{db: db}
}

// Create inserts a new shop into the database.  On success the shop's
// ID field will be populated with the auto-generated value and the
// timestamp fields are re-read so that callers receive a fully
// populated record.
func (r *ShopRepo) Create(ctx context.Context, s *model.Shop) error {
	const qInsert = "INSERT INTO shops (name, address, is_temporary) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, s.Name, s.Address, s.IsTemporary)
	if err != nil {
		return err // propagate DB errors to the caller
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	const qSelect = "SELECT created_at, updated_at FROM shops WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetByID fetches a shop by its ID.  It returns ErrShopNotFound if no
// row is found.
func (r *ShopRepo) GetByID(ctx context.Context, id uint64) (*model.Shop, error) {
	const q = "SELECT id, name, address, is_temporary, created_at, updated_at FROM shops WHERE id = ?"
	var s model.Shop
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.Address, &s.IsTemporary, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Promote upgrades a temporary quick-order shop to a permanent listing
// by setting its address and clearing the temporary flag.  It returns
// ErrShopNotFound when the shop does not exist.
func (r *ShopRepo) Promote(ctx context.Context, id uint64, address string) error {
	const q = `UPDATE shops
	           SET address = ?, is_temporary = 0, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, address, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports zero affected rows both for a missing shop and
		// for an identical update, so confirm existence before failing.
		var exists uint64
		if err := r.db.QueryRowContext(ctx, `SELECT id FROM shops WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrShopNotFound
			}
			return err
		}
	}
	return nil
}

// DeleteByID removes a shop and all dependent records (menu items,
// sessions and their selections). If the shop does not exist,
// ErrShopNotFound is returned. The deletion occurs within a transaction
// to maintain integrity.
func (r *ShopRepo) DeleteByID(ctx context.Context, id uint64) error {
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
	// Verify shop exists before cascading.
	var dbID uint64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM shops WHERE id = ?`, id).Scan(&dbID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrShopNotFound
		}
		return err
	}
	// Cascade delete: remove selections belonging to this shop's sessions.
	if _, err = tx.ExecContext(ctx,
		`DELETE os FROM order_selections os
         JOIN orders o ON o.id = os.order_id
         WHERE o.shop_id = ?`, id); err != nil {
		return err
	}
	// Delete the shop's sessions.
	if _, err = tx.ExecContext(ctx, `DELETE FROM orders WHERE shop_id = ?`, id); err != nil {
		return err
	}
	// Delete the shop's menu items.
	if _, err = tx.ExecContext(ctx, `DELETE FROM menu_items WHERE shop_id = ?`, id); err != nil {
		return err
	}
	// Finally delete the shop.
	if _, err = tx.ExecContext(ctx, `DELETE FROM shops WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}
