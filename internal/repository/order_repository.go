package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/group-order/internal/model"
)

// ErrOrderNotFound is returned when a session cannot be found in the DB,
// whether looked up by id or by share code.
var ErrOrderNotFound = errors.New("order session not found")

// ErrShareCodeTaken is returned when an insert collides with an existing
// share code on the orders table's unique key.  Callers should retry the
// creation with a freshly generated code.
var ErrShareCodeTaken = errors.New("share code already taken")

// mysqlDupEntry is the MySQL error number for a duplicate key violation.
const mysqlDupEntry = 1062

// OrderRepo provides data access to the orders table.  A row is one
// time-boxed group-order session.  All timestamp comparisons are
// performed in UTC.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the provided database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// ShareCodeExists reports whether any session already uses the given
// share code.  It backs the bounded-retry allocation in the sharecode
// package.
func (r *OrderRepo) ShareCodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE share_code = ?`, code).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a new session with status "open".  The share_code
// column carries a UNIQUE key; a duplicate-key violation is translated
// into ErrShareCodeTaken so the caller can retry with another code,
// which closes the check-then-insert race window.  On success the ID
// and creation timestamp are populated.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	const qInsert = `INSERT INTO orders (shop_id, share_code, status, title, expires_at)
	                 VALUES (?, ?, ?, ?, ?)`
	var expires interface{}
	if o.ExpiresAt != nil {
		expires = o.ExpiresAt.UTC().Format("2006-01-02 15:04:05")
	}
	res, err := r.db.ExecContext(ctx, qInsert, o.ShopID, o.ShareCode, model.StatusOpen, o.Title, expires)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return ErrShareCodeTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.Status = model.StatusOpen

	const qSelect = "SELECT created_at FROM orders WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, o.ID).Scan(&o.CreatedAt)
}

// GetByID fetches a session by its primary key.  Returns
// ErrOrderNotFound when no row exists.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	const q = `SELECT id, shop_id, share_code, status, title, created_at, expires_at, closed_at
	           FROM orders WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetByShareCode fetches a session by its public share code.  Returns
// ErrOrderNotFound when no row exists.
func (r *OrderRepo) GetByShareCode(ctx context.Context, code string) (*model.Order, error) {
	const q = `SELECT id, shop_id, share_code, status, title, created_at, expires_at, closed_at
	           FROM orders WHERE share_code = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, code))
}

func (r *OrderRepo) scanOne(row *sql.Row) (*model.Order, error) {
	var o model.Order
	if err := row.Scan(&o.ID, &o.ShopID, &o.ShareCode, &o.Status, &o.Title, &o.CreatedAt, &o.ExpiresAt, &o.ClosedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// ListByShop returns all sessions of a shop, newest first.
func (r *OrderRepo) ListByShop(ctx context.Context, shopID uint64) ([]*model.Order, error) {
	const q = `SELECT id, shop_id, share_code, status, title, created_at, expires_at, closed_at
	           FROM orders WHERE shop_id = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o := new(model.Order)
		if err := rows.Scan(&o.ID, &o.ShopID, &o.ShareCode, &o.Status, &o.Title, &o.CreatedAt, &o.ExpiresAt, &o.ClosedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Terminate transitions an open session to closed and stamps closed_at.
// Terminating an already-closed session is a no-op so the operation is
// idempotent from the caller's perspective; the returned flag reports
// whether this call actually flipped the status, letting callers skip
// side effects such as the close event on a repeat.  Returns
// ErrOrderNotFound when the session does not exist.
func (r *OrderRepo) Terminate(ctx context.Context, id uint64, closedAt time.Time) (bool, error) {
	const q = `UPDATE orders SET status = ?, closed_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, model.StatusClosed,
		closedAt.UTC().Format("2006-01-02 15:04:05"), id, model.StatusOpen)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the session is already closed (fine) or it never existed.
		var status string
		if err := r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return false, ErrOrderNotFound
			}
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// DeleteByID removes a session and its selections within a transaction,
// independent of the session's status.  Returns ErrOrderNotFound when
// the session does not exist.
func (r *OrderRepo) DeleteByID(ctx context.Context, id uint64) error {
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
	var dbID uint64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = ?`, id).Scan(&dbID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrOrderNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM order_selections WHERE order_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}
