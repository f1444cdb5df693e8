package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/group-order/internal/model"
)

func newOrderRepoWithMock(t *testing.T) (*OrderRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOrderRepo(db), mock
}

func TestCreate_DuplicateShareCodeMapsToErrShareCodeTaken(t *testing.T) {
	repo, mock := newOrderRepoWithMock(t)

	mock.ExpectExec("INSERT INTO orders").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'AbC123' for key 'orders.share_code'"})

	err := repo.Create(context.Background(), &model.Order{ShopID: 3, ShareCode: "AbC123"})
	assert.ErrorIs(t, err, ErrShareCodeTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_PopulatesIDAndTimestamp(t *testing.T) {
	repo, mock := newOrderRepoWithMock(t)

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO orders").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT created_at FROM orders WHERE id = ?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	o := &model.Order{ShopID: 3, ShareCode: "AbC123"}
	require.NoError(t, repo.Create(context.Background(), o))
	assert.Equal(t, uint64(7), o.ID)
	assert.Equal(t, model.StatusOpen, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTerminate_OpenSessionReportsFlip(t *testing.T) {
	repo, mock := newOrderRepoWithMock(t)

	mock.ExpectExec("UPDATE orders SET status = \\?, closed_at = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))

	closed, err := repo.Terminate(context.Background(), 7, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTerminate_AlreadyClosedIsNoOp(t *testing.T) {
	repo, mock := newOrderRepoWithMock(t)

	mock.ExpectExec("UPDATE orders SET status = \\?, closed_at = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM orders WHERE id = ?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("closed"))

	closed, err := repo.Terminate(context.Background(), 7, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTerminate_MissingSessionReturnsNotFound(t *testing.T) {
	repo, mock := newOrderRepoWithMock(t)

	mock.ExpectExec("UPDATE orders SET status = \\?, closed_at = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM orders WHERE id = ?").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	_, err := repo.Terminate(context.Background(), 404, time.Now().UTC())
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareCodeExists(t *testing.T) {
	repo, mock := newOrderRepoWithMock(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM orders WHERE share_code = ?").
		WithArgs("AbC123").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM orders WHERE share_code = ?").
		WithArgs("zzzzzz").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	taken, err := repo.ShareCodeExists(context.Background(), "AbC123")
	require.NoError(t, err)
	assert.True(t, taken)

	free, err := repo.ShareCodeExists(context.Background(), "zzzzzz")
	require.NoError(t, err)
	assert.False(t, free)
	assert.NoError(t, mock.ExpectationsWereMet())
}
