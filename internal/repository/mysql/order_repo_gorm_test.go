package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"
	"delivery-service/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	orderCols    = []string{"id", "user_id", "restaurant_id", "status", "total_price", "created_at", "updated_at"}
	itemCols     = []string{"id", "order_id", "menu_item_id", "quantity"}
	menuItemCols = []string{"id", "restaurant_id", "name", "description", "price", "is_available", "updated_at"}
	created      = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func orderRow(id uint64, status domain.OrderStatus, total string) *sqlmock.Rows {
	return sqlmock.NewRows(orderCols).AddRow(id, 7, 3, string(status), total, created, created)
}

func TestOrderRepo_AddItemRecomputesTotal(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db, logger.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `orders` (.+) FOR UPDATE").WillReturnRows(orderRow(1, domain.StatusNew, "20.00"))
	mock.ExpectExec("INSERT INTO `order_items`").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectQuery("SELECT \\* FROM `order_items` WHERE order_id = \\?").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 1, 10, 2).AddRow(2, 1, 11, 3))
	mock.ExpectQuery("SELECT \\* FROM `menu_items`").
		WillReturnRows(sqlmock.NewRows(menuItemCols).
			AddRow(10, 3, "Pizza", "", "10.00", true, created).
			AddRow(11, 3, "Soup", "", "5.50", true, created))
	mock.ExpectExec("UPDATE `orders` SET `total_price`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := repo.AddItem(context.Background(), &domain.OrderItem{OrderID: 1, MenuItemID: 11, Quantity: 3})

	require.NoError(t, err)
	assert.Equal(t, "36.50", order.TotalPrice.StringFixed(2))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Soup", order.Items[1].MenuItem.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_AddItemToClosedOrder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db, logger.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `orders` (.+) FOR UPDATE").WillReturnRows(orderRow(1, domain.StatusCompleted, "20.00"))
	mock.ExpectRollback()

	_, err := repo.AddItem(context.Background(), &domain.OrderItem{OrderID: 1, MenuItemID: 11, Quantity: 1})

	assert.ErrorIs(t, err, domain.ErrOrderClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_RemoveLastItemZeroesTotal(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db, logger.Nop())

	mock.ExpectQuery("SELECT \\* FROM `order_items` WHERE `order_items`.`id` = \\?").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(5, 1, 10, 2))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `orders` (.+) FOR UPDATE").WillReturnRows(orderRow(1, domain.StatusPreparing, "20.00"))
	mock.ExpectExec("DELETE FROM `order_items` WHERE \\(?id = \\? AND order_id = \\?").
		WithArgs(5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT \\* FROM `order_items` WHERE order_id = \\?").WillReturnRows(sqlmock.NewRows(itemCols))
	mock.ExpectExec("UPDATE `orders` SET `total_price`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := repo.RemoveItem(context.Background(), 5)

	require.NoError(t, err)
	assert.True(t, order.TotalPrice.IsZero())
	assert.Empty(t, order.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_RecomputeTotalsSkipsClosedAndMissingOrders(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db, logger.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `orders` (.+) FOR UPDATE").WillReturnRows(orderRow(1, domain.StatusCompleted, "20.00"))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `orders` (.+) FOR UPDATE").WillReturnRows(sqlmock.NewRows(orderCols))
	mock.ExpectRollback()

	err := repo.RecomputeTotals(context.Background(), []uint64{1, 2})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_UpdateStatusDetectsConcurrentChange(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db, logger.Nop())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET `status`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateStatus(context.Background(), repository.StatusUpdate{
		OrderID: 1,
		From:    domain.StatusNew,
		To:      domain.StatusPreparing,
	})

	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_BulkTransitionWritesAuditRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db, logger.Nop())
	before := created.Add(-3 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `orders` WHERE \\(?created_at < \\? AND status IN \\(\\?,\\?,\\?\\)\\)? FOR UPDATE").
		WithArgs(before, "new", "preparing", "delivering").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(3, "new").AddRow(4, "preparing"))
	mock.ExpectExec("UPDATE `orders` SET `status`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO `order_status_changes`").WillReturnResult(sqlmock.NewResult(10, 2))
	mock.ExpectCommit()

	changes, err := repo.BulkTransition(context.Background(),
		repository.StaleFilter{Before: before, Statuses: domain.NonTerminalStatuses()},
		domain.StatusCancelled, "stale")

	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, uint64(3), changes[0].OrderID)
	assert.Equal(t, domain.StatusNew, changes[0].From)
	assert.Equal(t, domain.StatusPreparing, changes[1].From)
	for _, c := range changes {
		assert.Equal(t, domain.StatusCancelled, c.To)
		assert.Equal(t, "stale", c.Reason)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_ListLoadsMenuItemsForSubtotals(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db, logger.Nop())

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `orders`").WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectQuery("SELECT \\* FROM `orders`").WillReturnRows(orderRow(1, domain.StatusNew, "36.50"))
	mock.ExpectQuery("SELECT \\* FROM `order_items`").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 1, 10, 2).AddRow(2, 1, 11, 3))
	mock.ExpectQuery("SELECT \\* FROM `menu_items`").
		WillReturnRows(sqlmock.NewRows(menuItemCols).
			AddRow(10, 3, "Pizza", "", "10.00", true, created).
			AddRow(11, 3, "Soup", "", "5.50", true, created))

	orders, total, err := repo.List(context.Background(), repository.OrderFilter{Page: repository.Page{Number: 1, Size: 20}})

	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 2)

	sum, err := domain.RecomputeTotal(orders[0].Items)
	require.NoError(t, err)
	assert.True(t, sum.Equal(orders[0].TotalPrice))
	for _, item := range orders[0].Items {
		require.NotNil(t, item.MenuItem)
		assert.False(t, domain.Subtotal(item).IsZero())
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollsBackMenuPriceWhenRepriceFails(t *testing.T) {
	db, mock := newMockDB(t)
	orders := NewOrderRepository(db, logger.Nop())
	menu := NewMenuRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `menu_items` (.+) FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(menuItemCols).AddRow(10, 3, "Pizza", "", "10.00", true, created))
	mock.ExpectExec("UPDATE `menu_items` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM `order_items` JOIN orders").WillReturnError(errors.New("lock wait timeout exceeded"))
	mock.ExpectRollback()

	err := orders.WithinTx(context.Background(), func(ctx context.Context) error {
		item, err := menu.FindForUpdate(ctx, 10)
		if err != nil {
			return err
		}
		item.Price = item.Price.Add(item.Price)
		if err := menu.Update(ctx, item); err != nil {
			return err
		}
		_, err = orders.OpenOrderIDsByMenuItem(ctx, item.ID)
		return err
	})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "the price update must not be committed")
}

func TestWithinTx_FailedItemRollsBackCreatedOrder(t *testing.T) {
	db, mock := newMockDB(t)
	orders := NewOrderRepository(db, logger.Nop())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `orders`").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("SAVEPOINT sp").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `orders` (.+) FOR UPDATE").WillReturnError(errors.New("lock wait timeout exceeded"))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT sp").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	order := &domain.Order{UserID: 7, RestaurantID: 3, Status: domain.StatusNew}
	err := orders.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := orders.Create(ctx, order); err != nil {
			return err
		}
		_, err := orders.AddItem(ctx, &domain.OrderItem{OrderID: order.ID, MenuItemID: 10, Quantity: 1})
		return err
	})

	require.Error(t, err)
	assert.Equal(t, uint64(7), order.ID)
	assert.NoError(t, mock.ExpectationsWereMet(), "the order insert must not be committed")
}
