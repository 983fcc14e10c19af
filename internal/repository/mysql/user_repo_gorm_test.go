package mysql

import (
	"context"
	"testing"

	"delivery-service/internal/domain"
	"delivery-service/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "username", "first_name", "last_name", "email", "phone", "address", "role", "created_at"}

func TestUserRepo_SearchIsCaseInsensitive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users` WHERE \\(?LOWER\\(first_name\\) LIKE \\? OR LOWER\\(last_name\\) LIKE \\?").
		WithArgs("%ann%", "%ann%").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE (.+) ORDER BY id").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(7, "ann", "Ann", "Lee", "", "+123456789", "", "client", created))

	users, total, err := repo.Search(context.Background(), "ANN", repository.Page{Number: 1, Size: 20})

	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "Ann", users[0].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_DeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `users`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), 42)

	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryRepo_SetStatusOfUndelivered(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeliveryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `deliveries` WHERE status <> \\? ORDER BY id FOR UPDATE").
		WithArgs("delivered").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "courier_id", "delivery_time", "status"}).
			AddRow(1, 10, 2, nil, "in_progress").
			AddRow(3, 12, 2, created, "in_progress"))
	mock.ExpectExec("UPDATE `deliveries` SET `status`=\\? WHERE id IN \\(\\?,\\?\\)").
		WithArgs("delivered", 1, 3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	changed, err := repo.SetStatusOfUndelivered(context.Background(), domain.DeliveryDelivered)

	require.NoError(t, err)
	require.Len(t, changed, 2)
	for _, d := range changed {
		assert.Equal(t, domain.DeliveryDelivered, d.Status)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryRepo_ListFiltersByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeliveryRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `deliveries` WHERE status = \\?").
		WithArgs("in_progress").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectQuery("SELECT \\* FROM `deliveries` WHERE status = \\? ORDER BY id DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "courier_id", "delivery_time", "status"}))

	out, total, err := repo.List(context.Background(), repository.DeliveryFilter{
		Status: domain.DeliveryInProgress,
		Page:   repository.Page{Number: 1, Size: 20},
	})

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}
