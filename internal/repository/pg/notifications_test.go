package pg_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/repository/pg"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/dbpg"
)

var notificationRows = []string{"id", "type", "notifiable_id", "notifiable_type", "data", "read_at",
	"created_at", "updated_at"}

func newStore(t *testing.T) (*pg.NotificationStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return pg.NewNotificationStore(&dbpg.DB{Master: db}), mock
}

func TestNotificationStore_Create_Success(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs("nid-1", "announcement", "7", "users", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	n := &domain.DatabaseNotification{
		ID:             "nid-1",
		Type:           "announcement",
		NotifiableID:   "7",
		NotifiableType: "users",
		Data:           map[string]interface{}{"message": "hi"},
	}
	err := store.Create(context.Background(), n)

	assert.NoError(t, err)
	assert.Equal(t, now, n.CreatedAt)
	assert.Equal(t, now, n.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_Get_Success(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, type, notifiable_id, notifiable_type, data, read_at, created_at, updated_at`).
		WithArgs("users", "7", "nid-1").
		WillReturnRows(sqlmock.NewRows(notificationRows).
			AddRow("nid-1", "announcement", "7", "users", []byte(`{"message":"hi"}`), now, now, now))

	n, err := store.Get(context.Background(), "users", "7", "nid-1")

	require.NoError(t, err)
	assert.Equal(t, "nid-1", n.ID)
	assert.Equal(t, "hi", n.Data["message"])
	assert.True(t, n.IsRead())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_Get_NotFound(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(`SELECT id, type`).
		WithArgs("users", "7", "missing").
		WillReturnError(sql.ErrNoRows)

	n, err := store.Get(context.Background(), "users", "7", "missing")

	assert.Nil(t, n)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotificationStore_ListFor_Unread(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now()

	mock.ExpectQuery(`FROM notifications WHERE notifiable_type = \$1 AND notifiable_id = \$2 AND read_at IS NULL ORDER BY created_at DESC`).
		WithArgs("users", "7").
		WillReturnRows(sqlmock.NewRows(notificationRows).
			AddRow("b", "welcome", "7", "users", []byte(`{}`), nil, now, now).
			AddRow("a", "announcement", "7", "users", []byte(`{"message":"hi"}`), nil, now.Add(-time.Minute), now))

	list, err := store.ListFor(context.Background(), "users", "7", domain.FilterUnread)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.True(t, list[1].IsUnread())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_ListFor_InvalidFilter(t *testing.T) {
	store, _ := newStore(t)

	list, err := store.ListFor(context.Background(), "users", "7", domain.ReadFilter("archived"))

	assert.Nil(t, list)
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestNotificationStore_MarkAsRead(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(`UPDATE notifications SET read_at = NOW\(\), updated_at = NOW\(\)`).
		WithArgs("users", "7", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := store.MarkAsRead(context.Background(), "users", "7", "a", "b")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationStore_MarkAsUnread_NoRows(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(`UPDATE notifications SET read_at = NULL`).
		WithArgs("users", "7", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MarkAsUnread(context.Background(), "users", "7", "a")

	assert.ErrorIs(t, err, domain.ErrNoRowAffected)
}

func TestNotificationStore_MarkAsRead_NoIDs(t *testing.T) {
	store, _ := newStore(t)

	err := store.MarkAsRead(context.Background(), "users", "7")

	assert.Error(t, err)
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := pg.NewUserRepo(&dbpg.DB{Master: db})
	now := time.Now()

	mock.ExpectQuery(`SELECT id, name, email, phone, slack_webhook, created_at FROM users`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "slack_webhook", "created_at"}).
			AddRow(int64(7), "Ann", "ann@example.com", nil, "https://hooks.slack.com/services/x", now))

	u, err := repo.GetByID(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Empty(t, u.Phone)
	assert.Equal(t, "https://hooks.slack.com/services/x", u.SlackWebhook)
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := pg.NewUserRepo(&dbpg.DB{Master: db})

	mock.ExpectQuery(`FROM users`).WithArgs(int64(8)).WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByID(context.Background(), 8)

	assert.Nil(t, u)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
