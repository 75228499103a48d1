package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"NotifyHub/internal/domain"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// NotificationStore хранилище канала database в PostgreSQL.
type NotificationStore struct {
	DB *dbpg.DB
}

// NewNotificationStore создает новый экземпляр NotificationStore.
func NewNotificationStore(db *dbpg.DB) *NotificationStore {
	return &NotificationStore{DB: db}
}

// Create сохраняет уведомление.
func (p *NotificationStore) Create(ctx context.Context, n *domain.DatabaseNotification) error {
	sqlQuery := `INSERT INTO notifications (id, type, notifiable_id, notifiable_type, data, read_at)
 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	data, err := json.Marshal(n.Data)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("Error marshalling notification data")
		return err
	}
	if err := p.DB.QueryRowContext(ctx, sqlQuery, n.ID, n.Type, n.NotifiableID, n.NotifiableType, data, n.ReadAt).
		Scan(&n.CreatedAt, &n.UpdatedAt); err != nil {
		zlog.Logger.Error().Err(err).Msg("Error inserting notification")
		return err
	}
	zlog.Logger.Debug().Msgf("Created notification id: %s type: %s for %s:%s",
		n.ID, n.Type, n.NotifiableType, n.NotifiableID)
	return nil
}

// Get возвращает уведомление получателя по id.
func (p *NotificationStore) Get(ctx context.Context, notifiableType, notifiableID,
	id string) (*domain.DatabaseNotification, error) {
	sqlQuery := `SELECT ` + notificationColumns + ` FROM notifications
	WHERE notifiable_type = $1 AND notifiable_id = $2 AND id = $3 LIMIT 1`

	n, err := scanNotification(p.DB.QueryRowContext(ctx, sqlQuery, notifiableType, notifiableID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		zlog.Logger.Error().Err(err).Msg("Error scan notification fields")
		return nil, err
	}
	return n, nil
}

// ListFor возвращает уведомления получателя, новые первыми.
func (p *NotificationStore) ListFor(ctx context.Context, notifiableType, notifiableID string,
	filter domain.ReadFilter) ([]domain.DatabaseNotification, error) {
	query, args, err := buildListSQL(notifiableType, notifiableID, filter)
	if err != nil {
		return nil, err
	}

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("Error exec list notifications sql")
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	result := make([]domain.DatabaseNotification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			zlog.Logger.Error().Err(err).Msg("Error scan list notifications sql")
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

// MarkAsRead отмечает уведомления прочитанными.
func (p *NotificationStore) MarkAsRead(ctx context.Context, notifiableType, notifiableID string, ids ...string) error {
	return p.setReadState(ctx, notifiableType, notifiableID, ids, true)
}

// MarkAsUnread снимает отметку о прочтении.
func (p *NotificationStore) MarkAsUnread(ctx context.Context, notifiableType, notifiableID string, ids ...string) error {
	return p.setReadState(ctx, notifiableType, notifiableID, ids, false)
}

func (p *NotificationStore) setReadState(ctx context.Context, notifiableType, notifiableID string,
	ids []string, read bool) error {
	query, args, err := buildReadStateSQL(notifiableType, notifiableID, ids, read)
	if err != nil {
		return err
	}
	result, err := p.DB.ExecContext(ctx, query, args...)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("Error exec read state sql")
		return err
	}
	rowAffected, _ := result.RowsAffected()
	if rowAffected == 0 {
		zlog.Logger.Warn().Msgf("Read state for %v: no rows affected", ids)
		return domain.ErrNoRowAffected
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row rowScanner) (*domain.DatabaseNotification, error) {
	var n domain.DatabaseNotification
	var data []byte
	var readAt sql.NullTime
	if err := row.Scan(&n.ID, &n.Type, &n.NotifiableID, &n.NotifiableType, &data, &readAt,
		&n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			zlog.Logger.Error().Err(err).Msg("Error unmarshalling notification data")
			return nil, err
		}
	}
	return &n, nil
}
