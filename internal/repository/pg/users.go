package pg

import (
	"context"
	"database/sql"
	"errors"

	"NotifyHub/internal/domain"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// UserRepo пользователи-получатели в PostgreSQL.
type UserRepo struct {
	DB *dbpg.DB
}

func NewUserRepo(db *dbpg.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// GetByID получает пользователя по ID.
func (p *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	sqlQuery := `SELECT id, name, email, phone, slack_webhook, created_at FROM users WHERE id = $1 LIMIT 1`

	var u domain.User
	var phone, webhook sql.NullString
	if err := p.DB.QueryRowContext(ctx, sqlQuery, id).Scan(&u.ID, &u.Name, &u.Email, &phone, &webhook,
		&u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		zlog.Logger.Error().Err(err).Msg("Error scan user fields")
		return nil, err
	}
	u.Phone = phone.String
	u.SlackWebhook = webhook.String
	return &u, nil
}
