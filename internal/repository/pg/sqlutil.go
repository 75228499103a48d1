package pg

import (
	"fmt"
	"strings"

	"NotifyHub/internal/domain"
	"github.com/lib/pq"
)

const notificationColumns = `id, type, notifiable_id, notifiable_type, data, read_at, created_at, updated_at`

// buildListSQL строит выборку уведомлений получателя с фильтром прочтения.
func buildListSQL(notifiableType, notifiableID string, filter domain.ReadFilter) (string, []interface{}, error) {
	where := []string{"notifiable_type = $1", "notifiable_id = $2"}
	args := []interface{}{notifiableType, notifiableID}

	switch filter {
	case domain.FilterAll, "":
	case domain.FilterRead:
		where = append(where, "read_at IS NOT NULL")
	case domain.FilterUnread:
		where = append(where, "read_at IS NULL")
	default:
		return "", nil, fmt.Errorf("%w: %s", domain.ErrInvalidFilter, filter)
	}

	query := fmt.Sprintf("SELECT %s FROM notifications WHERE %s ORDER BY created_at DESC",
		notificationColumns, strings.Join(where, " AND ")) //nolint:gosec
	return query, args, nil
}

// buildReadStateSQL строит обновление отметки о прочтении для набора id.
func buildReadStateSQL(notifiableType, notifiableID string, ids []string, read bool) (string, []interface{}, error) {
	if len(ids) == 0 {
		return "", nil, fmt.Errorf("no notification ids provided")
	}
	set := "read_at = NULL"
	if read {
		set = "read_at = NOW()"
	}
	query := fmt.Sprintf(`UPDATE notifications SET %s, updated_at = NOW()
	WHERE notifiable_type = $1 AND notifiable_id = $2 AND id = ANY($3)`, set)
	return query, []interface{}{notifiableType, notifiableID, pq.Array(ids)}, nil
}
