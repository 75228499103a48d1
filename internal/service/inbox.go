package service

import (
	"context"

	"NotifyHub/internal/domain"
	"github.com/wb-go/wbf/zlog"
)

// Inbox чтение и отметка уведомлений канала database.
type Inbox struct {
	store domain.DatabaseNotificationRepository
}

// NewInbox создает сервис поверх хранилища уведомлений.
func NewInbox(store domain.DatabaseNotificationRepository) *Inbox {
	return &Inbox{store: store}
}

// List уведомления получателя по фильтру прочтения.
func (s *Inbox) List(ctx context.Context, notifiable domain.Notifiable,
	filter domain.ReadFilter) ([]domain.DatabaseNotification, error) {
	if filter == "" {
		filter = domain.FilterAll
	}
	if !filter.IsValid() {
		zlog.Logger.Warn().Msgf("List: filter %q is invalid", filter)
		return nil, domain.ErrInvalidFilter
	}
	return s.store.ListFor(ctx, notifiable.NotifiableType(), notifiable.NotifiableID(), filter)
}

// MarkAsRead отмечает уведомление прочитанным.
func (s *Inbox) MarkAsRead(ctx context.Context, notifiable domain.Notifiable,
	id string) (*domain.DatabaseNotification, error) {
	return s.transition(ctx, notifiable, id, true)
}

// MarkAsUnread снимает отметку о прочтении.
func (s *Inbox) MarkAsUnread(ctx context.Context, notifiable domain.Notifiable,
	id string) (*domain.DatabaseNotification, error) {
	return s.transition(ctx, notifiable, id, false)
}

func (s *Inbox) transition(ctx context.Context, notifiable domain.Notifiable, id string,
	read bool) (*domain.DatabaseNotification, error) {
	nt, nid := notifiable.NotifiableType(), notifiable.NotifiableID()
	n, err := s.store.Get(ctx, nt, nid, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead() == read {
		return n, nil
	}

	if read {
		err = s.store.MarkAsRead(ctx, nt, nid, id)
	} else {
		err = s.store.MarkAsUnread(ctx, nt, nid, id)
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("id", id).Msg("failed to update notification read state")
		return nil, err
	}
	return s.store.Get(ctx, nt, nid, id)
}
