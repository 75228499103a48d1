package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"NotifyHub/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/wb-go/wbf/zlog"
)

const userKeyPrefix = "user:"

// UserDirectory поиск получателей-пользователей с кешированием в Redis.
type UserDirectory struct {
	repo  domain.UserRepository
	cache domain.Cache
	ttl   time.Duration
}

// NewUserDirectory создает каталог пользователей.
func NewUserDirectory(repo domain.UserRepository, cache domain.Cache, ttl time.Duration) *UserDirectory {
	return &UserDirectory{repo: repo, cache: cache, ttl: ttl}
}

// GetByID возвращает пользователя из кеша или из базы.
func (s *UserDirectory) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	key := userKeyPrefix + strconv.FormatInt(id, 10)
	cached, err := s.cache.Get(ctx, key)
	if err != nil && !errors.Is(err, redis.Nil) {
		zlog.Logger.Error().Err(err).Int64("user_id", id).Msg("failed to fetch user from cache")
		return nil, err
	}

	if err == nil {
		var u domain.User
		if err := json.Unmarshal([]byte(cached), &u); err == nil {
			return &u, nil
		}
		zlog.Logger.Warn().Int64("user_id", id).Msg("broken user cache entry, fetch from database")
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			zlog.Logger.Warn().Msgf("user (id = %d) not found", id)
		}
		return nil, err
	}

	data, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetWithExpiration(ctx, key, data, s.ttl); err != nil {
		zlog.Logger.Error().Err(err).Int64("user_id", id).Msg("failed to cache user")
	}
	return u, nil
}
