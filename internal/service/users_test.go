package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/service"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCache мок кеша Redis
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

// MockUserRepository мок хранилища пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func TestUserDirectory_CacheHit(t *testing.T) {
	repo := new(MockUserRepository)
	cache := new(MockCache)
	dir := service.NewUserDirectory(repo, cache, time.Minute)
	data, _ := json.Marshal(&domain.User{ID: 4, Email: "c@example.com"})
	cache.On("Get", mock.Anything, "user:4").Return(string(data), nil)

	u, err := dir.GetByID(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, "c@example.com", u.Email)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUserDirectory_CacheMiss(t *testing.T) {
	repo := new(MockUserRepository)
	cache := new(MockCache)
	dir := service.NewUserDirectory(repo, cache, time.Minute)
	user := &domain.User{ID: 4, Email: "c@example.com"}
	cache.On("Get", mock.Anything, "user:4").Return("", redis.Nil)
	repo.On("GetByID", mock.Anything, int64(4)).Return(user, nil)
	cache.On("SetWithExpiration", mock.Anything, "user:4", mock.Anything, time.Minute).Return(nil)

	u, err := dir.GetByID(context.Background(), 4)

	require.NoError(t, err)
	assert.Same(t, user, u)
	cache.AssertExpectations(t)
}

func TestUserDirectory_NotFound(t *testing.T) {
	repo := new(MockUserRepository)
	cache := new(MockCache)
	dir := service.NewUserDirectory(repo, cache, time.Minute)
	cache.On("Get", mock.Anything, "user:9").Return("", redis.Nil)
	repo.On("GetByID", mock.Anything, int64(9)).Return(nil, domain.ErrNotFound)

	_, err := dir.GetByID(context.Background(), 9)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	cache.AssertNotCalled(t, "SetWithExpiration", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserDirectory_CacheError(t *testing.T) {
	repo := new(MockUserRepository)
	cache := new(MockCache)
	dir := service.NewUserDirectory(repo, cache, time.Minute)
	cache.On("Get", mock.Anything, "user:4").Return("", errors.New("redis down"))

	_, err := dir.GetByID(context.Background(), 4)

	assert.EqualError(t, err, "redis down")
}
