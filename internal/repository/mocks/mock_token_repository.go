package mocks

import (
	"context"
	"time"

	"docvault/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, t *model.DownloadToken) (*model.DownloadToken, error) {
	args := m.Called(ctx, t)
	if f, ok := args.Get(0).(func(context.Context, *model.DownloadToken) *model.DownloadToken); ok {
		return f(ctx, t), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DownloadToken), args.Error(1)
}

func (m *MockTokenRepository) FindByToken(ctx context.Context, value string) (*model.DownloadToken, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DownloadToken), args.Error(1)
}

func (m *MockTokenRepository) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, usedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
