package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docvault/internal/access"
	"docvault/internal/model"
	"docvault/internal/service"
)

type MockShareService struct {
	mock.Mock
}

func (m *MockShareService) Issue(ctx context.Context, actor access.Identity, documentID uuid.UUID, in service.IssueInput) (*model.DownloadToken, error) {
	args := m.Called(ctx, actor, documentID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DownloadToken), args.Error(1)
}

func (m *MockShareService) Validate(ctx context.Context, value string) (*service.LinkValidation, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LinkValidation), args.Error(1)
}

func (m *MockShareService) Consume(ctx context.Context, value string) (*service.DownloadResult, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadResult), args.Error(1)
}

func (m *MockShareService) DeleteExpired(ctx context.Context, actor access.Identity) (int64, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(int64), args.Error(1)
}
