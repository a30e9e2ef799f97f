package mocks

import (
	"context"

	"docvault/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) Grant(ctx context.Context, g *model.Permission) (*model.Permission, error) {
	args := m.Called(ctx, g)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Permission), args.Error(1)
}

func (m *MockPermissionRepository) Revoke(ctx context.Context, documentID, userID uuid.UUID, cap model.Capability) (bool, error) {
	args := m.Called(ctx, documentID, userID, cap)
	return args.Bool(0), args.Error(1)
}

func (m *MockPermissionRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]model.Permission, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Permission), args.Error(1)
}

type MockMetadataRepository struct {
	mock.Mock
}

func (m *MockMetadataRepository) Upsert(ctx context.Context, e *model.MetadataEntry) (bool, error) {
	args := m.Called(ctx, e)
	return args.Bool(0), args.Error(1)
}

func (m *MockMetadataRepository) Delete(ctx context.Context, documentID uuid.UUID, key string) (bool, error) {
	args := m.Called(ctx, documentID, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockMetadataRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]model.MetadataEntry, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MetadataEntry), args.Error(1)
}
