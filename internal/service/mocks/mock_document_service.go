package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docvault/internal/access"
	"docvault/internal/model"
	"docvault/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, actor access.Identity, in service.UploadInput) (*model.Document, *model.DocumentVersion, error) {
	args := m.Called(ctx, actor, in)
	var doc *model.Document
	var v *model.DocumentVersion
	if args.Get(0) != nil {
		doc = args.Get(0).(*model.Document)
	}
	if args.Get(1) != nil {
		v = args.Get(1).(*model.DocumentVersion)
	}
	return doc, v, args.Error(2)
}

func (m *MockDocumentService) Get(ctx context.Context, actor access.Identity, id uuid.UUID) (*model.Document, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, actor access.Identity, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, actor access.Identity, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockDocumentService) Versions(ctx context.Context, actor access.Identity, documentID uuid.UUID) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, actor, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentService) DeleteVersion(ctx context.Context, actor access.Identity, documentID, versionID uuid.UUID) error {
	args := m.Called(ctx, actor, documentID, versionID)
	return args.Error(0)
}
