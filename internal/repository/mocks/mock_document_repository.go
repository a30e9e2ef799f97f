package mocks

import (
	"context"

	"docvault/internal/model"
	"docvault/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if f, ok := args.Get(0).(func(context.Context, *model.Document) *model.Document); ok {
		return f(ctx, doc), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *model.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) List(ctx context.Context, viewerID uuid.UUID, admin bool, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, viewerID, admin, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Document]), args.Error(1)
}

func (m *MockDocumentRepository) CreateVersion(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error) {
	args := m.Called(ctx, v)
	if f, ok := args.Get(0).(func(context.Context, *model.DocumentVersion) *model.DocumentVersion); ok {
		return f(ctx, v), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentRepository) FindVersionByID(ctx context.Context, id uuid.UUID) (*model.DocumentVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentRepository) FindVersionsByDocument(ctx context.Context, documentID uuid.UUID) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentRepository) DeleteVersion(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) AddAudit(ctx context.Context, documentID uuid.UUID, action model.AuditAction, actorID uuid.UUID, details map[string]string) error {
	args := m.Called(ctx, documentID, action, actorID, details)
	return args.Error(0)
}
