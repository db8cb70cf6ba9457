package http

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/entiremind/backend/internal/audit"
	"github.com/entiremind/backend/internal/messaging/app"
	"github.com/entiremind/backend/internal/messaging/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockMessageRepository is a testify mock of domain.MessageRepository.
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) (uuid.UUID, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockMessageRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

// MockUserDirectory is a testify mock of domain.UserDirectory.
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) FindUserIDByPhone(ctx context.Context, phone string) (uuid.UUID, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func newTestRecorder(repo domain.MessageRepository, users domain.UserDirectory) *app.InboundRecorder {
	return app.NewInboundRecorder(repo, users, nil, testLogger())
}

// recordingAuditor captures audit calls without a database.
type recordingAuditor struct {
	calls []auditCall
}

type auditCall struct {
	userID     uuid.UUID
	action     audit.Action
	resourceID string
}

func (a *recordingAuditor) Log(ctx context.Context, userID uuid.UUID, action audit.Action, resourceType audit.ResourceType, resourceID string, metadata map[string]any) {
	a.calls = append(a.calls, auditCall{userID: userID, action: action, resourceID: resourceID})
}
