package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"

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

// fakeNATS is an in-memory stand-in for the broker client.
type fakeNATS struct {
	published    map[string][][]byte
	publishErr   error
	handlers     map[string]nats.MsgHandler
	subscribeErr error
}

func newFakeNATS() *fakeNATS {
	return &fakeNATS{
		published: make(map[string][][]byte),
		handlers:  make(map[string]nats.MsgHandler),
	}
}

func (f *fakeNATS) Publish(ctx context.Context, subject string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published[subject] = append(f.published[subject], data)
	return nil
}

func (f *fakeNATS) Subscribe(ctx context.Context, subject, queueGroup string, handler nats.MsgHandler) (*nats.Subscription, error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	f.handlers[subject] = handler
	return &nats.Subscription{}, nil
}

func (f *fakeNATS) Close() {}
