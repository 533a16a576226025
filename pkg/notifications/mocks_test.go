package notifications

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"
)

// MockEmailTransport is a mock implementation of EmailTransport.
type MockEmailTransport struct {
	mock.Mock
}

func (m *MockEmailTransport) SendGeneric(ctx context.Context, to, subject, body string) (Outcome, error) {
	args := m.Called(ctx, to, subject, body)
	return args.Get(0).(Outcome), args.Error(1)
}

func (m *MockEmailTransport) SendBillReminder(ctx context.Context, to, name string, bill BillReminder) (Outcome, error) {
	args := m.Called(ctx, to, name, bill)
	return args.Get(0).(Outcome), args.Error(1)
}

func (m *MockEmailTransport) SendMotivational(ctx context.Context, to, name string, achievement Achievement) (Outcome, error) {
	args := m.Called(ctx, to, name, achievement)
	return args.Get(0).(Outcome), args.Error(1)
}

// MockSMSTransport is a mock implementation of SMSTransport.
type MockSMSTransport struct {
	mock.Mock
}

func (m *MockSMSTransport) Send(ctx context.Context, to, message string) (SMSOutcome, error) {
	args := m.Called(ctx, to, message)
	return args.Get(0).(SMSOutcome), args.Error(1)
}

// MockPushTransport is a mock implementation of PushTransport.
type MockPushTransport struct {
	mock.Mock
}

func (m *MockPushTransport) Send(ctx context.Context, sub PushSubscription, payload PushPayload) (Outcome, error) {
	args := m.Called(ctx, sub, payload)
	return args.Get(0).(Outcome), args.Error(1)
}

// MockDirectory is a mock implementation of UserDirectory.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) FindUser(ctx context.Context, id string) (*Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Contact), args.Error(1)
}

// MockInAppPublisher is a mock implementation of InAppPublisher.
type MockInAppPublisher struct {
	mock.Mock
}

func (m *MockInAppPublisher) Publish(ctx context.Context, rec Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// failingStorage wraps MemoryStorage and fails selected operations.
type failingStorage struct {
	*MemoryStorage
	createErr error
	updateErr error
}

func (s *failingStorage) Create(ctx context.Context, rec Record) (Record, error) {
	if s.createErr != nil {
		return Record{}, s.createErr
	}
	return s.MemoryStorage.Create(ctx, rec)
}

func (s *failingStorage) UpdateMany(ctx context.Context, filter Filter, changes Changes) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.MemoryStorage.UpdateMany(ctx, filter, changes)
}

var errBoom = errors.New("boom")

func fullContact() *Contact {
	return &Contact{
		Email:            "jane@example.com",
		Phone:            "+15550001",
		DisplayName:      "Jane",
		PushSubscription: &PushSubscription{Endpoint: "https://push.example.com/abc"},
	}
}
