package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dance-storefront/internal/event"
	"dance-storefront/internal/model"
)

type mockAuditStore struct {
	mock.Mock
}

func (m *mockAuditStore) Log(ctx context.Context, entry model.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockAuditStore) ListByUser(ctx context.Context, userID int, limit int) ([]model.AuditEntry, error) {
	args := m.Called(ctx, userID, limit)
	entries, _ := args.Get(0).([]model.AuditEntry)
	return entries, args.Error(1)
}

func TestRecordPersistsEntry(t *testing.T) {
	store := &mockAuditStore{}
	store.On("Log", mock.Anything, mock.MatchedBy(func(entry model.AuditEntry) bool {
		return entry.Action == "session.login" &&
			entry.UserID == 3 &&
			entry.Status == "success" &&
			entry.RequestID == "req-1" &&
			entry.OccurredAt.Year() == 2026
	})).Return(nil).Once()

	svc := NewAuditService(store)
	svc.Record(context.Background(), event.Event{
		ID:        "8c1f3c44-4d4e-4b8f-9a57-0b6d1f5d2c11",
		Type:      event.TypeSessionLogin,
		Timestamp: "2026-03-01T10:00:00Z",
		Payload:   event.Payload{UserID: 3, Username: "ana", Status: "success", RequestID: "req-1"},
	})

	store.AssertExpectations(t)
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	store := &mockAuditStore{}
	store.On("Log", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	svc := NewAuditService(store)
	require.NotPanics(t, func() {
		svc.Record(context.Background(), event.Event{Type: event.TypeSessionLogout})
	})
	store.AssertExpectations(t)
}

func TestRecordWithoutStoreOnlyLogs(t *testing.T) {
	svc := NewAuditService(nil)
	require.False(t, svc.Enabled())
	svc.Record(context.Background(), event.Event{Type: event.TypeSessionLogin})
	require.Empty(t, svc.Recent(context.Background(), 3, 5))
}

func TestRecent(t *testing.T) {
	store := &mockAuditStore{}
	store.On("ListByUser", mock.Anything, 3, 5).Return([]model.AuditEntry{{Action: "session.login"}}, nil).Once()
	store.On("ListByUser", mock.Anything, 4, 5).Return(nil, errors.New("timeout")).Once()

	svc := NewAuditService(store)
	require.Len(t, svc.Recent(context.Background(), 3, 5), 1)
	require.Empty(t, svc.Recent(context.Background(), 4, 5))
	require.Empty(t, svc.Recent(context.Background(), 0, 5))
	store.AssertExpectations(t)
}

func TestRunConsumesBus(t *testing.T) {
	store := &mockAuditStore{}
	done := make(chan struct{})
	var once sync.Once
	store.On("Log", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		once.Do(func() { close(done) })
	})

	bus := event.NewBus()
	svc := NewAuditService(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		close(started)
		svc.Run(ctx, bus)
	}()
	<-started

	require.Eventually(t, func() bool {
		bus.Publish(event.Event{Type: event.TypeSessionRegister, Payload: event.Payload{Status: "success"}})
		select {
		case <-done:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
