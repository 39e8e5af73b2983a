package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishFillsIDAndTimestamp(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.Publish(Event{Type: TypeSessionLogin, Payload: Payload{Username: "ana", Status: "success"}})

	got := <-ch
	require.Equal(t, TypeSessionLogin, got.Type)
	require.NotEmpty(t, got.ID)
	require.NotEmpty(t, got.Timestamp)
	require.Equal(t, "ana", got.Payload.Username)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	unsubscribe()
	unsubscribe()

	_, open := <-ch
	require.False(t, open)

	bus.Publish(Event{Type: TypeSessionLogout})
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := NewBus()
	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Type: TypeSessionRejected})
	}
}
