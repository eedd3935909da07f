package realtime

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

func startHub(t *testing.T, buffer int) *Hub {
	t.Helper()
	hub := NewHub(config.RealtimeConfig{
		WriteTimeout:   time.Second,
		PingInterval:   time.Minute,
		SendBufferSize: buffer,
	}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-client.Messages():
		require.True(t, ok, "channel closed before message arrived")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
		return Message{}
	}
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub := startHub(t, 4)
	first := hub.Subscribe()
	second := hub.Subscribe()

	hub.Broadcast(Message{Table: enums.TableRacks, Action: enums.ChangeUpdate})

	for _, client := range []*Client{first, second} {
		msg := receive(t, client)
		require.Equal(t, enums.TableRacks, msg.Table)
		require.Equal(t, enums.ChangeUpdate, msg.Action)
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := startHub(t, 4)
	client := hub.Subscribe()
	hub.Unsubscribe(client)

	select {
	case _, ok := <-client.Messages():
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel was not closed")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startHub(t, 1)
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	// First message fills the slow client's buffer, the second overflows it.
	hub.Broadcast(Message{Table: enums.TablePlacements, Action: enums.ChangeInsert})
	receive(t, fast)
	hub.Broadcast(Message{Table: enums.TablePlacements, Action: enums.ChangeDelete})
	receive(t, fast)

	// The slow client still holds the first message, then its channel closes.
	msg := receive(t, slow)
	require.Equal(t, enums.ChangeInsert, msg.Action)
	select {
	case _, ok := <-slow.Messages():
		require.False(t, ok, "slow client should have been dropped")
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was not dropped")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(config.RealtimeConfig{SendBufferSize: 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	client := hub.Subscribe()
	cancel()
	<-done

	select {
	case _, ok := <-client.Messages():
		require.False(t, ok)
	default:
		t.Fatal("client channel should be closed after shutdown")
	}

	// Post-shutdown calls must not block.
	hub.Broadcast(Message{Table: enums.TableUsers, Action: enums.ChangeUpdate})
	hub.Unsubscribe(client)
	late := hub.Subscribe()
	_, ok := <-late.Messages()
	require.False(t, ok)
}
