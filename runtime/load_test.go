package runtime_test

import (
	"chat-hub/domain"
	"chat-hub/mocks"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRoomRegistry_LoadTest(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Mocked storage so the disk does not bound the throughput
	ctrl := gomock.NewController(t)
	rooms := mocks.NewMockIRoomRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	memberships := mocks.NewMockIRoomMembershipRepository(ctrl)
	rooms.EXPECT().RoomExists(gomock.Any()).Return(false, nil).AnyTimes()
	rooms.EXPECT().CreateRoom(gomock.Any()).DoAndReturn(func(r domain.Room) (domain.Room, error) { return r, nil })
	memberships.EXPECT().CreateMembership(gomock.Any()).
		DoAndReturn(func(m domain.RoomMembership) (domain.RoomMembership, error) { return m, nil })
	users.EXPECT().CreateUser(gomock.Any()).DoAndReturn(func(u domain.User) (domain.User, error) { return u, nil }).AnyTimes()
	messages.EXPECT().AddMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ domain.RoomID, m domain.Message) (domain.Message, error) {
			time.Sleep(50 * time.Microsecond)
			return m, nil
		}).AnyTimes()

	log := slog.New(slog.DiscardHandler)
	bus := runtime.NewOutputBus(1 << 12)
	defer bus.Close()
	sub := bus.Subscribe()
	defer sub.Unsubscribe()
	repos := repositories.Repositories{Rooms: rooms, Users: users, Messages: messages, Memberships: memberships}
	registry := runtime.NewRoomRegistry(log, bus, repos, runtime.HubOptions{}, 1000)

	numClients := 50
	messagesPerClient := 40
	clients := make([]uuid.UUID, numClients)
	host := uuid.New()
	registry.Dispatch(domain.NewCommandEnvelope(host, "load", domain.CreateRoom{Title: "load", HostID: host, HostName: "host", DeleteKey: "load"}))
	for i := range clients {
		clients[i] = uuid.New()
		registry.Dispatch(domain.NewCommandEnvelope(clients[i], "load",
			domain.JoinRoom{ClientID: clients[i], Name: fmt.Sprintf("user-%d", i)}))
	}
	hub, ok := registry.Hub("load")
	req.True(ok)
	req.Len(hub.Members(), numClients+1)

	go func() { _ = registry.Run(ctx) }()

	// 2. Traffic
	var successCount, failureCount atomic.Uint64
	start := time.Now()
	var wg sync.WaitGroup
	for _, clientID := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range messagesPerClient {
				submitCtx, cancelSubmit := context.WithTimeout(ctx, time.Second)
				err := registry.Submit(submitCtx, domain.NewCommandEnvelope(clientID, "load",
					domain.PostMessage{ClientID: clientID, Body: fmt.Sprintf("load message %d", j)}))
				cancelSubmit()
				if err != nil {
					failureCount.Add(1)
				} else {
					successCount.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	// 3. Every accepted post lands in the feed, in order
	req.Eventually(func() bool {
		return uint64(len(hub.Messages())) == successCount.Load()
	}, 10*time.Second, 10*time.Millisecond)
	duration := time.Since(start)
	feed := hub.Messages()
	for i := 1; i < len(feed); i++ {
		req.False(feed[i].CreatedAt.Before(feed[i-1].CreatedAt))
	}

	t.Logf("--- STRESS TEST ---")
	t.Logf("Duration : %v", duration)
	t.Logf("Posted   : %d", successCount.Load())
	t.Logf("Rejected : %d (backpressure)", failureCount.Load())
	t.Logf("Rate     : %.2f msg/sec", float64(successCount.Load())/duration.Seconds())
}
