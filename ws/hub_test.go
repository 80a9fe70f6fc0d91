package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// fakeAuthorizer, üyelik kontrolünü in-memory map'lerle yapar.
type fakeAuthorizer struct {
	serverMembers  map[string]bool // "serverID/userID"
	channelMembers map[string]bool // "channelID/userID"
}

func (f *fakeAuthorizer) CanJoinServerRoom(_ context.Context, serverID, userID string) (bool, error) {
	return f.serverMembers[serverID+"/"+userID], nil
}

func (f *fakeAuthorizer) CanJoinChannelRoom(_ context.Context, channelID, userID string) (bool, error) {
	return f.channelMembers[channelID+"/"+userID], nil
}

// newTestClient, WebSocket bağlantısı olmayan bir client kurar —
// pump'lar çalışmadığı için send buffer'ı testte elle okunur.
func newTestClient(h *Hub, userID string, buffer int) *Client {
	return &Client{
		hub:    h,
		userID: userID,
		send:   make(chan []byte, buffer),
		rooms:  make(map[string]bool),
	}
}

// recvEvent, client'ın send buffer'ından bir event okur.
func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestJoinRoomAuthorization(t *testing.T) {
	auth := &fakeAuthorizer{
		serverMembers:  map[string]bool{"s1/u1": true},
		channelMembers: map[string]bool{"c1/u1": true},
	}
	h := NewHub(NewPresenceRegistry(), auth)
	client := newTestClient(h, "u1", 8)
	h.addClient(client)
	ctx := context.Background()

	if !h.JoinRoom(ctx, client, "server:s1") {
		t.Error("member should join the server room")
	}
	if h.JoinRoom(ctx, client, "server:s2") {
		t.Error("non-member should be denied")
	}
	if !h.JoinRoom(ctx, client, "channel:c1") {
		t.Error("member should join the channel room")
	}
	if h.JoinRoom(ctx, client, "channel:c2") {
		t.Error("non-member should be denied on channel room")
	}

	// user odaları talep edilemez, bozuk oda adları reddedilir
	if h.JoinRoom(ctx, client, "user:u2") {
		t.Error("user rooms must not be joinable on request")
	}
	if h.JoinRoom(ctx, client, "gecersiz") {
		t.Error("malformed room name should be rejected")
	}
}

func TestBroadcastReachesOnlyRoomMembers(t *testing.T) {
	auth := &fakeAuthorizer{serverMembers: map[string]bool{"s1/u1": true, "s1/u2": true}}
	h := NewHub(NewPresenceRegistry(), auth)

	joined := newTestClient(h, "u1", 8)
	outside := newTestClient(h, "u2", 8)
	h.addClient(joined)
	h.addClient(outside)

	if !h.JoinRoom(context.Background(), joined, "server:s1") {
		t.Fatal("JoinRoom failed")
	}

	h.BroadcastToServer("s1", Event{Op: OpMemberJoin})

	event := recvEvent(t, joined)
	if event.Op != OpMemberJoin {
		t.Errorf("event op = %q, want %q", event.Op, OpMemberJoin)
	}
	if event.Seq == 0 {
		t.Error("broadcast events must carry a sequence number")
	}

	select {
	case data := <-outside.send:
		t.Errorf("non-member received %s", data)
	default:
	}
}

func TestBroadcastSeqIncreases(t *testing.T) {
	auth := &fakeAuthorizer{serverMembers: map[string]bool{"s1/u1": true}}
	h := NewHub(NewPresenceRegistry(), auth)
	client := newTestClient(h, "u1", 8)
	h.addClient(client)
	h.JoinRoom(context.Background(), client, "server:s1")

	h.BroadcastToServer("s1", Event{Op: OpChannelCreate})
	h.BroadcastToServer("s1", Event{Op: OpChannelUpdate})

	first := recvEvent(t, client)
	second := recvEvent(t, client)
	if second.Seq <= first.Seq {
		t.Errorf("seq must increase: %d then %d", first.Seq, second.Seq)
	}
}

func TestBroadcastToUserUsesAutoJoinedRoom(t *testing.T) {
	h := NewHub(NewPresenceRegistry(), nil)
	client := newTestClient(h, "u1", 8)
	h.addClient(client)

	// addClient her bağlantıyı kendi user odasına alır — join gerekmez
	h.BroadcastToUser("u1", Event{Op: OpInviteReceived})

	event := recvEvent(t, client)
	if event.Op != OpInviteReceived {
		t.Errorf("event op = %q, want %q", event.Op, OpInviteReceived)
	}
}

func TestLastDisconnectClearsPresenceAndNotifiesRoom(t *testing.T) {
	auth := &fakeAuthorizer{serverMembers: map[string]bool{"s1/u1": true, "s1/u2": true}}
	h := NewHub(NewPresenceRegistry(), auth)

	leaving := newTestClient(h, "u1", 8)
	watcher := newTestClient(h, "u2", 8)
	h.addClient(leaving)
	h.addClient(watcher)
	h.JoinRoom(context.Background(), watcher, "server:s1")

	h.EnterPresence("s1", "u1")
	// watcher yeni presence sayısını aldı
	if event := recvEvent(t, watcher); event.Op != OpPresenceCount {
		t.Fatalf("event op = %q, want %q", event.Op, OpPresenceCount)
	}

	h.removeClient(leaving)

	if h.presence.IsOnline("s1", "u1") {
		t.Error("presence should be cleared on last disconnect")
	}

	// Oda önce offline bildirimi, sonra güncel sayıyı alır
	if event := recvEvent(t, watcher); event.Op != OpPresenceOffline {
		t.Errorf("first event op = %q, want %q", event.Op, OpPresenceOffline)
	}
	if event := recvEvent(t, watcher); event.Op != OpPresenceCount {
		t.Errorf("second event op = %q, want %q", event.Op, OpPresenceCount)
	}
}

func TestRemoveClientTwiceIsSafe(t *testing.T) {
	h := NewHub(NewPresenceRegistry(), nil)
	client := newTestClient(h, "u1", 8)
	h.addClient(client)

	h.removeClient(client)
	// İkinci çağrı — kapalı kanalı tekrar kapatmaya çalışmamalı
	h.removeClient(client)
}

// Eviction ile heartbeat cevabı yarışabilir: hub send channel'ı
// kapattıktan sonra gelen sendEvent kapalı channel'a yazıp panic
// etmemeli, sessizce düşmelidir.
func TestSendEventAfterRemoveDoesNotPanic(t *testing.T) {
	h := NewHub(NewPresenceRegistry(), nil)
	client := newTestClient(h, "u1", 8)
	h.addClient(client)

	h.removeClient(client)
	client.sendEvent(Event{Op: OpHeartbeatAck})

	if _, ok := <-client.send; ok {
		t.Error("no event should be delivered after the client is removed")
	}
}

func TestSendEventAfterShutdownDoesNotPanic(t *testing.T) {
	h := NewHub(NewPresenceRegistry(), nil)
	client := newTestClient(h, "u1", 8)
	h.addClient(client)

	h.Shutdown()
	client.sendEvent(Event{Op: OpHeartbeatAck})
}

func TestSlowClientIsEvicted(t *testing.T) {
	h := NewHub(NewPresenceRegistry(), nil)
	go h.Run()

	client := newTestClient(h, "u1", 1)
	h.register <- client

	waitFor(t, "client registration", func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.conns["u1"]) == 1
	})

	// Buffer'ı doldur — bir sonraki broadcast default branch'ine düşer
	client.send <- []byte("dolu")
	h.BroadcastToUser("u1", Event{Op: OpReady})

	waitFor(t, "slow client eviction", func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.conns["u1"]) == 0
	})
}

// waitFor, koşul sağlanana kadar kısa aralıklarla bekler.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
