package ws

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"sync/atomic"
)

// EventPublisher, service katmanının WebSocket event'leri broadcast etmek
// için kullandığı interface.
//
// Dependency Inversion: service'ler Hub'ın concrete struct'ına değil bu
// interface'e bağımlıdır — testlerde mock publisher kullanılır.
//
// Sözleşme: bu metodlar hata döndürmez ve bloklamaz. Broadcast en iyi
// çabadır; bir event'in iletilememesi çağıran mutasyonu etkilemez.
type EventPublisher interface {
	BroadcastToServer(serverID string, event Event)
	BroadcastToChannel(channelID string, event Event)
	BroadcastToUser(userID string, event Event)
}

// RoomAuthorizer, client'ın bir odaya abone olma yetkisini kontrol eder.
//
// ws paketi services'a bağımlı olamaz (services → ws yönü zaten var);
// bu küçük interface main.go'da repository üzerinden karşılanır.
type RoomAuthorizer interface {
	CanJoinServerRoom(ctx context.Context, serverID, userID string) (bool, error)
	CanJoinChannelRoom(ctx context.Context, channelID, userID string) (bool, error)
}

// Oda isimleri "<tür>:<id>" formatındadır. Service katmanı oda adını
// kurmaz; BroadcastToServer/Channel/User doğru odayı kendisi seçer.
func serverRoom(serverID string) string   { return "server:" + serverID }
func channelRoom(channelID string) string { return "channel:" + channelID }
func userRoom(userID string) string       { return "user:" + userID }

// Hub, tüm WebSocket bağlantılarını ve oda aboneliklerini yöneten
// merkezi yapıdır.
//
// Her client bağlanır bağlanmaz kendi "user:<id>" odasına alınır —
// davet bildirimleri ve sunucu listesi değişiklikleri buradan gider.
// Sunucu/kanal odalarına abonelik client'ın room_join isteğiyle olur
// ve RoomAuthorizer'dan geçer.
type Hub struct {
	// rooms: oda adı → o odaya abone client set'i.
	rooms map[string]map[*Client]bool

	// conns: userID → o kullanıcının açık bağlantıları
	// (bir kullanıcının birden fazla tab'ı olabilir).
	conns map[string]map[*Client]bool

	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client

	// seq: her outbound event'e verilen artan sayaç.
	// atomic.Int64 — birden fazla goroutine güvenle artırır.
	seq atomic.Int64

	presence   *PresenceRegistry
	authorizer RoomAuthorizer
}

// NewHub, yeni bir Hub oluşturur.
//
// presence nil olamaz; authorizer nil ise oda abonelikleri yetki
// kontrolü olmadan kabul edilir (testler için).
func NewHub(presence *PresenceRegistry, authorizer RoomAuthorizer) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		conns:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		presence:   presence,
		authorizer: authorizer,
	}
}

// Presence, hub'ın presence registry'sini döner.
func (h *Hub) Presence() *PresenceRegistry {
	return h.presence
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[client.userID]; !ok {
		h.conns[client.userID] = make(map[*Client]bool)
	}
	h.conns[client.userID][client] = true

	// Her bağlantı otomatik olarak kendi user odasına girer
	h.joinRoomLocked(client, userRoom(client.userID))

	log.Printf("[ws] client connected: user=%s (connections: %d)",
		client.userID, len(h.conns[client.userID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()

	conns, ok := h.conns[client.userID]
	if !ok || !conns[client] {
		h.mu.Unlock()
		return
	}

	delete(conns, client)
	client.closed = true
	close(client.send)

	for room := range client.rooms {
		h.leaveRoomLocked(client, room)
	}

	lastConn := len(conns) == 0
	if lastConn {
		delete(h.conns, client.userID)
	}
	h.mu.Unlock()

	// Kullanıcının son bağlantısıysa girdiği tüm sunucuların presence
	// kaydı düşürülür ve ilgili odalara bildirilir. Mutex dışında yapılır —
	// broadcast tekrar RLock alır.
	if lastConn {
		for _, serverID := range h.presence.LeaveAll(client.userID) {
			h.BroadcastToServer(serverID, Event{
				Op:   OpPresenceOffline,
				Data: PresenceOfflineData{ServerID: serverID, UserID: client.userID},
			})
			h.broadcastPresenceCount(serverID)
		}
		log.Printf("[ws] user fully disconnected: %s", client.userID)
	}
}

// joinRoomLocked / leaveRoomLocked — caller h.mu'yu tutmalıdır.
func (h *Hub) joinRoomLocked(client *Client, room string) {
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.rooms[room] = true
}

func (h *Hub) leaveRoomLocked(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// JoinRoom, client'ı yetki kontrolünden geçirip odaya abone eder.
// Oda adı "server:<id>" veya "channel:<id>" olmalıdır; user odaları
// client tarafından talep edilemez.
func (h *Hub) JoinRoom(ctx context.Context, client *Client, room string) bool {
	kind, id, ok := strings.Cut(room, ":")
	if !ok || id == "" {
		return false
	}

	if h.authorizer != nil {
		var allowed bool
		var err error

		switch kind {
		case "server":
			allowed, err = h.authorizer.CanJoinServerRoom(ctx, id, client.userID)
		case "channel":
			allowed, err = h.authorizer.CanJoinChannelRoom(ctx, id, client.userID)
		default:
			return false
		}

		if err != nil {
			log.Printf("[ws] room authorization failed for user %s room %s: %v", client.userID, room, err)
			return false
		}
		if !allowed {
			return false
		}
	} else if kind != "server" && kind != "channel" {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinRoomLocked(client, room)
	return true
}

// LeaveRoom, client'ın oda aboneliğini bırakır.
func (h *Hub) LeaveRoom(client *Client, room string) {
	if strings.HasPrefix(room, "user:") {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveRoomLocked(client, room)
}

// BroadcastToServer, sunucu odasındaki tüm client'lara event gönderir.
func (h *Hub) BroadcastToServer(serverID string, event Event) {
	h.broadcastToRoom(serverRoom(serverID), event)
}

// BroadcastToChannel, kanal odasındaki tüm client'lara event gönderir.
func (h *Hub) BroadcastToChannel(channelID string, event Event) {
	h.broadcastToRoom(channelRoom(channelID), event)
}

// BroadcastToUser, kullanıcının tüm bağlantılarına event gönderir.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	h.broadcastToRoom(userRoom(userID), event)
}

func (h *Hub) broadcastToRoom(room string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event %s: %v", event.Op, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		select {
		case client.send <- data:
		default:
			// Buffer dolu — bu client yavaş; event düşer, bağlantı kapatılır.
			// At-most-once teslimat: yavaş tüketici asla broadcast'i bloklamaz.
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// EnterPresence, kullanıcıyı sunucunun presence kümesine ekler ve
// odaya yeni sayıyı yayınlar.
func (h *Hub) EnterPresence(serverID, userID string) {
	if h.presence.Enter(serverID, userID) {
		h.broadcastPresenceCount(serverID)
	}
}

// LeavePresence, kullanıcıyı sunucunun presence kümesinden düşürür.
func (h *Hub) LeavePresence(serverID, userID string) {
	if h.presence.Leave(serverID, userID) {
		h.broadcastPresenceCount(serverID)
	}
}

func (h *Hub) broadcastPresenceCount(serverID string) {
	userIDs := h.presence.OnlineUserIDs(serverID)
	h.BroadcastToServer(serverID, Event{
		Op: OpPresenceCount,
		Data: PresenceCountData{
			ServerID: serverID,
			Count:    len(userIDs),
			UserIDs:  userIDs,
		},
	})
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.conns {
		for client := range conns {
			client.closed = true
			close(client.send)
		}
	}
	h.conns = make(map[string]map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}
