package services

// Test altyapısı: her test gerçek bir SQLite dosyası üzerinde çalışır
// (modernc.org/sqlite pure-Go olduğu için CGo gerekmez). Broadcast'ler
// sahte bir EventPublisher ile kaydedilir — service katmanının hangi
// odaya hangi event'i gönderdiği doğrulanabilir.

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/seyhanc/kumru/database"
	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/repository"
	"github.com/seyhanc/kumru/ws"
)

// recordedEvent, fakeHub'ın kaydettiği tek bir broadcast.
type recordedEvent struct {
	Room  string
	Event ws.Event
}

// fakeHub, ws.EventPublisher'ın test implementasyonu.
// Gerçek Hub gibi hata döndürmez ve bloklamaz; sadece kaydeder.
type fakeHub struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeHub) record(room string, event ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Room: room, Event: event})
}

func (f *fakeHub) BroadcastToServer(serverID string, event ws.Event) {
	f.record("server:"+serverID, event)
}

func (f *fakeHub) BroadcastToChannel(channelID string, event ws.Event) {
	f.record("channel:"+channelID, event)
}

func (f *fakeHub) BroadcastToUser(userID string, event ws.Event) {
	f.record("user:"+userID, event)
}

// opsForRoom, belirtilen odaya gönderilen event op'larını sırayla döner.
func (f *fakeHub) opsForRoom(room string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ops []string
	for _, e := range f.events {
		if e.Room == room {
			ops = append(ops, e.Event.Op)
		}
	}
	return ops
}

// hasOp, op'un belirtilen odaya yayınlanıp yayınlanmadığını döner.
func (f *fakeHub) hasOp(room, op string) bool {
	for _, o := range f.opsForRoom(room) {
		if o == op {
			return true
		}
	}
	return false
}

func (f *fakeHub) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

// testEnv, bir testin ihtiyaç duyduğu tüm katmanları bir arada tutar.
type testEnv struct {
	db  *database.DB
	hub *fakeHub

	users    repository.UserRepository
	servers  repository.ServerRepository
	channels repository.ChannelRepository
	messages repository.MessageRepository
	invites  repository.InvitationRepository

	auth       AuthService
	cascade    CascadeService
	server     ServerService
	channel    ChannelService
	message    MessageService
	invitation InvitationService
}

// newTestEnv, geçici bir SQLite dosyası üzerinde tam service stack'i kurar.
// store ve email sender nil'dir — dosya/email yolları ayrıca test edilmez.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "kumru_test.db"), database.EmbeddedMigrations)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hub := &fakeHub{}

	users := repository.NewSQLiteUserRepo(db.Conn)
	servers := repository.NewSQLiteServerRepo(db.Conn)
	channels := repository.NewSQLiteChannelRepo(db.Conn)
	messages := repository.NewSQLiteMessageRepo(db.Conn)
	invites := repository.NewSQLiteInvitationRepo(db.Conn)
	sessions := repository.NewSQLiteSessionRepo(db.Conn)

	cascade := NewCascadeService(db.Conn, servers, channels, messages, invites, nil)

	return &testEnv{
		db:         db,
		hub:        hub,
		users:      users,
		servers:    servers,
		channels:   channels,
		messages:   messages,
		invites:    invites,
		auth:       NewAuthService(users, sessions, "test-secret-key", 15, 7),
		cascade:    cascade,
		server:     NewServerService(db.Conn, servers, channels, users, cascade, nil, hub),
		channel:    NewChannelService(channels, servers, cascade, hub),
		message:    NewMessageService(messages, channels, servers, nil, hub),
		invitation: NewInvitationService(invites, servers, users, nil, hub),
	}
}

// seedUser, DB'ye doğrudan bir kullanıcı yazar (auth akışını atlayarak).
func (e *testEnv) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return user
}

// seedServer, verilen kullanıcının owner olduğu bir sunucu oluşturur.
func (e *testEnv) seedServer(t *testing.T, ownerID, name string) *models.Server {
	t.Helper()
	server, err := e.server.CreateServer(context.Background(), ownerID, &models.CreateServerRequest{Name: name}, nil)
	if err != nil {
		t.Fatalf("failed to seed server %s: %v", name, err)
	}
	return server
}
