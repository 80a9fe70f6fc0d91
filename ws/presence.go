package ws

import "sync"

// PresenceRegistry, sunucu başına çevrimiçi kullanıcı kümesini tutar.
//
// Kayıt tamamen in-memory'dir ve bağlantı yaşam döngüsüne bağlıdır:
// kalıcı hiçbir şey yazılmaz, sunucu yeniden başlayınca boş başlar.
// Hub'a enjekte edilir — testler registry'yi tek başına kurabilir.
//
// Tüm erişim tek mutex'ten geçer; kümelere dışarıdan referans sızmaz.
type PresenceRegistry struct {
	mu sync.Mutex

	// online: serverID → çevrimiçi userID set'i
	online map[string]map[string]bool

	// entered: userID → kullanıcının presence bildirdiği serverID set'i.
	// Bağlantı kopunca hangi sunucuların düşürüleceğini bilmek için.
	entered map[string]map[string]bool
}

// NewPresenceRegistry, boş bir registry oluşturur.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		online:  make(map[string]map[string]bool),
		entered: make(map[string]map[string]bool),
	}
}

// Enter, kullanıcıyı sunucunun çevrimiçi kümesine ekler.
// Küme değiştiyse true döner (idempotent — tekrar giriş false döner).
func (p *PresenceRegistry) Enter(serverID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.online[serverID]; !ok {
		p.online[serverID] = make(map[string]bool)
	}
	if p.online[serverID][userID] {
		return false
	}
	p.online[serverID][userID] = true

	if _, ok := p.entered[userID]; !ok {
		p.entered[userID] = make(map[string]bool)
	}
	p.entered[userID][serverID] = true

	return true
}

// Leave, kullanıcıyı sunucunun çevrimiçi kümesinden düşürür.
// Küme değiştiyse true döner.
func (p *PresenceRegistry) Leave(serverID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.leaveLocked(serverID, userID)
}

func (p *PresenceRegistry) leaveLocked(serverID, userID string) bool {
	users, ok := p.online[serverID]
	if !ok || !users[userID] {
		return false
	}

	delete(users, userID)
	if len(users) == 0 {
		delete(p.online, serverID)
	}

	if servers, ok := p.entered[userID]; ok {
		delete(servers, serverID)
		if len(servers) == 0 {
			delete(p.entered, userID)
		}
	}

	return true
}

// LeaveAll, kullanıcının presence bildirdiği tüm sunuculardan düşürür
// ve etkilenen serverID listesini döner. Bağlantı kopunca çağrılır.
func (p *PresenceRegistry) LeaveAll(userID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	servers := p.entered[userID]
	if len(servers) == 0 {
		return nil
	}

	affected := make([]string, 0, len(servers))
	for serverID := range servers {
		affected = append(affected, serverID)
	}
	for _, serverID := range affected {
		p.leaveLocked(serverID, userID)
	}

	return affected
}

// OnlineUserIDs, sunucudaki çevrimiçi kullanıcı ID'lerini döner.
func (p *PresenceRegistry) OnlineUserIDs(serverID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := p.online[serverID]
	ids := make([]string, 0, len(users))
	for userID := range users {
		ids = append(ids, userID)
	}
	return ids
}

// OnlineCount, sunucudaki çevrimiçi kullanıcı sayısını döner.
func (p *PresenceRegistry) OnlineCount(serverID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.online[serverID])
}

// IsOnline, kullanıcının sunucuda çevrimiçi olup olmadığını döner.
func (p *PresenceRegistry) IsOnline(serverID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	users, ok := p.online[serverID]
	return ok && users[userID]
}
