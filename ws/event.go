// Package ws, WebSocket bağlantı yönetimi ve oda bazlı gerçek zamanlı
// event dağıtımını sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları ve oda üyeliklerini yöneten merkezi yapı
// - Client: Her WebSocket bağlantısını temsil eder
// - PresenceRegistry: Sunucu başına çevrimiçi kullanıcı kümesi
// - Event: Client-server arası iletilen mesaj formatı
//
// Event akışı:
// 1. Kullanıcı mutasyon yapar → HTTP → Service → DB commit
// 2. Service, commit SONRASI Hub'ın BroadcastToServer/Channel/User
//    metodunu çağırır — broadcast hatası mutasyonu asla geri almaz
// 3. Hub, event'i ilgili odadaki client'lara iletir (at-most-once:
//    yavaş client'ın buffer'ı doluysa event düşer ve bağlantı kapanır)
// 4. Her client'ın WritePump'ı event'i WebSocket'e yazar
package ws

import "time"

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op: event türü — "message_create", "heartbeat" vb.
// Data: event'e özgü payload.
// Seq: her outbound event'e hub genelinde verilen artan sayı.
// Frontend eksik event tespiti için seq'i takip eder.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// ────────────────────────────────────────────
// Operation sabitleri
// ────────────────────────────────────────────

// Client → Server operasyonları
const (
	OpHeartbeat     = "heartbeat"      // Client her 30sn'de gönderir — "hâlâ bağlıyım" sinyali
	OpRoomJoin      = "room_join"      // Odaya abone ol ("server:<id>" veya "channel:<id>")
	OpRoomLeave     = "room_leave"     // Oda aboneliğini bırak
	OpPresenceEnter = "presence_enter" // Sunucu görünümüne girildi — presence sayacına katıl
	OpPresenceLeave = "presence_leave" // Sunucu görünümünden çıkıldı
	OpTyping        = "typing"         // Kullanıcı yazıyor
)

// Server → Client operasyonları
const (
	OpReady        = "ready"         // Bağlantı kurulduğunda ilk gönderilen
	OpHeartbeatAck = "heartbeat_ack" // Heartbeat'e yanıt

	OpMessageCreate = "message_create" // Yeni mesaj oluşturuldu
	OpMessageUpdate = "message_update" // Mesaj düzenlendi
	OpMessageDelete = "message_delete" // Mesaj silindi

	OpChannelCreate = "channel_create" // Yeni kanal oluşturuldu
	OpChannelUpdate = "channel_update" // Kanal düzenlendi
	OpChannelDelete = "channel_delete" // Kanal silindi (son üye ayrılınca da)

	OpMemberJoin  = "member_join"  // Sunucuya yeni üye katıldı
	OpMemberLeave = "member_leave" // Üye ayrıldı veya çıkarıldı

	OpServerCreate = "server_create" // Kullanıcı yeni sunucu oluşturdu veya katıldı (user odasına)
	OpServerUpdate = "server_update" // Sunucu bilgileri güncellendi
	OpServerDelete = "server_delete" // Sunucu silindi (kaskad tamamlandı)

	OpInviteReceived  = "invite_received"  // Alıcıya yeni davet (user odasına)
	OpInviteCancelled = "invite_cancelled" // Davet iptal edildi (user odasına)

	OpPresenceCount   = "presence_count"   // Sunucudaki çevrimiçi sayısı değişti
	OpPresenceOffline = "presence_offline" // Bir kullanıcı tüm bağlantılarını kaybetti

	OpTypingStart = "typing_start" // Bir kullanıcı yazıyor (kanal odasına)
)

// ─── Server → Client payload struct'ları ───
//
// ws paketinin models'a bağımlılığı yoktur; event payload'ları burada
// ayrı tanımlanır. Service katmanı broadcast ederken bu struct'ları doldurur.

// ReadyData, bağlantı kurulduğunda client'a gönderilen ilk event'in payload'ı.
type ReadyData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// ServerEventData, server_create / server_update payload'ı.
// Sadece id ve değişen alanlar taşınır — invite_code gibi hassas
// alanlar odaya asla serialize edilmez.
type ServerEventData struct {
	ServerID string  `json:"server_id"`
	Name     string  `json:"name"`
	OwnerID  string  `json:"owner_id"`
	ImageURL *string `json:"image_url,omitempty"`
}

// ChannelEventData, channel_create / channel_update payload'ı.
type ChannelEventData struct {
	ServerID  string `json:"server_id"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
	CreatedBy string `json:"created_by,omitempty"`
}

// MessageEventData, message_create / message_update payload'ı.
// Yeni veya düzenlenmiş mesajın görünür alanları — dahili asset
// referansı taşınmaz.
type MessageEventData struct {
	MessageID string  `json:"message_id"`
	ChannelID string  `json:"channel_id"`
	UserID    string  `json:"user_id"`
	Username  string  `json:"username"`
	Content   *string    `json:"content,omitempty"`
	AssetURL  *string    `json:"asset_url,omitempty"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

// InviteEventData, invite_received / invite_cancelled payload'ı.
type InviteEventData struct {
	InvitationID string `json:"invitation_id"`
	ServerID     string `json:"server_id"`
	InviterID    string `json:"inviter_id"`
	ReceiverID   string `json:"receiver_id"`
}

// MemberEventData, member_join / member_leave payload'ı.
type MemberEventData struct {
	ServerID string `json:"server_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// ChannelDeleteData, channel_delete payload'ı. Hem kanal hem sunucu
// odasına gönderilir — kanal listesi sunucu görünümünde de durur.
type ChannelDeleteData struct {
	ServerID  string `json:"server_id"`
	ChannelID string `json:"channel_id"`
}

// MessageDeleteData, message_delete payload'ı.
type MessageDeleteData struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// ServerDeleteData, server_delete payload'ı.
type ServerDeleteData struct {
	ServerID string `json:"server_id"`
}

// PresenceCountData, presence_count payload'ı.
type PresenceCountData struct {
	ServerID string   `json:"server_id"`
	Count    int      `json:"count"`
	UserIDs  []string `json:"user_ids"`
}

// PresenceOfflineData, presence_offline payload'ı.
type PresenceOfflineData struct {
	ServerID string `json:"server_id"`
	UserID   string `json:"user_id"`
}

// TypingStartData, typing_start payload'ı (broadcast edilen).
type TypingStartData struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	ChannelID string `json:"channel_id"`
}

// ─── Client → Server payload struct'ları ───

// RoomData, room_join / room_leave payload'ı.
type RoomData struct {
	Room string `json:"room"`
}

// PresenceData, presence_enter / presence_leave payload'ı.
type PresenceData struct {
	ServerID string `json:"server_id"`
}

// TypingData, typing payload'ı.
type TypingData struct {
	ChannelID string `json:"channel_id"`
}
