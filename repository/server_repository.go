// Package repository — ServerRepository interface.
//
// Sunucu CRUD'u + üyelik defteri (membership ledger) storage primitifleri.
//
// Üyelik mutasyonları TEK STATEMENT'lık koşullu yazmalardır:
// AddMember = INSERT OR IGNORE, RemoveMember = DELETE WHERE.
// Asla read-modify-write yapılmaz — eşzamanlı istekler arasında
// kayıp güncelleme (lost update) bu sayede uygulama kilidi olmadan kapanır.
package repository

import (
	"context"

	"github.com/seyhanc/kumru/models"
)

// ServerRepository, sunucu ve sunucu üyeliği veritabanı işlemleri için interface.
type ServerRepository interface {
	Create(ctx context.Context, server *models.Server) error
	GetByID(ctx context.Context, serverID string) (*models.Server, error)
	Update(ctx context.Context, server *models.Server) error
	// Delete, sunucu satırını siler. Satır yoksa pkg.ErrNotFound döner —
	// cascade orchestrator bunu "zaten silinmiş, başarı" olarak yorumlar.
	Delete(ctx context.Context, serverID string) error

	// SetInviteCode, sunucunun davet kodunu atar (nil = kod yok).
	SetInviteCode(ctx context.Context, serverID string, code *string) error
	// ConsumeInviteCode, verilen kodu atomik olarak tüketir: kodu taşıyan
	// sunucuyu bulur, kodu NULL'a çeker ve sunucuyu döner. Kod tek kullanımlıktır;
	// aynı kodla yarışan ikinci istek pkg.ErrNotFound alır.
	ConsumeInviteCode(ctx context.Context, code string) (*models.Server, error)

	// AddMember, idempotent set-union: üye zaten varsa sessizce no-op.
	AddMember(ctx context.Context, serverID, userID string, role models.MemberRole) error
	// RemoveMember, set-remove: satır yoksa pkg.ErrNotFound döner.
	RemoveMember(ctx context.Context, serverID, userID string) error
	IsMember(ctx context.Context, serverID, userID string) (bool, error)
	GetMember(ctx context.Context, serverID, userID string) (*models.ServerMember, error)
	SetMemberBanned(ctx context.Context, serverID, userID string, banned bool) error
	GetMemberCount(ctx context.Context, serverID string) (int, error)
	ListMembers(ctx context.Context, serverID string) ([]models.ServerMember, error)

	// GetUserServers, kullanıcının üye olduğu sunucuların listesini döner.
	GetUserServers(ctx context.Context, userID string) ([]models.ServerListItem, error)
}
