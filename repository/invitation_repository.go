package repository

import (
	"context"

	"github.com/seyhanc/kumru/models"
)

// InvitationRepository, davet veri erişimi.
//
// Bir davetin tek durumu vardır: beklemede. Kabul ve iptal satırı siler;
// "accepted"/"declined" gibi durum sütunları tutulmaz. UNIQUE(server_id,
// receiver_id) kısıtı aynı kişiye aynı sunucudan ikinci daveti veritabanı
// seviyesinde engeller (Create → ErrConflict).
type InvitationRepository interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByID(ctx context.Context, invitationID string) (*models.Invitation, error)
	Delete(ctx context.Context, invitationID string) error
	DeleteByServerAndReceiver(ctx context.Context, serverID, receiverID string) error
	Exists(ctx context.Context, serverID, receiverID string) (bool, error)
	ListByReceiver(ctx context.Context, receiverID string) ([]models.InvitationWithServer, error)
	DeleteByServer(ctx context.Context, serverID string) error
}
