package repository

import (
	"context"

	"github.com/seyhanc/kumru/models"
)

// ChannelRepository, kanal ve kanal üyeliği veri erişimi.
//
// Kanal üyeliği de sunucu üyeliğiyle aynı defter modelini izler:
// AddMember = INSERT OR IGNORE, RemoveMember = koşullu DELETE.
// Açık bir "katıl" operasyonu yoktur; üyelik kanal oluşturulurken
// veya davet kabulünde toplu olarak yazılır, çıkış ise satır silmedir.
type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, channelID string) (*models.Channel, error)
	Update(ctx context.Context, channel *models.Channel) error
	Delete(ctx context.Context, channelID string) error
	ListByServer(ctx context.Context, serverID string) ([]models.Channel, error)

	AddMember(ctx context.Context, channelID, userID string) error
	RemoveMember(ctx context.Context, channelID, userID string) error
	IsMember(ctx context.Context, channelID, userID string) (bool, error)
	GetMemberCount(ctx context.Context, channelID string) (int, error)
	ListMemberIDs(ctx context.Context, channelID string) ([]string, error)
}
