package repository

import (
	"context"

	"github.com/seyhanc/kumru/models"
)

// MessageRepository, mesaj veri erişimi.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, messageID string) (*models.Message, error)
	Update(ctx context.Context, message *models.Message) error
	Delete(ctx context.Context, messageID string) error

	// ListByChannel, cursor tabanlı sayfalama: before boşsa en yeni
	// mesajlardan başlar, doluysa o mesajdan eskileri döner.
	ListByChannel(ctx context.Context, channelID string, before string, limit int) ([]models.Message, error)

	// ListAssetRefsByChannel, kanaldaki dosya eklerinin storage ref'lerini
	// döner. Kaskad silme öncesi asset temizliği için kullanılır.
	ListAssetRefsByChannel(ctx context.Context, channelID string) ([]string, error)
	DeleteByChannel(ctx context.Context, channelID string) error
}
