// MessageService — mesaj gönderme, düzenleme, silme ve sayfalama.
//
// Dosya eki mesajın parçasıdır: yükleme BAŞARISIZSA mesaj hiç yazılmaz
// (ErrUpstream → 502). Tersine, silmede asset temizliği best-effort'tur.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/repository"
	"github.com/seyhanc/kumru/storage"
	"github.com/seyhanc/kumru/ws"
)

// Sayfalama sınırları: limit verilmezse defaultPageSize, üstü maxPageSize'a kırpılır.
const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// MessageService, mesaj iş mantığı interface'i.
type MessageService interface {
	// CreateMessage, kanala mesaj gönderir. Banlı üye gönderemez.
	// İçerik boşsa dosya zorunludur; dosya yükleme hatası mesajı iptal eder.
	CreateMessage(ctx context.Context, channelID, userID, username string, req *models.CreateMessageRequest, file *FileUpload) (*models.Message, error)

	// ListMessages, cursor tabanlı sayfalama ile mesajları döner (eskiden yeniye).
	// before boşsa en yeni sayfa döner.
	ListMessages(ctx context.Context, channelID, before string, limit int) (*models.MessagePage, error)

	// UpdateMessage, mesajı düzenler. Sadece yazar.
	UpdateMessage(ctx context.Context, messageID, userID string, req *models.UpdateMessageRequest) (*models.Message, error)

	// DeleteMessage, mesajı siler. Yazar veya sunucu owner'ı.
	DeleteMessage(ctx context.Context, messageID, userID string) error
}

type messageService struct {
	messageRepo repository.MessageRepository
	channelRepo repository.ChannelRepository
	serverRepo  repository.ServerRepository
	store       storage.Store
	hub         ws.EventPublisher
}

// NewMessageService, constructor.
func NewMessageService(
	messageRepo repository.MessageRepository,
	channelRepo repository.ChannelRepository,
	serverRepo repository.ServerRepository,
	store storage.Store,
	hub ws.EventPublisher,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		channelRepo: channelRepo,
		serverRepo:  serverRepo,
		store:       store,
		hub:         hub,
	}
}

func (s *messageService) CreateMessage(ctx context.Context, channelID, userID, username string, req *models.CreateMessageRequest, file *FileUpload) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if req.Content == "" && file == nil {
		return nil, fmt.Errorf("%w: message must have content or a file", pkg.ErrBadRequest)
	}

	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	member, err := s.serverRepo.GetMember(ctx, channel.ServerID, userID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: you are not a member of this server", pkg.ErrForbidden)
		}
		return nil, err
	}
	if member.Banned {
		return nil, fmt.Errorf("%w: you are banned from this server", pkg.ErrForbidden)
	}

	var assetRef, assetURL *string
	if file != nil {
		if s.store == nil {
			return nil, fmt.Errorf("%w: file uploads are not configured", pkg.ErrBadRequest)
		}
		ref, url, err := s.store.Upload(ctx, file.Reader, file.Size, file.ContentType, "messages")
		if err != nil {
			return nil, err // ErrUpstream — mesaj yazılmadan istek iptal edilir
		}
		assetRef, assetURL = &ref, &url
	}

	var content *string
	if req.Content != "" {
		content = &req.Content
	}

	message := &models.Message{
		ChannelID: channelID,
		UserID:    userID,
		Username:  username,
		Content:   content,
		AssetRef:  assetRef,
		AssetURL:  assetURL,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.hub.BroadcastToChannel(channelID, ws.Event{Op: ws.OpMessageCreate, Data: messageEvent(message)})

	return message, nil
}

// messageEvent, message_create / message_update payload'ını kurar.
// Dahili asset referansı odaya taşınmaz.
func messageEvent(message *models.Message) ws.MessageEventData {
	return ws.MessageEventData{
		MessageID: message.ID,
		ChannelID: message.ChannelID,
		UserID:    message.UserID,
		Username:  message.Username,
		Content:   message.Content,
		AssetURL:  message.AssetURL,
		EditedAt:  message.EditedAt,
	}
}

func (s *messageService) ListMessages(ctx context.Context, channelID, before string, limit int) (*models.MessagePage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	// limit+1 çekilir: fazladan satır geldiyse daha eski sayfa vardır
	messages, err := s.messageRepo.ListByChannel(ctx, channelID, before, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	// Repo en yeniden eskiye döner; client eskiden yeniye ister
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &models.MessagePage{Messages: messages, HasMore: hasMore}, nil
}

func (s *messageService) UpdateMessage(ctx context.Context, messageID, userID string, req *models.UpdateMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.UserID != userID {
		return nil, fmt.Errorf("%w: only the author can edit this message", pkg.ErrForbidden)
	}

	message.Content = &req.Content
	if err := s.messageRepo.Update(ctx, message); err != nil {
		return nil, err
	}

	s.hub.BroadcastToChannel(message.ChannelID, ws.Event{Op: ws.OpMessageUpdate, Data: messageEvent(message)})

	return message, nil
}

func (s *messageService) DeleteMessage(ctx context.Context, messageID, userID string) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			// Zaten silinmiş — idempotent başarı
			return nil
		}
		return err
	}

	if message.UserID != userID {
		// Yazar değilse sunucu owner'ı olmalı
		channel, err := s.channelRepo.GetByID(ctx, message.ChannelID)
		if err != nil {
			return err
		}
		server, err := s.serverRepo.GetByID(ctx, channel.ServerID)
		if err != nil {
			return err
		}
		if server.OwnerID != userID {
			return fmt.Errorf("%w: only the author or server owner can delete this message", pkg.ErrForbidden)
		}
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return err
	}

	if message.AssetRef != nil && *message.AssetRef != "" && s.store != nil {
		if err := s.store.Delete(ctx, *message.AssetRef); err != nil {
			log.Printf("[message] asset cleanup failed for %s: %v", *message.AssetRef, err)
		}
	}

	s.hub.BroadcastToChannel(message.ChannelID, ws.Event{
		Op:   ws.OpMessageDelete,
		Data: ws.MessageDeleteData{ChannelID: message.ChannelID, MessageID: messageID},
	})

	return nil
}
