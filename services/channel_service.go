// ChannelService — kanal yaşam döngüsü ve kanal üyelik defteri.
//
// Kanala açık bir "katıl" operasyonu yoktur: üyelik kanal oluşturulurken
// kurucuyla tohumlanır, tek mutasyon ayrılmadır (opt-out modeli).
// Son üye ayrıldığı anda kanal mesajlarıyla birlikte silinir.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/repository"
	"github.com/seyhanc/kumru/ws"
)

// ChannelService, kanal yönetimi iş mantığı interface'i.
type ChannelService interface {
	// CreateChannel, sunucuda yeni kanal oluşturur. Kurucu otomatik üyedir.
	CreateChannel(ctx context.Context, serverID, userID string, req *models.CreateChannelRequest) (*models.Channel, error)

	// GetChannel, kanal detayını döner.
	GetChannel(ctx context.Context, channelID string) (*models.Channel, error)

	// ListChannels, sunucudaki tüm kanalları döner.
	ListChannels(ctx context.Context, serverID string) ([]models.Channel, error)

	// UpdateChannel, kanalı düzenler. Sadece kurucu (created_by).
	UpdateChannel(ctx context.Context, channelID, userID string, req *models.UpdateChannelRequest) (*models.Channel, error)

	// DeleteChannel, kanalı kaskadla siler. Sadece kurucu.
	DeleteChannel(ctx context.Context, channelID, userID string) error

	// LeaveChannel, kullanıcının kanal üyeliğini düşürür.
	// Son üye ayrıldıysa kanal silinir ve Deleted=true döner.
	LeaveChannel(ctx context.Context, channelID, userID string) (*models.LeaveChannelResult, error)
}

type channelService struct {
	channelRepo repository.ChannelRepository
	serverRepo  repository.ServerRepository
	cascade     CascadeService
	hub         ws.EventPublisher
}

// NewChannelService, constructor.
func NewChannelService(
	channelRepo repository.ChannelRepository,
	serverRepo repository.ServerRepository,
	cascade CascadeService,
	hub ws.EventPublisher,
) ChannelService {
	return &channelService{
		channelRepo: channelRepo,
		serverRepo:  serverRepo,
		cascade:     cascade,
		hub:         hub,
	}
}

func (s *channelService) CreateChannel(ctx context.Context, serverID, userID string, req *models.CreateChannelRequest) (*models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// Eklenecek üyeler kanal yazılmadan önce doğrulanır — geçersiz istek
	// yarım kalmış bir kanal bırakmaz.
	for _, memberID := range req.MemberIDs {
		if memberID == userID {
			continue
		}
		isMember, err := s.serverRepo.IsMember(ctx, serverID, memberID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, fmt.Errorf("%w: user %s is not a member of the server", pkg.ErrBadRequest, memberID)
		}
	}

	channel := &models.Channel{
		ServerID:  serverID,
		Name:      req.Name,
		CreatedBy: userID,
	}

	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, err
	}
	if err := s.channelRepo.AddMember(ctx, channel.ID, userID); err != nil {
		return nil, err
	}
	for _, memberID := range req.MemberIDs {
		if memberID == userID {
			continue
		}
		if err := s.channelRepo.AddMember(ctx, channel.ID, memberID); err != nil {
			return nil, err
		}
	}

	s.hub.BroadcastToServer(serverID, ws.Event{Op: ws.OpChannelCreate, Data: channelEvent(channel)})

	return channel, nil
}

func (s *channelService) GetChannel(ctx context.Context, channelID string) (*models.Channel, error) {
	return s.channelRepo.GetByID(ctx, channelID)
}

func (s *channelService) ListChannels(ctx context.Context, serverID string) ([]models.Channel, error) {
	return s.channelRepo.ListByServer(ctx, serverID)
}

func (s *channelService) UpdateChannel(ctx context.Context, channelID, userID string, req *models.UpdateChannelRequest) (*models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel.CreatedBy != userID {
		return nil, fmt.Errorf("%w: only the creator can edit this channel", pkg.ErrForbidden)
	}

	if req.Name != nil {
		channel.Name = *req.Name
	}

	if err := s.channelRepo.Update(ctx, channel); err != nil {
		return nil, err
	}

	// Hem kanal hem sunucu odasına — kanal listesi sunucu görünümünde durur
	s.hub.BroadcastToChannel(channelID, ws.Event{Op: ws.OpChannelUpdate, Data: channelEvent(channel)})
	s.hub.BroadcastToServer(channel.ServerID, ws.Event{Op: ws.OpChannelUpdate, Data: channelEvent(channel)})

	return channel, nil
}

func (s *channelService) DeleteChannel(ctx context.Context, channelID, userID string) error {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			// Zaten silinmiş — idempotent başarı
			return nil
		}
		return err
	}
	if channel.CreatedBy != userID {
		return fmt.Errorf("%w: only the creator can delete this channel", pkg.ErrForbidden)
	}

	if err := s.cascade.DeleteChannel(ctx, channelID); err != nil {
		return err
	}

	s.broadcastChannelDeleted(channel)

	return nil
}

// LeaveChannel, üyeliği düşürür; küme boşaldıysa kanalı yok eder.
//
// Boş küme hiçbir zaman gözlemlenemez: ayrılma ve silme aynı istek
// içinde tamamlanır, istemciye Deleted flag'i ile bildirilir.
func (s *channelService) LeaveChannel(ctx context.Context, channelID, userID string) (*models.LeaveChannelResult, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if err := s.channelRepo.RemoveMember(ctx, channelID, userID); err != nil {
		return nil, err // ErrNotFound: zaten üye değil
	}

	count, err := s.channelRepo.GetMemberCount(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		if err := s.cascade.DeleteChannel(ctx, channelID); err != nil {
			return nil, err
		}
		s.broadcastChannelDeleted(channel)
		log.Printf("[channel] last member left, channel deleted: %s", channelID)
		return &models.LeaveChannelResult{Deleted: true}, nil
	}

	s.hub.BroadcastToChannel(channelID, ws.Event{Op: ws.OpChannelUpdate, Data: channelEvent(channel)})

	return &models.LeaveChannelResult{RemainingMembers: count}, nil
}

// channelEvent, channel_create / channel_update payload'ını kurar.
func channelEvent(channel *models.Channel) ws.ChannelEventData {
	return ws.ChannelEventData{
		ServerID:  channel.ServerID,
		ChannelID: channel.ID,
		Name:      channel.Name,
		CreatedBy: channel.CreatedBy,
	}
}

// broadcastChannelDeleted — silme hem kanal hem sunucu odasına duyurulur.
func (s *channelService) broadcastChannelDeleted(channel *models.Channel) {
	event := ws.Event{
		Op:   ws.OpChannelDelete,
		Data: ws.ChannelDeleteData{ServerID: channel.ServerID, ChannelID: channel.ID},
	}
	s.hub.BroadcastToChannel(channel.ID, event)
	s.hub.BroadcastToServer(channel.ServerID, event)
}
