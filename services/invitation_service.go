// InvitationService — davet durum makinesi.
//
// Bir davetin tek yaşayan durumu vardır: pending. Kabul ve iptal kaydı
// siler; UNIQUE(server_id, receiver_id) ikinci pending daveti DB
// seviyesinde engeller. Email bildirimi best-effort'tur — gönderim
// hatası daveti geri almaz.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/pkg/email"
	"github.com/seyhanc/kumru/repository"
	"github.com/seyhanc/kumru/ws"
)

// InvitationService, davet iş mantığı interface'i.
type InvitationService interface {
	// CreateInvitation, alıcıya pending davet oluşturur.
	// Davet eden sunucu üyesi değilse Forbidden; kendini davet etmek
	// ve zaten üye olanı davet etmek BadRequest, aynı alıcıya ikinci
	// davet Conflict döner.
	CreateInvitation(ctx context.Context, inviterID string, req *models.CreateInvitationRequest) (*models.Invitation, error)

	// CancelInvitation, daveti siler. Sadece inviter veya receiver.
	CancelInvitation(ctx context.Context, invitationID, actorID string) error

	// AcceptInvitation, daveti kabul eder: üyelik idempotent yazılır,
	// davet satırı koşulsuz silinir. Sadece receiver.
	// Kullanıcı bu arada davet koduyla katıldıysa kabul yine başarılıdır.
	AcceptInvitation(ctx context.Context, invitationID, receiverID string) (*models.Server, error)

	// ListInvitations, kullanıcıya gelen pending davetleri döner.
	ListInvitations(ctx context.Context, receiverID string) ([]models.InvitationWithServer, error)
}

type invitationService struct {
	inviteRepo repository.InvitationRepository
	serverRepo repository.ServerRepository
	userRepo   repository.UserRepository
	sender     email.EmailSender
	hub        ws.EventPublisher
}

// NewInvitationService, constructor.
// sender nil olabilir — email bildirimi o zaman tamamen atlanır.
func NewInvitationService(
	inviteRepo repository.InvitationRepository,
	serverRepo repository.ServerRepository,
	userRepo repository.UserRepository,
	sender email.EmailSender,
	hub ws.EventPublisher,
) InvitationService {
	return &invitationService{
		inviteRepo: inviteRepo,
		serverRepo: serverRepo,
		userRepo:   userRepo,
		sender:     sender,
		hub:        hub,
	}
}

func (s *invitationService) CreateInvitation(ctx context.Context, inviterID string, req *models.CreateInvitationRequest) (*models.Invitation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if inviterID == req.ReceiverID {
		return nil, fmt.Errorf("%w: you cannot invite yourself", pkg.ErrBadRequest)
	}

	server, err := s.serverRepo.GetByID(ctx, req.ServerID)
	if err != nil {
		return nil, err
	}

	// Davet sadece sunucu üyelerinden gelebilir — aksi halde herhangi
	// bir kullanıcı herhangi bir sunucuya davet dağıtabilirdi.
	inviterIsMember, err := s.serverRepo.IsMember(ctx, req.ServerID, inviterID)
	if err != nil {
		return nil, err
	}
	if !inviterIsMember {
		return nil, fmt.Errorf("%w: only members can send invitations", pkg.ErrForbidden)
	}

	receiver, err := s.userRepo.GetByID(ctx, req.ReceiverID)
	if err != nil {
		return nil, err
	}

	isMember, err := s.serverRepo.IsMember(ctx, req.ServerID, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, fmt.Errorf("%w: user is already a member of the server", pkg.ErrBadRequest)
	}

	invitation := &models.Invitation{
		ServerID:   req.ServerID,
		InviterID:  inviterID,
		ReceiverID: req.ReceiverID,
	}

	// UNIQUE(server_id, receiver_id) ihlali ErrConflict olarak döner —
	// "davet var mı" ön kontrolü yapılmaz, yarış DB kısıtına bırakılır.
	if err := s.inviteRepo.Create(ctx, invitation); err != nil {
		return nil, err
	}

	s.hub.BroadcastToUser(req.ReceiverID, ws.Event{Op: ws.OpInviteReceived, Data: inviteEvent(invitation)})

	// Email best-effort — ayrı goroutine, davet oluşturmayı bekletmez
	if s.sender != nil {
		inviterName := ""
		if inviter, err := s.userRepo.GetByID(ctx, inviterID); err == nil {
			inviterName = inviter.Username
		}
		go func(toEmail, serverName, inviterName string) {
			if err := s.sender.SendInvitation(context.Background(), toEmail, serverName, inviterName); err != nil {
				log.Printf("[invitation] email notification failed: %v", err)
			}
		}(receiver.Email, server.Name, inviterName)
	}

	return invitation, nil
}

func (s *invitationService) CancelInvitation(ctx context.Context, invitationID, actorID string) error {
	invitation, err := s.inviteRepo.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}

	if invitation.InviterID != actorID && invitation.ReceiverID != actorID {
		return fmt.Errorf("%w: only the inviter or receiver can cancel this invitation", pkg.ErrForbidden)
	}

	if err := s.inviteRepo.Delete(ctx, invitationID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			// Yarışta başka bir istek sildi — iptal amaçlanan sonuca ulaştı
			return nil
		}
		return err
	}

	s.hub.BroadcastToUser(invitation.ReceiverID, ws.Event{Op: ws.OpInviteCancelled, Data: inviteEvent(invitation)})

	return nil
}

// AcceptInvitation — kabul iki idempotent yazmadan oluşur:
// üyelik INSERT OR IGNORE, davet koşulsuz DELETE. Kullanıcı davet
// bekleyen sırada davet koduyla katıldıysa her iki yazma da no-op'a
// yakındır ve kabul yine başarı döner.
func (s *invitationService) AcceptInvitation(ctx context.Context, invitationID, receiverID string) (*models.Server, error) {
	invitation, err := s.inviteRepo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	if invitation.ReceiverID != receiverID {
		return nil, fmt.Errorf("%w: you are not the receiver of this invitation", pkg.ErrForbidden)
	}

	server, err := s.serverRepo.GetByID(ctx, invitation.ServerID)
	if err != nil {
		return nil, err
	}

	wasMember, err := s.serverRepo.IsMember(ctx, invitation.ServerID, receiverID)
	if err != nil {
		return nil, err
	}

	if err := s.serverRepo.AddMember(ctx, invitation.ServerID, receiverID, models.RoleMember); err != nil {
		return nil, err
	}

	if err := s.inviteRepo.DeleteByServerAndReceiver(ctx, invitation.ServerID, receiverID); err != nil {
		return nil, err
	}

	if !wasMember {
		var username string
		if user, err := s.userRepo.GetByID(ctx, receiverID); err == nil {
			username = user.Username
		}
		s.hub.BroadcastToServer(invitation.ServerID, ws.Event{
			Op:   ws.OpMemberJoin,
			Data: ws.MemberEventData{ServerID: invitation.ServerID, UserID: receiverID, Username: username},
		})
		s.hub.BroadcastToUser(receiverID, ws.Event{Op: ws.OpServerCreate, Data: serverEvent(server)})
	}

	return server, nil
}

func (s *invitationService) ListInvitations(ctx context.Context, receiverID string) ([]models.InvitationWithServer, error) {
	return s.inviteRepo.ListByReceiver(ctx, receiverID)
}

// inviteEvent, invite_received / invite_cancelled payload'ını kurar.
func inviteEvent(invitation *models.Invitation) ws.InviteEventData {
	return ws.InviteEventData{
		InvitationID: invitation.ID,
		ServerID:     invitation.ServerID,
		InviterID:    invitation.InviterID,
		ReceiverID:   invitation.ReceiverID,
	}
}
