// ServerService — sunucu yaşam döngüsü ve üyelik defteri iş mantığı.
//
// Üyelik mutasyonlarının tamamı repository'nin tek statement'lık
// koşullu yazmalarına dayanır (INSERT OR IGNORE / koşullu DELETE);
// service katmanı hiçbir zaman üye listesini okuyup geri yazmaz.
// Boş kalan sunucu aynı istek içinde kaskad silmeye devredilir.
package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/seyhanc/kumru/database"
	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/repository"
	"github.com/seyhanc/kumru/storage"
	"github.com/seyhanc/kumru/ws"
)

// FileUpload, handler'dan service'e taşınan bir multipart dosyayı temsil eder.
// Service http.Request bilmez — sadece içerik akışını alır.
type FileUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// ServerService, sunucu yönetimi iş mantığı interface'i.
type ServerService interface {
	// CreateServer, yeni sunucu oluşturur: sunucu satırı + owner üyeliği +
	// varsayılan "genel" kanalı tek transaction'da yazılır.
	CreateServer(ctx context.Context, ownerID string, req *models.CreateServerRequest, image *FileUpload) (*models.Server, error)

	// GetServer, sunucu detayını döner.
	GetServer(ctx context.Context, serverID string) (*models.Server, error)

	// GetUserServers, kullanıcının üye olduğu sunucuları döner.
	GetUserServers(ctx context.Context, userID string) ([]models.ServerListItem, error)

	// UpdateServer, sunucu bilgisini günceller. Sadece owner.
	UpdateServer(ctx context.Context, serverID, userID string, req *models.UpdateServerRequest, image *FileUpload) (*models.Server, error)

	// DeleteServer, sunucuyu kaskadla siler. Sadece owner.
	DeleteServer(ctx context.Context, serverID, userID string) error

	// AddMember, kullanıcıyı üye kümesine ekler (idempotent).
	// Sadece owner çağırabilir. role=owner istemek Conflict döner —
	// sunucunun tek owner'ı oluşturma anında yazılır. Boş rol member sayılır.
	AddMember(ctx context.Context, serverID, actorID, targetID string, role models.MemberRole) error

	// RemoveMember, başka bir üyeyi kümeden çıkarır (kick). Sadece owner;
	// kendini çıkarmak için LeaveServer kullanılır.
	RemoveMember(ctx context.Context, serverID, actorID, targetID string) error

	// LeaveServer, kullanıcının kendi üyeliğini düşürür.
	// Son üye ayrıldıysa sunucu kaskadla silinir.
	LeaveServer(ctx context.Context, serverID, userID string) error

	// BanMember, üyenin banned flag'ini değiştirir. Sadece owner.
	// Ban üyeliği düşürmez — üye mesaj gönderemez hale gelir.
	BanMember(ctx context.Context, serverID, actorID, targetID string, banned bool) error

	// ListMembers, sunucunun üye kümesini döner.
	ListMembers(ctx context.Context, serverID string) ([]models.ServerMember, error)

	// CreateInviteCode, sunucu için tek kullanımlık davet kodu üretir.
	// Önceki kod varsa üzerine yazılır. Her üye çağırabilir.
	CreateInviteCode(ctx context.Context, serverID, userID string) (string, error)

	// JoinByCode, davet koduyla katılır. Kod tek kullanımlıktır:
	// eşleşen ilk katılım kodu tüketir, yarışı kaybeden NotFound alır.
	// Zaten üye olan 409 alır ve kod yerinde kalır.
	JoinByCode(ctx context.Context, userID string, req *models.JoinByCodeRequest) (*models.Server, error)
}

type serverService struct {
	db          *sql.DB
	serverRepo  repository.ServerRepository
	channelRepo repository.ChannelRepository
	userRepo    repository.UserRepository
	cascade     CascadeService
	store       storage.Store
	hub         ws.EventPublisher
}

// NewServerService, constructor.
//
// db: CreateServer ve JoinByCode atomik çalışır — WithTx için gerekir.
// store: sunucu görseli yüklemesi için; nil ise görsel desteği kapalıdır.
func NewServerService(
	db *sql.DB,
	serverRepo repository.ServerRepository,
	channelRepo repository.ChannelRepository,
	userRepo repository.UserRepository,
	cascade CascadeService,
	store storage.Store,
	hub ws.EventPublisher,
) ServerService {
	return &serverService{
		db:          db,
		serverRepo:  serverRepo,
		channelRepo: channelRepo,
		userRepo:    userRepo,
		cascade:     cascade,
		store:       store,
		hub:         hub,
	}
}

// CreateServer, yeni bir sunucu oluşturur.
//
// Akış:
// 1. Validate + (varsa) görsel yükleme — yükleme hatası işlemi durdurur
// 2. Transaction: server → owner üyeliği → "genel" kanalı → kanal üyeliği
// 3. WS broadcast (commit sonrası)
func (s *serverService) CreateServer(ctx context.Context, ownerID string, req *models.CreateServerRequest, image *FileUpload) (*models.Server, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	var imageURL, imageRef *string
	if image != nil && s.store != nil {
		ref, url, err := s.store.Upload(ctx, image.Reader, image.Size, image.ContentType, "servers")
		if err != nil {
			return nil, err // ErrUpstream — görsel yüklenemezse sunucu hiç oluşturulmaz
		}
		imageRef, imageURL = &ref, &url
	}

	server := &models.Server{
		Name:     req.Name,
		OwnerID:  ownerID,
		ImageURL: imageURL,
		ImageRef: imageRef,
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txServerRepo := repository.NewSQLiteServerRepo(tx)
		txChannelRepo := repository.NewSQLiteChannelRepo(tx)

		if err := txServerRepo.Create(ctx, server); err != nil {
			return err
		}
		if err := txServerRepo.AddMember(ctx, server.ID, ownerID, models.RoleOwner); err != nil {
			return err
		}

		channel := &models.Channel{
			ServerID:  server.ID,
			Name:      "genel",
			CreatedBy: ownerID,
		}
		if err := txChannelRepo.Create(ctx, channel); err != nil {
			return err
		}
		return txChannelRepo.AddMember(ctx, channel.ID, ownerID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	s.hub.BroadcastToUser(ownerID, ws.Event{Op: ws.OpServerCreate, Data: serverEvent(server)})
	log.Printf("[server] created: %s (owner=%s)", server.ID, ownerID)

	return server, nil
}

func (s *serverService) GetServer(ctx context.Context, serverID string) (*models.Server, error) {
	return s.serverRepo.GetByID(ctx, serverID)
}

func (s *serverService) GetUserServers(ctx context.Context, userID string) ([]models.ServerListItem, error) {
	return s.serverRepo.GetUserServers(ctx, userID)
}

// UpdateServer, isim ve/veya görseli günceller.
// Yeni görsel başarıyla yüklendikten sonra eskisi best-effort silinir.
func (s *serverService) UpdateServer(ctx context.Context, serverID, userID string, req *models.UpdateServerRequest, image *FileUpload) (*models.Server, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if server.OwnerID != userID {
		return nil, fmt.Errorf("%w: only the owner can edit the server", pkg.ErrForbidden)
	}

	if req.Name != nil {
		server.Name = *req.Name
	}

	var oldRef *string
	if image != nil && s.store != nil {
		ref, url, err := s.store.Upload(ctx, image.Reader, image.Size, image.ContentType, "servers")
		if err != nil {
			return nil, err
		}
		oldRef = server.ImageRef
		server.ImageRef, server.ImageURL = &ref, &url
	}

	if err := s.serverRepo.Update(ctx, server); err != nil {
		return nil, err
	}

	if oldRef != nil && *oldRef != "" {
		if err := s.store.Delete(ctx, *oldRef); err != nil {
			log.Printf("[server] failed to delete previous image %s: %v", *oldRef, err)
		}
	}

	s.hub.BroadcastToServer(serverID, ws.Event{Op: ws.OpServerUpdate, Data: serverEvent(server)})

	return server, nil
}

// DeleteServer, owner'ın sunucuyu silmesi. Kaskad idempotenttir —
// eşzamanlı ikinci silme isteği de başarıyla döner.
func (s *serverService) DeleteServer(ctx context.Context, serverID, userID string) error {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			// Zaten silinmiş — idempotent başarı
			return nil
		}
		return err
	}
	if server.OwnerID != userID {
		return fmt.Errorf("%w: only the owner can delete the server", pkg.ErrForbidden)
	}

	if err := s.cascade.DeleteServer(ctx, serverID); err != nil {
		return err
	}

	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpServerDelete,
		Data: ws.ServerDeleteData{ServerID: serverID},
	})

	return nil
}

// AddMember, owner'ın bir kullanıcıyı doğrudan eklemesi.
// INSERT OR IGNORE: kullanıcı zaten üyeyse no-op, rolüne dokunulmaz.
func (s *serverService) AddMember(ctx context.Context, serverID, actorID, targetID string, role models.MemberRole) error {
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", pkg.ErrBadRequest, role)
	}

	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return err
	}
	if server.OwnerID != actorID {
		return fmt.Errorf("%w: only the owner can add members", pkg.ErrForbidden)
	}
	if role == models.RoleOwner {
		// Tek owner modeli: owner oluşturma anında yazılır, sonradan atanamaz.
		return fmt.Errorf("%w: owner role cannot be granted", pkg.ErrConflict)
	}

	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}

	if err := s.serverRepo.AddMember(ctx, serverID, targetID, role); err != nil {
		return err
	}

	s.broadcastMemberJoin(ctx, serverID, targetID)
	s.hub.BroadcastToUser(targetID, ws.Event{Op: ws.OpServerCreate, Data: serverEvent(server)})

	return nil
}

// RemoveMember, owner'ın başka bir üyeyi çıkarması (kick).
func (s *serverService) RemoveMember(ctx context.Context, serverID, actorID, targetID string) error {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return err
	}
	if server.OwnerID != actorID {
		return fmt.Errorf("%w: only the owner can remove members", pkg.ErrForbidden)
	}
	if actorID == targetID {
		return fmt.Errorf("%w: use leave to remove yourself", pkg.ErrBadRequest)
	}

	if err := s.serverRepo.RemoveMember(ctx, serverID, targetID); err != nil {
		return err // ErrNotFound: zaten üye değil
	}

	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpMemberLeave,
		Data: ws.MemberEventData{ServerID: serverID, UserID: targetID},
	})
	s.hub.BroadcastToUser(targetID, ws.Event{
		Op:   ws.OpServerDelete,
		Data: ws.ServerDeleteData{ServerID: serverID},
	})

	return nil
}

// LeaveServer, kullanıcının kendi ayrılışı.
//
// Owner dahil herkes ayrılabilir. Ayrılma sonrası üye kümesi boşsa
// sunucu aynı istek içinde kaskadla silinir — boş küme asla kalıcı
// bir durum değildir.
func (s *serverService) LeaveServer(ctx context.Context, serverID, userID string) error {
	if err := s.serverRepo.RemoveMember(ctx, serverID, userID); err != nil {
		return err // ErrNotFound: üye değil veya sunucu yok
	}

	count, err := s.serverRepo.GetMemberCount(ctx, serverID)
	if err != nil {
		return err
	}

	if count == 0 {
		if err := s.cascade.DeleteServer(ctx, serverID); err != nil {
			return err
		}
		// Ayrılan kullanıcının bağlantısı hâlâ odaya abone olabilir —
		// silme duyurusu yine de odaya gider.
		s.hub.BroadcastToServer(serverID, ws.Event{
			Op:   ws.OpServerDelete,
			Data: ws.ServerDeleteData{ServerID: serverID},
		})
		log.Printf("[server] last member left, server deleted: %s", serverID)
		return nil
	}

	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpMemberLeave,
		Data: ws.MemberEventData{ServerID: serverID, UserID: userID},
	})

	return nil
}

// BanMember, üyenin banned flag'ini değiştirir.
func (s *serverService) BanMember(ctx context.Context, serverID, actorID, targetID string, banned bool) error {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return err
	}
	if server.OwnerID != actorID {
		return fmt.Errorf("%w: only the owner can ban members", pkg.ErrForbidden)
	}
	if actorID == targetID {
		return fmt.Errorf("%w: you cannot ban yourself", pkg.ErrBadRequest)
	}

	return s.serverRepo.SetMemberBanned(ctx, serverID, targetID, banned)
}

func (s *serverService) ListMembers(ctx context.Context, serverID string) ([]models.ServerMember, error) {
	return s.serverRepo.ListMembers(ctx, serverID)
}

// CreateInviteCode, 8 byte'lık hex davet kodu üretip sunucuya yazar.
// Her üye kod üretebilir; yeni kod öncekinin üzerine yazılır.
func (s *serverService) CreateInviteCode(ctx context.Context, serverID, userID string) (string, error) {
	if _, err := s.serverRepo.GetByID(ctx, serverID); err != nil {
		return "", err
	}
	isMember, err := s.serverRepo.IsMember(ctx, serverID, userID)
	if err != nil {
		return "", err
	}
	if !isMember {
		return "", fmt.Errorf("%w: only members can create invite codes", pkg.ErrForbidden)
	}

	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	code := hex.EncodeToString(b)

	if err := s.serverRepo.SetInviteCode(ctx, serverID, &code); err != nil {
		return "", err
	}

	return code, nil
}

// JoinByCode, davet kodunu tüketerek sunucuya katılır.
//
// Tüketme ve üyelik kontrolü tek transaction'dadır:
// - Kod eşleşmezse NotFound (yarışı kaybeden de buraya düşer).
// - Kullanıcı zaten üyeyse Conflict — rollback kodu YERİNE KOYAR,
//   kod boşa harcanmaz.
// - Değilse üyelik yazılır ve commit kodu kalıcı olarak temizler.
func (s *serverService) JoinByCode(ctx context.Context, userID string, req *models.JoinByCodeRequest) (*models.Server, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	var server *models.Server
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txServerRepo := repository.NewSQLiteServerRepo(tx)

		var err error
		server, err = txServerRepo.ConsumeInviteCode(ctx, req.Code)
		if err != nil {
			return err // ErrNotFound: kod geçersiz veya çoktan kullanılmış
		}

		isMember, err := txServerRepo.IsMember(ctx, server.ID, userID)
		if err != nil {
			return err
		}
		if isMember {
			return fmt.Errorf("%w: already a member of this server", pkg.ErrConflict)
		}

		return txServerRepo.AddMember(ctx, server.ID, userID, models.RoleMember)
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMemberJoin(ctx, server.ID, userID)
	s.hub.BroadcastToUser(userID, ws.Event{Op: ws.OpServerCreate, Data: serverEvent(server)})
	log.Printf("[server] user joined by invite code: server=%s user=%s", server.ID, userID)

	return server, nil
}

// serverEvent, server_create / server_update payload'ını kurar.
// Model struct'ı odaya olduğu gibi serialize edilmez — invite_code
// gibi alanlar payload'a hiç girmez.
func serverEvent(server *models.Server) ws.ServerEventData {
	return ws.ServerEventData{
		ServerID: server.ID,
		Name:     server.Name,
		OwnerID:  server.OwnerID,
		ImageURL: server.ImageURL,
	}
}

// broadcastMemberJoin, member_join event'ini username ile zenginleştirip yayınlar.
func (s *serverService) broadcastMemberJoin(ctx context.Context, serverID, userID string) {
	var username string
	if user, err := s.userRepo.GetByID(ctx, userID); err == nil {
		username = user.Username
	}

	s.hub.BroadcastToServer(serverID, ws.Event{
		Op:   ws.OpMemberJoin,
		Data: ws.MemberEventData{ServerID: serverID, UserID: userID, Username: username},
	})
}
