// CascadeService — sunucu ve kanal silmenin sıralı yıkım mantığı.
//
// Sunucu silme bir mini-saga'dır: mesajlar → kanallar → davetler →
// üyelikler → sunucu satırı sırasıyla gider. Her adım tekrar
// çalıştırılabilir (idempotent): yarıda kalan bir silme ikinci
// tetiklemede kaldığı yerden tamamlanır, son adımda satırın zaten yok
// olması başarı sayılır. Asset temizliği best-effort'tur — object store
// hatası silmeyi asla durdurmaz, artık nesneler loglanır.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/seyhanc/kumru/database"
	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/repository"
	"github.com/seyhanc/kumru/storage"
)

// CascadeService, sunucu/kanal yıkım operasyonları.
//
// Broadcast YAPMAZ — hangi odalara ne duyurulacağı çağıran service'in
// sorumluluğudur. Bu service sadece veriyi ve asset'leri düşürür.
type CascadeService interface {
	// DeleteServer, sunucuyu tüm kanalları, mesajları, davetleri ve
	// üyelikleriyle birlikte siler. Sunucu zaten silinmişse hata dönmez.
	DeleteServer(ctx context.Context, serverID string) error

	// DeleteChannel, kanalı mesajları ve üyelikleriyle birlikte siler.
	// Kanal zaten silinmişse hata dönmez.
	DeleteChannel(ctx context.Context, channelID string) error
}

type cascadeService struct {
	db          *sql.DB
	serverRepo  repository.ServerRepository
	channelRepo repository.ChannelRepository
	messageRepo repository.MessageRepository
	inviteRepo  repository.InvitationRepository
	store       storage.Store
}

// NewCascadeService, constructor.
//
// db: silme adımları tek transaction'da koşar — WithTx için gerekir.
// store: asset temizliği için; nil verilirse asset adımı atlanır.
func NewCascadeService(
	db *sql.DB,
	serverRepo repository.ServerRepository,
	channelRepo repository.ChannelRepository,
	messageRepo repository.MessageRepository,
	inviteRepo repository.InvitationRepository,
	store storage.Store,
) CascadeService {
	return &cascadeService{
		db:          db,
		serverRepo:  serverRepo,
		channelRepo: channelRepo,
		messageRepo: messageRepo,
		inviteRepo:  inviteRepo,
		store:       store,
	}
}

// DeleteServer, sunucu yıkım saga'sını çalıştırır.
//
// Akış:
// 1. Asset referanslarını topla (sunucu görseli + tüm mesaj ekleri).
//    Satırlar silinince ref'lere ulaşılamaz — toplama önce yapılmak zorunda.
// 2. Transaction: her kanalın mesajları → kanallar → davetler →
//    üyelikler → sunucu satırı. FK'lardaki ON DELETE CASCADE güvenlik
//    ağıdır; sıra yine de açıkça yürütülür ki yarıda kalan silme
//    tutarlı bir ara durumda kalsın.
// 3. Commit sonrası asset'leri best-effort sil.
//
// Sunucu satırı zaten yoksa (eşzamanlı ikinci tetikleme) tüm adımlar
// sıfır satır etkiler ve operasyon başarıyla döner.
func (s *cascadeService) DeleteServer(ctx context.Context, serverID string) error {
	assetRefs, err := s.collectServerAssetRefs(ctx, serverID)
	if err != nil {
		return err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txChannelRepo := repository.NewSQLiteChannelRepo(tx)
		txMessageRepo := repository.NewSQLiteMessageRepo(tx)
		txInviteRepo := repository.NewSQLiteInvitationRepo(tx)
		txServerRepo := repository.NewSQLiteServerRepo(tx)

		channels, err := txChannelRepo.ListByServer(ctx, serverID)
		if err != nil {
			return err
		}

		for _, ch := range channels {
			if err := txMessageRepo.DeleteByChannel(ctx, ch.ID); err != nil {
				return err
			}
			if err := txChannelRepo.Delete(ctx, ch.ID); err != nil && !errors.Is(err, pkg.ErrNotFound) {
				return err
			}
		}

		if err := txInviteRepo.DeleteByServer(ctx, serverID); err != nil {
			return err
		}

		// Üyelik satırları sunucu satırıyla birlikte FK cascade ile düşer;
		// sunucu satırının yokluğu = saga zaten tamamlanmış.
		if err := txServerRepo.Delete(ctx, serverID); err != nil && !errors.Is(err, pkg.ErrNotFound) {
			return err
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("server cascade failed: %w", err)
	}

	s.deleteAssets(ctx, assetRefs)
	log.Printf("[cascade] server deleted: %s (assets: %d)", serverID, len(assetRefs))

	return nil
}

// DeleteChannel, kanal yıkımını çalıştırır (sunucu yerinde kalır).
func (s *cascadeService) DeleteChannel(ctx context.Context, channelID string) error {
	assetRefs, err := s.messageRepo.ListAssetRefsByChannel(ctx, channelID)
	if err != nil {
		return err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txMessageRepo := repository.NewSQLiteMessageRepo(tx)
		txChannelRepo := repository.NewSQLiteChannelRepo(tx)

		if err := txMessageRepo.DeleteByChannel(ctx, channelID); err != nil {
			return err
		}
		if err := txChannelRepo.Delete(ctx, channelID); err != nil && !errors.Is(err, pkg.ErrNotFound) {
			return err
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("channel cascade failed: %w", err)
	}

	s.deleteAssets(ctx, assetRefs)
	log.Printf("[cascade] channel deleted: %s (assets: %d)", channelID, len(assetRefs))

	return nil
}

// Kaskadı tetikleyen yollar:
// - owner DELETE /servers/:id → ServerService.DeleteServer
// - son üye ayrılınca → ServerService.LeaveServer / RemoveMember
// - kanalın son üyesi ayrılınca → ChannelService.LeaveChannel

// collectServerAssetRefs, silinecek tüm asset referanslarını toplar.
func (s *cascadeService) collectServerAssetRefs(ctx context.Context, serverID string) ([]string, error) {
	var refs []string

	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			// Sunucu zaten gitmiş — toplanacak bir şey yok
			return nil, nil
		}
		return nil, err
	}
	if server.ImageRef != nil && *server.ImageRef != "" {
		refs = append(refs, *server.ImageRef)
	}

	channels, err := s.channelRepo.ListByServer(ctx, serverID)
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		chRefs, err := s.messageRepo.ListAssetRefsByChannel(ctx, ch.ID)
		if err != nil {
			return nil, err
		}
		refs = append(refs, chRefs...)
	}

	return refs, nil
}

// deleteAssets, referansları best-effort siler. Hata sadece loglanır —
// artık (orphan) nesne kabul edilebilir, yarım kalmış silme değil.
func (s *cascadeService) deleteAssets(ctx context.Context, refs []string) {
	if s.store == nil {
		return
	}

	for _, ref := range refs {
		if err := s.store.Delete(ctx, ref); err != nil {
			log.Printf("[cascade] asset cleanup failed for %s: %v", ref, err)
		}
	}
}

