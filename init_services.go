// Package main — Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Her service, ihtiyaç duyduğu repository interface'lerini ve diğer
// dependency'leri constructor injection ile alır.
//
// Sıralama kuralı: CascadeService, ServerService ve ChannelService'den
// ÖNCE oluşturulmalı — her ikisi de boş kalan kümeleri kaskadla silmek
// için ona bağımlıdır.
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/seyhanc/kumru/config"
	"github.com/seyhanc/kumru/pkg/email"
	"github.com/seyhanc/kumru/pkg/ratelimit"
	"github.com/seyhanc/kumru/services"
	"github.com/seyhanc/kumru/storage"
	"github.com/seyhanc/kumru/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth       services.AuthService
	Cascade    services.CascadeService
	Server     services.ServerService
	Channel    services.ChannelService
	Message    services.MessageService
	Invitation services.InvitationService
}

// RateLimiters, tüm rate limiter instance'larını tutan container.
type RateLimiters struct {
	Login   *ratelimit.Limiter
	Message *ratelimit.Limiter
}

// initServices, tüm service'leri ve rate limiter'ları oluşturur.
// store ve emailSender nil olabilir — ilgili özellikler devre dışı kalır.
func initServices(db *sql.DB, repos *Repositories, hub ws.EventPublisher, cfg *config.Config) (*Services, *RateLimiters) {
	// ─── Opsiyonel dış servisler ───

	// MinIO asset store — access key verilmemişse dosya yükleme kapalıdır.
	var store storage.Store
	if cfg.Storage.AccessKey != "" {
		s, err := storage.NewMinioStore(context.Background(), cfg.Storage)
		if err != nil {
			log.Fatalf("[main] failed to initialize asset store: %v", err)
		}
		store = s
		log.Printf("[main] asset store enabled (endpoint=%s bucket=%s)", cfg.Storage.Endpoint, cfg.Storage.Bucket)
	}

	// Resend email — API key verilmemişse davet bildirimleri atlanır.
	var emailSender email.EmailSender
	if cfg.Email.APIKey != "" && cfg.Email.FromEmail != "" {
		emailSender = email.NewResendSender(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
		log.Printf("[main] email notifications enabled (from=%s)", cfg.Email.FromEmail)
	}

	// ─── Service'ler ───

	authService := services.NewAuthService(
		repos.User,
		repos.Session,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// CascadeService önce — ServerService ve ChannelService ona bağımlı.
	cascadeService := services.NewCascadeService(
		db, repos.Server, repos.Channel, repos.Message, repos.Invitation, store,
	)

	serverService := services.NewServerService(
		db, repos.Server, repos.Channel, repos.User, cascadeService, store, hub,
	)
	channelService := services.NewChannelService(repos.Channel, repos.Server, cascadeService, hub)
	messageService := services.NewMessageService(
		repos.Message, repos.Channel, repos.Server, store, hub,
	)
	invitationService := services.NewInvitationService(
		repos.Invitation, repos.Server, repos.User, emailSender, hub,
	)

	// ─── Rate Limiter'lar ───
	// Login: IP başına 5 deneme / dakika. Mesaj: kullanıcı başına
	// 10 mesaj / 10sn, aşımda 5sn cooldown.
	limiters := &RateLimiters{
		Login:   ratelimit.NewLoginLimiter(5, time.Minute),
		Message: ratelimit.NewMessageLimiter(10, 10*time.Second, 5*time.Second),
	}

	return &Services{
		Auth:       authService,
		Cascade:    cascadeService,
		Server:     serverService,
		Channel:    channelService,
		Message:    messageService,
		Invitation: invitationService,
	}, limiters
}
