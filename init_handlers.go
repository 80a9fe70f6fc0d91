// Package main — Handler katmanı başlatma.
//
// initHandlers, tüm HTTP handler'larını oluşturur.
// Her handler, ihtiyaç duyduğu service interface'lerini constructor'dan alır.
// Handler'lar "thin" dir — sadece HTTP parse + service call + response write.
package main

import (
	"github.com/seyhanc/kumru/config"
	"github.com/seyhanc/kumru/handlers"
	"github.com/seyhanc/kumru/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Server     *handlers.ServerHandler
	Channel    *handlers.ChannelHandler
	Message    *handlers.MessageHandler
	Invitation *handlers.InvitationHandler
	WS         *ws.Handler
}

// initHandlers, tüm handler'ları service ve rate limiter dependency'leri ile oluşturur.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:       handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Server:     handlers.NewServerHandler(svcs.Server, cfg.Upload.MaxSize),
		Channel:    handlers.NewChannelHandler(svcs.Channel),
		Message:    handlers.NewMessageHandler(svcs.Message, limiters.Message, cfg.Upload.MaxSize),
		Invitation: handlers.NewInvitationHandler(svcs.Invitation),
		WS:         ws.NewHandler(hub, svcs.Auth),
	}
}
