// Package main — HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
// Middleware chain helper'ları burada tanımlıdır:
//   - auth: JWT token doğrulaması
//   - authServer: auth + sunucu üyelik kontrolü
package main

import (
	"net/http"

	"github.com/seyhanc/kumru/middleware"
	"github.com/seyhanc/kumru/repository"
	"github.com/seyhanc/kumru/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
// Dönen ServerMembershipMiddleware, shutdown'da cache'i kapatmak için
// caller'a verilir.
//
// Route sıralama kuralı: Literal path'ler parametrik path'lerden ÖNCE
// tanımlanmalı. Örnek: "/api/servers/join" → "/api/servers/{serverId}"
// öncesinde, yoksa Go router "join" kelimesini bir serverId olarak yorumlar.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
	serverRepo repository.ServerRepository,
) *middleware.ServerMembershipMiddleware {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(authService, userRepo)
	serverMw := middleware.NewServerMembershipMiddleware(serverRepo)

	// ─── Middleware Chain Helpers ───
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}
	authServer := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(serverMw.Require(http.HandlerFunc(handler)))
	}

	// ─── Health check ───
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"kumru"}`))
	})

	// ─── Auth — public endpoint'ler (token gerekmez) ───
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)

	// ─── Users ───
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))
	mux.Handle("GET /api/users/lookup", auth(h.Auth.FindUser))

	// ─── Servers — liste, oluşturma, katılma ───
	// "join" literal'i {serverId}'den önce.
	mux.Handle("GET /api/servers", auth(h.Server.List))
	mux.Handle("POST /api/servers", auth(h.Server.Create))
	mux.Handle("POST /api/servers/join", auth(h.Server.Join))

	// ─── Servers — sunucu kapsamı (üyelik kontrolü) ───
	mux.Handle("GET /api/servers/{serverId}", authServer(h.Server.Get))
	mux.Handle("PATCH /api/servers/{serverId}", authServer(h.Server.Update))
	mux.Handle("DELETE /api/servers/{serverId}", authServer(h.Server.Delete))
	mux.Handle("POST /api/servers/{serverId}/leave", authServer(h.Server.Leave))
	mux.Handle("GET /api/servers/{serverId}/members", authServer(h.Server.Members))
	mux.Handle("POST /api/servers/{serverId}/members", authServer(h.Server.AddMember))
	mux.Handle("DELETE /api/servers/{serverId}/members/{userId}", authServer(h.Server.RemoveMember))
	mux.Handle("PATCH /api/servers/{serverId}/members/{userId}/ban", authServer(h.Server.Ban))
	mux.Handle("POST /api/servers/{serverId}/invite-code", authServer(h.Server.CreateInvite))

	// ─── Channels ───
	mux.Handle("GET /api/servers/{serverId}/channels", authServer(h.Channel.List))
	mux.Handle("POST /api/servers/{serverId}/channels", authServer(h.Channel.Create))
	mux.Handle("GET /api/channels/{id}", auth(h.Channel.Get))
	mux.Handle("PATCH /api/channels/{id}", auth(h.Channel.Update))
	mux.Handle("DELETE /api/channels/{id}", auth(h.Channel.Delete))
	mux.Handle("POST /api/channels/{id}/leave", auth(h.Channel.Leave))

	// ─── Messages ───
	mux.Handle("GET /api/channels/{id}/messages", auth(h.Message.List))
	mux.Handle("POST /api/channels/{id}/messages", auth(h.Message.Create))
	mux.Handle("PATCH /api/messages/{id}", auth(h.Message.Update))
	mux.Handle("DELETE /api/messages/{id}", auth(h.Message.Delete))

	// ─── Invitations ───
	mux.Handle("POST /api/invitations", auth(h.Invitation.Create))
	mux.Handle("GET /api/invitations", auth(h.Invitation.List))
	mux.Handle("POST /api/invitations/{id}/accept", auth(h.Invitation.Accept))
	mux.Handle("DELETE /api/invitations/{id}", auth(h.Invitation.Cancel))

	// ─── WebSocket — token query parameter ile authenticate edilir ───
	//
	// Neden auth middleware kullanmıyoruz?
	// WebSocket upgrade sırasında tarayıcılar custom HTTP header gönderemez.
	// Bu yüzden JWT token URL query parameter olarak gönderilir:
	//   ws://server/ws?token=JWT_TOKEN
	// WS handler kendi içinde token doğrulaması yapar.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)

	return serverMw
}
