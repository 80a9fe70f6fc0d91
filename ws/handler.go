package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/seyhanc/kumru/models"
)

// TokenValidator, WebSocket handler'ın JWT doğrulaması için kullandığı
// interface.
//
// services.AuthService doğrudan kullanılamaz: services paketi
// ws.EventPublisher'a bağımlıdır, ters yön import cycle yaratır.
// main.go'da authService bu interface'i implicit olarak karşılar.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// upgrader, HTTP bağlantısını WebSocket'e yükseltir.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin: production'da domain kontrolü yapılmalı.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
}

// NewHandler, yeni bir WebSocket handler oluşturur.
func NewHandler(hub *Hub, tokenValidator TokenValidator) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
	}
}

// HandleConnection, bağlantıyı WebSocket'e yükseltir ve client'ı hub'a
// kaydeder.
//
// Tarayıcılar WebSocket upgrade isteğine custom header ekleyemez;
// token bu yüzden query parameter olarak gelir: ws://host/ws?token=JWT
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	client := &Client{
		hub:      h.hub,
		conn:     conn,
		userID:   claims.UserID,
		username: claims.Username,
		send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[string]bool),
	}

	h.hub.register <- client

	client.sendEvent(Event{
		Op:   OpReady,
		Data: ReadyData{UserID: claims.UserID, Username: claims.Username},
	})

	// WritePump ayrı goroutine'de; ReadPump bu goroutine'de bloklar —
	// handler dönerse bağlantı kapanırdı.
	go client.WritePump()
	client.ReadPump()
}
