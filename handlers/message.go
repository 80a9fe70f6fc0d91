package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/pkg/ratelimit"
	"github.com/seyhanc/kumru/services"
)

// MessageHandler, mesaj endpoint'lerini yöneten struct.
type MessageHandler struct {
	messageService services.MessageService
	messageLimiter *ratelimit.Limiter
	maxUploadSize  int64
}

// NewMessageHandler, constructor.
// messageLimiter: kullanıcı bazlı spam koruması (nil ise devre dışı).
func NewMessageHandler(
	messageService services.MessageService,
	messageLimiter *ratelimit.Limiter,
	maxUploadSize int64,
) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		messageLimiter: messageLimiter,
		maxUploadSize:  maxUploadSize,
	}
}

// List godoc
// GET /api/channels/{id}/messages?before=ID&limit=50
// Mesajları cursor-based pagination ile döner.
//
// Query parametreleri:
// - before: Bu mesaj ID'sinden önceki mesajları getir (boşsa en yenilerden başla)
// - limit: Kaç mesaj dönsün (default 50, max 100)
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")

	before := r.URL.Query().Get("before")

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	page, err := h.messageService.ListMessages(r.Context(), channelID, before, limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// Create godoc
// POST /api/channels/{id}/messages
// Yeni mesaj gönderir. JSON veya multipart/form-data kabul eder.
//
// JSON body: { "content": "mesaj metni" }
// Multipart: content field + opsiyonel file
// Kullanıcı bazlı rate limit: pencere aşılırsa 429 + Retry-After döner.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if h.messageLimiter != nil && !h.messageLimiter.Allow(user.ID) {
		seconds := h.messageLimiter.RetryAfterSeconds(user.ID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("sending too fast, try again in %s", ratelimit.FormatRetryMessage(seconds)))
		return
	}

	var req models.CreateMessageRequest
	var upload *services.FileUpload

	if isMultipart(r.Header.Get("Content-Type")) {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "failed to parse multipart form")
			return
		}
		req.Content = r.FormValue("content")

		u, file, err := formFileUpload(r)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid file upload")
			return
		}
		if file != nil {
			defer file.Close()
		}
		upload = u
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	message, err := h.messageService.CreateMessage(r.Context(), channelID, user.ID, user.Username, &req, upload)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, message)
}

// Update godoc
// PATCH /api/messages/{id}
// Mesajı düzenler. Sadece mesaj sahibi.
func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.messageService.UpdateMessage(r.Context(), id, user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, message)
}

// Delete godoc
// DELETE /api/messages/{id}
// Mesajı siler. Mesaj sahibi veya sunucu owner'ı.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.messageService.DeleteMessage(r.Context(), id, user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}
