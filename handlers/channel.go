package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/services"
)

// ChannelHandler, kanal endpoint'lerini yöneten struct.
type ChannelHandler struct {
	channelService services.ChannelService
}

// NewChannelHandler, constructor.
func NewChannelHandler(channelService services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

// Create godoc
// POST /api/servers/{serverId}/channels
// Yeni kanal oluşturur. Kurucu tek üye olarak başlar.
func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	channel, err := h.channelService.CreateChannel(r.Context(), serverID, user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, channel)
}

// List godoc
// GET /api/servers/{serverId}/channels
// Sunucudaki tüm kanalları döner.
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")

	channels, err := h.channelService.ListChannels(r.Context(), serverID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, channels)
}

// Get godoc
// GET /api/channels/{id}
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	channel, err := h.channelService.GetChannel(r.Context(), id)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, channel)
}

// Update godoc
// PATCH /api/channels/{id}
// Kanalı düzenler. Sadece kurucu.
func (h *ChannelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.UpdateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	channel, err := h.channelService.UpdateChannel(r.Context(), id, user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, channel)
}

// Delete godoc
// DELETE /api/channels/{id}
// Kanalı mesajlarıyla birlikte siler. Sadece kurucu.
func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.channelService.DeleteChannel(r.Context(), id, user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "channel deleted"})
}

// Leave godoc
// POST /api/channels/{id}/leave
// Kullanıcı kanaldan ayrılır. Son üyeyse kanal silinir.
func (h *ChannelHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	result, err := h.channelService.LeaveChannel(r.Context(), id, user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, result)
}
