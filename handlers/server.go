package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/services"
)

// ServerHandler, sunucu ve üyelik endpoint'lerini yöneten struct.
type ServerHandler struct {
	serverService services.ServerService
	maxUploadSize int64
}

// NewServerHandler, constructor.
func NewServerHandler(serverService services.ServerService, maxUploadSize int64) *ServerHandler {
	return &ServerHandler{
		serverService: serverService,
		maxUploadSize: maxUploadSize,
	}
}

// Create godoc
// POST /api/servers
// Yeni sunucu oluşturur. JSON veya multipart/form-data kabul eder.
//
// JSON body: { "name": "sunucu adı" }
// Multipart: name field + opsiyonel file (sunucu görseli)
func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateServerRequest
	var image *services.FileUpload

	if isMultipart(r.Header.Get("Content-Type")) {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "failed to parse multipart form")
			return
		}
		req.Name = r.FormValue("name")

		upload, file, err := formFileUpload(r)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid file upload")
			return
		}
		if file != nil {
			defer file.Close()
		}
		image = upload
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	server, err := h.serverService.CreateServer(r.Context(), user.ID, &req, image)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, server)
}

// List godoc
// GET /api/servers
// Kullanıcının üye olduğu sunucuları döner.
func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	servers, err := h.serverService.GetUserServers(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, servers)
}

// Get godoc
// GET /api/servers/{serverId}
func (h *ServerHandler) Get(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")

	server, err := h.serverService.GetServer(r.Context(), serverID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, server)
}

// Update godoc
// PATCH /api/servers/{serverId}
// Sunucu adını/görselini günceller. Sadece owner.
func (h *ServerHandler) Update(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.UpdateServerRequest
	var image *services.FileUpload

	if isMultipart(r.Header.Get("Content-Type")) {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "failed to parse multipart form")
			return
		}
		if name := r.FormValue("name"); name != "" {
			req.Name = &name
		}

		upload, file, err := formFileUpload(r)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid file upload")
			return
		}
		if file != nil {
			defer file.Close()
		}
		image = upload
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	server, err := h.serverService.UpdateServer(r.Context(), serverID, user.ID, &req, image)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, server)
}

// Delete godoc
// DELETE /api/servers/{serverId}
// Sunucuyu tüm kanal ve mesajlarıyla siler. Sadece owner.
func (h *ServerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.serverService.DeleteServer(r.Context(), serverID, user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "server deleted"})
}

// Leave godoc
// POST /api/servers/{serverId}/leave
// Kullanıcı sunucudan ayrılır. Son üyeyse sunucu silinir.
func (h *ServerHandler) Leave(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.serverService.LeaveServer(r.Context(), serverID, user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "left server"})
}

// Members godoc
// GET /api/servers/{serverId}/members
func (h *ServerHandler) Members(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")

	members, err := h.serverService.ListMembers(r.Context(), serverID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, members)
}

// memberRequest, üye ekleme/çıkarma/ban body formatı.
type memberRequest struct {
	UserID string            `json:"user_id"`
	Role   models.MemberRole `json:"role"`
	Banned bool              `json:"banned"`
}

// AddMember godoc
// POST /api/servers/{serverId}/members
// Kullanıcıyı doğrudan üye yapar. Sadece owner; role boşsa member kabul edilir.
func (h *ServerHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.serverService.AddMember(r.Context(), serverID, user.ID, req.UserID, req.Role); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, map[string]string{"message": "member added"})
}

// RemoveMember godoc
// DELETE /api/servers/{serverId}/members/{userId}
// Üyeyi sunucudan atar (kick). Sadece owner.
func (h *ServerHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")
	targetID := r.PathValue("userId")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.serverService.RemoveMember(r.Context(), serverID, user.ID, targetID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "member removed"})
}

// Ban godoc
// PATCH /api/servers/{serverId}/members/{userId}/ban
// Üyenin ban durumunu değiştirir. Sadece owner.
// Body: { "banned": true }
func (h *ServerHandler) Ban(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")
	targetID := r.PathValue("userId")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.serverService.BanMember(r.Context(), serverID, user.ID, targetID, req.Banned); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "ban status updated"})
}

// CreateInvite godoc
// POST /api/servers/{serverId}/invite-code
// Tek kullanımlık davet kodu üretir. Önceki kodun üzerine yazar. Her üye çağırabilir.
func (h *ServerHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	code, err := h.serverService.CreateInviteCode(r.Context(), serverID, user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, map[string]string{"code": code})
}

// Join godoc
// POST /api/servers/join
// Davet koduyla sunucuya katılır. Kod tek kullanımlıktır.
func (h *ServerHandler) Join(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.JoinByCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	server, err := h.serverService.JoinByCode(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, server)
}
