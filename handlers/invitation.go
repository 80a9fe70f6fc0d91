package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/services"
)

// InvitationHandler, davet endpoint'lerini yöneten struct.
type InvitationHandler struct {
	invitationService services.InvitationService
}

// NewInvitationHandler, constructor.
func NewInvitationHandler(invitationService services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// Create godoc
// POST /api/invitations
// Kullanıcıya sunucu daveti gönderir.
// Aynı alıcıya ikinci davet 409 döner.
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	invitation, err := h.invitationService.CreateInvitation(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, invitation)
}

// List godoc
// GET /api/invitations
// Kullanıcıya gelen bekleyen davetleri döner.
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	invitations, err := h.invitationService.ListInvitations(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, invitations)
}

// Accept godoc
// POST /api/invitations/{id}/accept
// Daveti kabul eder: üyelik yazılır, davet silinir. Sadece alıcı.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	server, err := h.invitationService.AcceptInvitation(r.Context(), id, user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, server)
}

// Cancel godoc
// DELETE /api/invitations/{id}
// Daveti iptal eder. Gönderen veya alıcı.
func (h *InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.invitationService.CancelInvitation(r.Context(), id, user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "invitation cancelled"})
}
