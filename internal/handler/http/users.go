package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/service"
	"github.com/medboxio/medbox/internal/utils"
	"github.com/medboxio/medbox/models"
)

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req service.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteJSONError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	created, err := h.services.UserService.CreateUser(ctx, actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.services.AuditService.Record(ctx, models.AuditEntry{
		UserID:     actor.UID,
		Username:   actor.Username,
		Action:     models.ActionUserCreate,
		TargetType: "user",
		TargetID:   created.ID,
		Details:    map[string]any{"role": created.Role},
		IPAddress:  clientIP(r),
		Success:    true,
	})

	utils.WriteJSON(w, created, http.StatusCreated)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.services.UserService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, users, http.StatusOK)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.services.UserService.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, user, http.StatusOK)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Role models.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteJSONError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := h.services.UserService.UpdateRole(ctx, actor, id, req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.services.AuditService.Record(ctx, models.AuditEntry{
		UserID:     actor.UID,
		Username:   actor.Username,
		Action:     models.ActionUserRoleChange,
		TargetType: "user",
		TargetID:   id,
		Details:    map[string]any{"role": req.Role},
		IPAddress:  clientIP(r),
		Success:    true,
	})

	utils.WriteJSON(w, updated, http.StatusOK)
}

func (h *Handler) resetPIN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteJSONError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.services.UserService.ResetPIN(ctx, actor, id, req.PIN); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.services.AuditService.Record(ctx, models.AuditEntry{
		UserID:     actor.UID,
		Username:   actor.Username,
		Action:     models.ActionUserPINReset,
		TargetType: "user",
		TargetID:   id,
		IPAddress:  clientIP(r),
		Success:    true,
	})

	utils.WriteJSON(w, map[string]string{"message": "PIN reset successfully"}, http.StatusOK)
}

func (h *Handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.services.UserService.Deactivate(ctx, actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.services.AuditService.Record(ctx, models.AuditEntry{
		UserID:     actor.UID,
		Username:   actor.Username,
		Action:     models.ActionUserDelete,
		TargetType: "user",
		TargetID:   id,
		IPAddress:  clientIP(r),
		Success:    true,
	})

	utils.WriteJSON(w, map[string]string{"message": "User deactivated"}, http.StatusOK)
}
