package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/utils"
	"github.com/medboxio/medbox/models"
)

func (h *Handler) createBox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var box models.Box
	if err := json.NewDecoder(r.Body).Decode(&box); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteJSONError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	created, err := h.services.BoxService.CreateBox(ctx, actor, box)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.services.AuditService.Record(ctx, models.AuditEntry{
		UserID:     actor.UID,
		Username:   actor.Username,
		Action:     models.ActionBoxCreate,
		TargetType: "box",
		TargetID:   created.ID,
		Details:    map[string]any{"boxNumber": created.BoxNumber},
		IPAddress:  clientIP(r),
		Success:    true,
	})

	utils.WriteJSON(w, created, http.StatusCreated)
}

func (h *Handler) listBoxes(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	boxes, err := h.services.BoxService.ListBoxes(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, boxes, http.StatusOK)
}

func (h *Handler) getBox(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	box, err := h.services.BoxService.GetBox(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, box, http.StatusOK)
}

func (h *Handler) updateBox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var update models.BoxUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteJSONError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := h.services.BoxService.UpdateBox(ctx, actor, id, update)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// an update that sets the inventory date is an inventory check,
	// everything else is a plain edit
	action := models.ActionBoxUpdate
	if update.LastInventoryDate != nil {
		action = models.ActionInventoryCheck
	}

	h.services.AuditService.Record(ctx, models.AuditEntry{
		UserID:     actor.UID,
		Username:   actor.Username,
		Action:     action,
		TargetType: "box",
		TargetID:   id,
		Details:    map[string]any{"boxNumber": updated.BoxNumber},
		IPAddress:  clientIP(r),
		Success:    true,
	})

	utils.WriteJSON(w, updated, http.StatusOK)
}

func (h *Handler) deleteBox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.services.BoxService.DeleteBox(ctx, actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.services.AuditService.Record(ctx, models.AuditEntry{
		UserID:     actor.UID,
		Username:   actor.Username,
		Action:     models.ActionBoxDelete,
		TargetType: "box",
		TargetID:   id,
		IPAddress:  clientIP(r),
		Success:    true,
	})

	utils.WriteJSON(w, map[string]string{"message": "Box deleted"}, http.StatusOK)
}

func (h *Handler) assignBox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		UserIDs *[]string `json:"userIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteJSONError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}
	// a missing field must not read as "unassign everyone"
	if req.UserIDs == nil {
		log.Error().Msg("userIds array is required")
		utils.WriteJSONError(w, "userIds must be an array", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	box, err := h.services.BoxService.AssignBox(ctx, actor, id, *req.UserIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.services.AuditService.Record(ctx, models.AuditEntry{
		UserID:     actor.UID,
		Username:   actor.Username,
		Action:     models.ActionBoxAssign,
		TargetType: "box",
		TargetID:   id,
		Details:    map[string]any{"assignedTo": box.AssignedTo},
		IPAddress:  clientIP(r),
		Success:    true,
	})

	utils.WriteJSON(w, box, http.StatusOK)
}

// inventoryCheck replaces the box's medication list and stamps the inventory
// date. Assigned users may do this; the box number stays untouched, so the
// non-admin update rules in the service layer allow it.
func (h *Handler) inventoryCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Medications *[]models.Medication `json:"medications"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteJSONError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}
	if req.Medications == nil {
		log.Error().Msg("medications array is required")
		utils.WriteJSONError(w, "medications array is required", http.StatusBadRequest)
		return
	}

	checkedAt := time.Now().UTC()
	id := chi.URLParam(r, "id")
	updated, err := h.services.BoxService.UpdateBox(ctx, actor, id, models.BoxUpdate{
		Medications:       req.Medications,
		LastInventoryDate: &checkedAt,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.services.AuditService.Record(ctx, models.AuditEntry{
		UserID:     actor.UID,
		Username:   actor.Username,
		Action:     models.ActionInventoryCheck,
		TargetType: "box",
		TargetID:   id,
		Details:    map[string]any{"boxNumber": updated.BoxNumber, "medicationCount": len(*req.Medications)},
		IPAddress:  clientIP(r),
		Success:    true,
	})

	utils.WriteJSON(w, updated, http.StatusOK)
}
