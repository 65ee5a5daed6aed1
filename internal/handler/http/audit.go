package http

import (
	"net/http"
	"strconv"

	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/utils"
	"github.com/medboxio/medbox/models"
)

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	filter := models.AuditFilter{
		UserID:   r.URL.Query().Get("userId"),
		Action:   models.Action(r.URL.Query().Get("action")),
		TargetID: r.URL.Query().Get("targetId"),
	}

	// non-admins only ever see their own trail, whatever filter they ask for
	if !actor.IsAdmin() {
		filter.UserID = actor.UID
	}

	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 1 {
			log.Error().Str("limit", rawLimit).Msg("invalid limit query parameter")
			utils.WriteJSONError(w, "invalid limit query parameter", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	entries, err := h.services.AuditService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, entries, http.StatusOK)
}
