package http

import (
	"encoding/json"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/utils"
	"github.com/medboxio/medbox/models"
)

// loginPINPattern gates the PIN shape at the boundary, before the credential
// check runs. A malformed PIN must never reach the hash comparison or burn a
// lockout attempt.
var loginPINPattern = regexp.MustCompile(`^\d{4}$`)

type loginRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteJSONError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if l := len(strings.TrimSpace(req.Username)); l < 2 || l > 30 {
		log.Error().Msg("login username fails length bounds")
		utils.WriteJSONError(w, "Username must be 2-30 characters", http.StatusBadRequest)
		return
	}
	if !loginPINPattern.MatchString(req.PIN) {
		log.Error().Msg("login PIN is not 4 digits")
		utils.WriteJSONError(w, "PIN must be exactly 4 digits", http.StatusBadRequest)
		return
	}

	user, token, err := h.services.AuthService.Login(ctx, req.Username, req.PIN)
	if err != nil {
		normalized := models.NormalizeUsername(req.Username)
		h.services.AuditService.Record(ctx, models.AuditEntry{
			UserID:     normalized,
			Username:   normalized,
			Action:     models.ActionLoginFailed,
			TargetType: "user",
			TargetID:   normalized,
			Details:    map[string]any{"reason": err.Error()},
			IPAddress:  clientIP(r),
			Success:    false,
		})

		writeServiceError(w, r, err)
		return
	}

	log.Debug().Str("uid", user.ID).Msg("user successfully logged in")

	h.services.AuditService.Record(ctx, models.AuditEntry{
		UserID:     user.ID,
		Username:   user.Username,
		Action:     models.ActionLogin,
		TargetType: "user",
		TargetID:   user.ID,
		IPAddress:  clientIP(r),
		Success:    true,
	})

	utils.WriteJSON(w, loginResponse{Token: token, User: user}, http.StatusOK)
}

// actorFromRequest resolves the authenticated identity placed in the context
// by the auth middleware. A missing identity means the route was wired
// without the middleware, so the request is rejected.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return models.Identity{}, false
	}
	return identity, true
}

// clientIP returns the originating address of the request, preferring the
// first entry of "X-Forwarded-For" when the server sits behind a proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
