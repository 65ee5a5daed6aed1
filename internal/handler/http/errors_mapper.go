package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/service"
	"github.com/medboxio/medbox/internal/utils"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrInvalidCredentials:      http.StatusUnauthorized,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,
	service.ErrAccountDisabled:         http.StatusUnauthorized,
	service.ErrAccountLocked:           http.StatusUnauthorized,
	service.ErrForbidden:               http.StatusForbidden,
	service.ErrUserNotFound:            http.StatusNotFound,
	service.ErrBoxNotFound:             http.StatusNotFound,
	service.ErrDuplicateUsername:       http.StatusConflict,
	service.ErrDuplicateBoxNumber:      http.StatusConflict,
	service.ErrCannotSelfDeactivate:    http.StatusBadRequest,
}

// errorMessageMap holds the client-facing message for each sentinel. The
// wording is part of the API contract with the SPA and must stay stable.
var errorMessageMap = map[error]string{
	service.ErrInvalidCredentials:      "Invalid username or PIN",
	service.ErrTokenIsExpiredOrInvalid: "Invalid or expired token",
	service.ErrAccountDisabled:         "Account is disabled. Contact an administrator.",
	service.ErrForbidden:               "Access denied",
	service.ErrUserNotFound:            "User not found",
	service.ErrBoxNotFound:             "Box not found",
	service.ErrDuplicateUsername:       "Username already exists",
	service.ErrDuplicateBoxNumber:      "Box number already exists",
	service.ErrCannotSelfDeactivate:    "Cannot deactivate your own account",
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

func messageFromError(err error) string {
	for target, message := range errorMessageMap {
		if errors.Is(err, target) {
			return message
		}
	}
	return err.Error()
}

// writeServiceError translates a service-layer error into the JSON error
// contract. Typed lockout errors are handled first because their messages
// carry dynamic data the sentinel map cannot express.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromRequest(r)

	var pinErr *service.PINMismatchError
	if errors.As(err, &pinErr) {
		utils.WriteJSONError(w,
			fmt.Sprintf("Invalid username or PIN. %d attempts remaining.", pinErr.AttemptsRemaining),
			http.StatusUnauthorized)
		return
	}

	// every login failure is a 401, locked and disabled accounts included
	var lockedErr *service.AccountLockedError
	if errors.As(err, &lockedErr) {
		utils.WriteJSONError(w,
			fmt.Sprintf("Account locked. Too many failed attempts. Try again in %d seconds.", lockedErr.RetryAfterSeconds()),
			http.StatusUnauthorized)
		return
	}

	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		log.Err(err).Msg("unexpected error")
		utils.WriteJSONError(w, http.StatusText(http.StatusInternalServerError), status)
		return
	}

	log.Err(err).Int("status", status).Send()
	utils.WriteJSONError(w, messageFromError(err), status)
}
