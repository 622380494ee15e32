package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"appreview/internal/bootstrap/logging"
	"appreview/internal/domain/directory"
	"appreview/internal/domain/review"
	"appreview/internal/errs"
	"appreview/internal/ports"
	"appreview/internal/usecase/account"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first sentinel found in the chain wins.
var errorMappings = []errorMapping{
	{review.ErrNotAuthenticated, http.StatusUnauthorized, "not_authenticated"},
	{account.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{account.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{review.ErrUnauthorizedApprover, http.StatusForbidden, "unauthorized_approver"},
	{review.ErrNoSupervisorAssigned, http.StatusUnprocessableEntity, "no_supervisor_assigned"},
	{review.ErrAlreadyDecided, http.StatusConflict, "already_decided"},
	{account.ErrUsernameTaken, http.StatusConflict, "username_taken"},
	{review.ErrInvalidRating, http.StatusBadRequest, "invalid_rating"},
	{review.ErrInvalidAction, http.StatusBadRequest, "invalid_action"},
	{account.ErrInvalidRegistration, http.StatusBadRequest, "invalid_registration"},
	{directory.ErrInvalidSupervisor, http.StatusBadRequest, "invalid_supervisor"},
	{ports.ErrNotFound, http.StatusNotFound, "not_found"},
	{ports.ErrConflict, http.StatusConflict, "conflict"},
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			writeJSON(w, mapping.status, errorBody{Error: err.Error(), Code: mapping.code})
			return
		}
	}

	logging.Error(r.Context(), "request failed", slog.Any("err", errs.Loggable(err)))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: message, Code: "bad_request"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
