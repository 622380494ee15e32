package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"appreview/internal/domain/review"
	"appreview/internal/usecase/account"
	catalogusecase "appreview/internal/usecase/catalog"
	"appreview/internal/usecase/moderation"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeBadRequest(w, "invalid payload")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		writeBadRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	result, err := h.catalog.Search(r.Context(), catalogusecase.SearchInput{
		Query: query.Get("q"),
		Page:  page,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchPageDTO(result))
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	names, err := h.catalog.Suggestions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *Handler) handleEntryDetail(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "entryID")
	if !ok {
		return
	}
	detail, err := h.moderation.EntryDetail(r.Context(), entryID, currentUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDetailDTO(detail))
}

type submitReviewRequest struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

type submitReviewResponse struct {
	Review         reviewDTO `json:"review"`
	SupervisorName string    `json:"supervisor_name"`
}

func (h *Handler) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "entryID")
	if !ok {
		return
	}
	var req submitReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	submitted, err := h.moderation.SubmitReview(r.Context(), moderation.SubmitReviewInput{
		AuthorID: currentUserID(r.Context()),
		EntryID:  entryID,
		Body:     req.Text,
		Rating:   req.Rating,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitReviewResponse{
		Review:         toReviewDTO(submitted.Review),
		SupervisorName: submitted.SupervisorName,
	})
}

type decisionRequest struct {
	Action string `json:"action"`
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.decide(w, r, req.Action)
}

func (h *Handler) handleFixedDecision(action review.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.decide(w, r, string(action))
	}
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string) {
	reviewID, ok := pathID(w, r, "reviewID")
	if !ok {
		return
	}
	decided, err := h.moderation.ActOnReview(r.Context(), moderation.ActInput{
		ActorID:  currentUserID(r.Context()),
		ReviewID: reviewID,
		Action:   action,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewDTO(decided))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.moderation.Dashboard(r.Context(), currentUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(dashboard))
}

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Password     string `json:"password"`
	IsSupervisor bool   `json:"is_supervisor"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		Password:     req.Password,
		IsSupervisor: req.IsSupervisor,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	User      userDTO `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}
	session, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toUserDTO(session.User),
	})
}

func (h *Handler) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r.Context())
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(tokenKey).(string)
	if err := h.accounts.Logout(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
