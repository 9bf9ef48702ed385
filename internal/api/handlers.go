package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/models"
	"github.com/starford/resumectl/internal/resumeservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *resumeservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *resumeservice.Service) *Handler {
	return &Handler{svc: svc}
}

func username(r *http.Request) string {
	return chi.URLParam(r, "username")
}

// idParam parses the positive integer URL parameter name.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("Invalid %s %q.", name, raw)
	}
	return id, nil
}

// Register handles POST /auth/register.
//
//	@Summary		Create an account
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CredentialsRequest	true	"New credentials"
//	@Success		201		{object}	TokenResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeValid(w, r, &req, validateRegister); err != nil {
		writeError(w, r, "register", err)
		return
	}
	token, err := h.svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, TokenResponse{AuthToken: token})
}

// SignIn handles POST /auth/signin.
//
//	@Summary		Exchange credentials for a token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CredentialsRequest	true	"Credentials"
//	@Success		200		{object}	TokenResponse
//	@Failure		401		{object}	errResponse
//	@Router			/auth/signin [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeValid(w, r, &req, validateSignIn); err != nil {
		writeError(w, r, "sign in", err)
		return
	}
	token, err := h.svc.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, "sign in", err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AuthToken: token})
}

// UpdateUser handles PATCH /users/{username}.
//
//	@Summary		Change the account password
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			username	path		string						true	"Username"
//	@Param			body		body		resumeservice.UserUpdate	true	"Old and new password"
//	@Success		200			{object}	map[string]models.User
//	@Failure		400			{object}	errResponse
//	@Failure		401			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{username} [patch]
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req resumeservice.UserUpdate
	if err := decodeValid(w, r, &req, validateUserUpdate); err != nil {
		writeError(w, r, "update user", err)
		return
	}
	user, err := h.svc.UpdateUser(r.Context(), username(r), req)
	if err != nil {
		writeError(w, r, "update user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// DeleteUser handles DELETE /users/{username}.
//
//	@Summary		Delete the account and everything it owns
//	@Tags			users
//	@Param			username	path	string	true	"Username"
//	@Success		204			"User deleted"
//	@Security		BearerAuth
//	@Router			/users/{username} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), username(r)); err != nil {
		writeError(w, r, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetContactInfo handles GET /users/{username}/contact-info.
func (h *Handler) GetContactInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.GetContactInfo(r.Context(), username(r))
	if err != nil {
		writeError(w, r, "get contact info", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contactInfo": info})
}

// PutContactInfo handles PUT /users/{username}/contact-info.
func (h *Handler) PutContactInfo(w http.ResponseWriter, r *http.Request) {
	var req models.ContactInfoInput
	if err := decodeValid(w, r, &req, validateContactInfo); err != nil {
		writeError(w, r, "put contact info", err)
		return
	}
	info, err := h.svc.PutContactInfo(r.Context(), username(r), req)
	if err != nil {
		writeError(w, r, "put contact info", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contactInfo": info})
}

// ListSections handles GET /sections.
//
//	@Summary		List the sections a document can contain
//	@Tags			sections
//	@Produce		json
//	@Success		200	{object}	map[string][]models.Section
//	@Router			/sections [get]
func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.svc.ListSections(r.Context())
	if err != nil {
		writeError(w, r, "list sections", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}
