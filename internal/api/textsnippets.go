package api

import (
	"net/http"

	"github.com/starford/resumectl/internal/models"
	"github.com/starford/resumectl/internal/resumeservice"
)

func (h *Handler) ListTextSnippets(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.svc.ListTextSnippets(r.Context(), username(r))
	if err != nil {
		writeError(w, r, "list text snippets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"textSnippets": snippets})
}

// ListTextSnippetVersions handles GET /users/{username}/text-snippets/{snippetId}/versions.
func (h *Handler) ListTextSnippetVersions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "snippetId")
	if err != nil {
		writeError(w, r, "list text snippet versions", err)
		return
	}
	versions, err := h.svc.ListTextSnippetVersions(r.Context(), username(r), id)
	if err != nil {
		writeError(w, r, "list text snippet versions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"textSnippets": versions})
}

// UpdateTextSnippet handles PATCH /users/{username}/text-snippets/{snippetId}.
//
//	@Summary		Store a new version of a text snippet
//	@Tags			text-snippets
//	@Accept			json
//	@Produce		json
//	@Param			username	path		string						true	"Username"
//	@Param			snippetId	path		int							true	"Text snippet ID"
//	@Param			body		body		TextSnippetUpdateRequest	true	"Version to update and new values"
//	@Success		200			{object}	map[string]models.TextSnippet
//	@Failure		400			{object}	errResponse
//	@Failure		403			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{username}/text-snippets/{snippetId} [patch]
func (h *Handler) UpdateTextSnippet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "snippetId")
	if err != nil {
		writeError(w, r, "update text snippet", err)
		return
	}
	var req TextSnippetUpdateRequest
	if err := decodeValid(w, r, &req, validateTextSnippetUpdate); err != nil {
		writeError(w, r, "update text snippet", err)
		return
	}
	key := resumeservice.SnippetKey{ID: id, Version: req.TextSnippetVersion}
	snippet, err := h.svc.UpdateTextSnippet(r.Context(), username(r), key, models.TextSnippetUpdate{
		Type:    req.Type,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, r, "update text snippet", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"textSnippet": snippet})
}

// DeleteTextSnippet handles DELETE /users/{username}/text-snippets/{snippetId}.
// The body names the version to delete.
func (h *Handler) DeleteTextSnippet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "snippetId")
	if err != nil {
		writeError(w, r, "delete text snippet", err)
		return
	}
	var req SnippetVersionRequest
	if err := decodeValid(w, r, &req, validateSnippetVersion); err != nil {
		writeError(w, r, "delete text snippet", err)
		return
	}
	key := resumeservice.SnippetKey{ID: id, Version: req.TextSnippetVersion}
	if err := h.svc.DeleteTextSnippet(r.Context(), username(r), key); err != nil {
		writeError(w, r, "delete text snippet", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func documentAndExperience(r *http.Request) (int64, int64, error) {
	docID, err := idParam(r, "documentId")
	if err != nil {
		return 0, 0, err
	}
	expID, err := idParam(r, "experienceId")
	if err != nil {
		return 0, 0, err
	}
	return docID, expID, nil
}

func (h *Handler) ListExperienceTextSnippets(w http.ResponseWriter, r *http.Request) {
	docID, expID, err := documentAndExperience(r)
	if err != nil {
		writeError(w, r, "list experience text snippets", err)
		return
	}
	snippets, err := h.svc.ListExperienceTextSnippets(r.Context(), username(r), docID, expID)
	if err != nil {
		writeError(w, r, "list experience text snippets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"textSnippets": snippets})
}

// CreateTextSnippet handles
// POST /users/{username}/documents/{documentId}/experiences/{experienceId}/text-snippets.
func (h *Handler) CreateTextSnippet(w http.ResponseWriter, r *http.Request) {
	docID, expID, err := documentAndExperience(r)
	if err != nil {
		writeError(w, r, "create text snippet", err)
		return
	}
	var req models.NewTextSnippet
	if err := decodeValid(w, r, &req, validateNewTextSnippet); err != nil {
		writeError(w, r, "create text snippet", err)
		return
	}
	snippet, row, err := h.svc.CreateTextSnippet(r.Context(), username(r), docID, expID, req)
	if err != nil {
		writeError(w, r, "create text snippet", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"textSnippet":              snippet,
		"experience_x_textSnippet": row,
	})
}

func (h *Handler) AttachTextSnippet(w http.ResponseWriter, r *http.Request) {
	docID, expID, err := documentAndExperience(r)
	if err != nil {
		writeError(w, r, "attach text snippet", err)
		return
	}
	snippetID, err := idParam(r, "snippetId")
	if err != nil {
		writeError(w, r, "attach text snippet", err)
		return
	}
	var req SnippetVersionRequest
	if err := decodeValid(w, r, &req, validateSnippetVersion); err != nil {
		writeError(w, r, "attach text snippet", err)
		return
	}
	key := resumeservice.SnippetKey{ID: snippetID, Version: req.TextSnippetVersion}
	row, err := h.svc.AttachTextSnippet(r.Context(), username(r), docID, expID, key)
	if err != nil {
		writeError(w, r, "attach text snippet", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"experience_x_textSnippet": row})
}

func (h *Handler) ReorderTextSnippets(w http.ResponseWriter, r *http.Request) {
	docID, expID, err := documentAndExperience(r)
	if err != nil {
		writeError(w, r, "reorder text snippets", err)
		return
	}
	var ids []int64
	if err := decodeJSON(w, r, &ids); err != nil {
		writeError(w, r, "reorder text snippets", err)
		return
	}
	snippets, err := h.svc.ReorderTextSnippets(r.Context(), username(r), docID, expID, ids)
	if err != nil {
		writeError(w, r, "reorder text snippets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"textSnippets": snippets})
}

func (h *Handler) DetachTextSnippet(w http.ResponseWriter, r *http.Request) {
	docID, expID, err := documentAndExperience(r)
	if err != nil {
		writeError(w, r, "detach text snippet", err)
		return
	}
	snippetID, err := idParam(r, "snippetId")
	if err != nil {
		writeError(w, r, "detach text snippet", err)
		return
	}
	if err := h.svc.DetachTextSnippet(r.Context(), username(r), docID, expID, snippetID); err != nil {
		writeError(w, r, "detach text snippet", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
