package api

import (
	"encoding/json"
	"net/http"

	"github.com/starford/resumectl/internal/checksum"
	"github.com/starford/resumectl/internal/models"
)

// ListDocuments handles GET /users/{username}/documents.
//
//	@Summary		List documents, master first
//	@Tags			documents
//	@Produce		json
//	@Param			username	path		string	true	"Username"
//	@Success		200			{object}	map[string][]models.Document
//	@Security		BearerAuth
//	@Router			/users/{username}/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListDocuments(r.Context(), username(r))
	if err != nil {
		writeError(w, r, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// CreateDocument handles POST /users/{username}/documents.
//
//	@Summary		Create a document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			username	path		string				true	"Username"
//	@Param			body		body		models.NewDocument	true	"Document"
//	@Success		201			{object}	map[string]models.Document
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{username}/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req models.NewDocument
	if err := decodeValid(w, r, &req, validateNewDocument); err != nil {
		writeError(w, r, "create document", err)
		return
	}
	doc, err := h.svc.CreateDocument(r.Context(), username(r), req)
	if err != nil {
		writeError(w, r, "create document", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"document": doc})
}

// GetDocument handles GET /users/{username}/documents/{documentId}.
//
//	@Summary		Get a document with its ordered content
//	@Tags			documents
//	@Produce		json
//	@Param			username	path		string	true	"Username"
//	@Param			documentId	path		int		true	"Document ID"
//	@Param			If-None-Match	header	string	false	"ETag of a previous response"
//	@Success		200			{object}	map[string]models.DocumentContent
//	@Success		304			"Document unchanged"
//	@Failure		403			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{username}/documents/{documentId} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "documentId")
	if err != nil {
		writeError(w, r, "get document", err)
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), username(r), id)
	if err != nil {
		writeError(w, r, "get document", err)
		return
	}
	body, err := json.Marshal(map[string]any{"document": doc})
	if err != nil {
		writeError(w, r, "get document", err)
		return
	}
	etag := checksum.ETag(body)
	w.Header().Set("ETag", etag)
	if checksum.Matches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// UpdateDocument handles PATCH /users/{username}/documents/{documentId}.
// The master document only accepts a new name.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "documentId")
	if err != nil {
		writeError(w, r, "update document", err)
		return
	}
	var req models.DocumentUpdate
	if err := decodeValid(w, r, &req, validateDocumentUpdate); err != nil {
		writeError(w, r, "update document", err)
		return
	}
	doc, err := h.svc.UpdateDocument(r.Context(), username(r), id, req)
	if err != nil {
		writeError(w, r, "update document", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

// DeleteDocument handles DELETE /users/{username}/documents/{documentId}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "documentId")
	if err != nil {
		writeError(w, r, "delete document", err)
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), username(r), id); err != nil {
		writeError(w, r, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AttachSection(w http.ResponseWriter, r *http.Request) {
	docID, err := idParam(r, "documentId")
	if err != nil {
		writeError(w, r, "attach section", err)
		return
	}
	sectionID, err := idParam(r, "sectionId")
	if err != nil {
		writeError(w, r, "attach section", err)
		return
	}
	row, err := h.svc.AttachSection(r.Context(), username(r), docID, sectionID)
	if err != nil {
		writeError(w, r, "attach section", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"document_x_section": row})
}

func (h *Handler) ReorderSections(w http.ResponseWriter, r *http.Request) {
	docID, err := idParam(r, "documentId")
	if err != nil {
		writeError(w, r, "reorder sections", err)
		return
	}
	var ids []int64
	if err := decodeJSON(w, r, &ids); err != nil {
		writeError(w, r, "reorder sections", err)
		return
	}
	sections, err := h.svc.ReorderSections(r.Context(), username(r), docID, ids)
	if err != nil {
		writeError(w, r, "reorder sections", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

func (h *Handler) DetachSection(w http.ResponseWriter, r *http.Request) {
	docID, err := idParam(r, "documentId")
	if err != nil {
		writeError(w, r, "detach section", err)
		return
	}
	sectionID, err := idParam(r, "sectionId")
	if err != nil {
		writeError(w, r, "detach section", err)
		return
	}
	if err := h.svc.DetachSection(r.Context(), username(r), docID, sectionID); err != nil {
		writeError(w, r, "detach section", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
