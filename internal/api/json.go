package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/resumectl/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errDetail struct {
	// Message is a string, or a list of strings for validation failures.
	Message any `json:"message" validate:"required"`
	Status  int `json:"status" example:"404" validate:"required"`
}

type errResponse struct {
	Error errDetail `json:"error" validate:"required"`
}

func errorBody(status int, msg any) errResponse {
	return errResponse{Error: errDetail{Message: msg, Status: status}}
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to its status code. Internal errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind == apperr.KindInternal {
		slog.Error(op+" failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(http.StatusInternalServerError, "internal error"))
		return
	}
	status := statusOf(e.Kind)
	if len(e.Details) > 0 {
		writeJSON(w, status, errorBody(status, e.Details))
		return
	}
	writeJSON(w, status, errorBody(status, e.Message))
}

// decodeJSON reads a single JSON value from the request body into dst.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.BadRequest("Request body is required.")
		case errors.As(err, &maxErr):
			return apperr.BadRequest("Request body is too large.")
		default:
			return apperr.BadRequest("Invalid JSON body: %s", err.Error())
		}
	}
	if dec.More() {
		return apperr.BadRequest("Request body must contain a single JSON value.")
	}
	return nil
}

// decodeValid decodes the body into dst and runs validate over it.
func decodeValid[T any](w http.ResponseWriter, r *http.Request, dst *T, validate func(*T) error) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	if validate == nil {
		return nil
	}
	return validationError(validate(dst))
}

// validationError turns ozzo validation errors into a BadRequest carrying one
// message per field, sorted by field name.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return fmt.Errorf("api: validate request: %w", err)
		}
		return apperr.Invalid([]string{err.Error()})
	}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	details := make([]string, 0, len(fields))
	for _, field := range fields {
		details = append(details, field+": "+errs[field].Error())
	}
	return apperr.Invalid(details)
}
