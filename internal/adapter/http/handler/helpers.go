package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/nhangsach/depositledger/internal/adapter/http/dto"
	"github.com/nhangsach/depositledger/internal/domain"
)

// maxBodyBytes caps request bodies; ledger requests are a few hundred bytes.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
		Kind:    kindForStatus(status),
	})
}

// writeDomainError maps err to a status and writes it with its kind.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	if status == http.StatusConflict && errors.Is(err, domain.ErrConcurrentConflict) {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, errorBody(message, err))
}

func errorBody(message string, err error) *dto.ErrorResponse {
	kind := domain.KindOf(err)
	details := err.Error()
	switch kind {
	case domain.KindStorageFailure:
		details = "storage temporarily unavailable, retry later"
	case domain.KindUnknown:
		details = "internal error"
	}

	return &dto.ErrorResponse{
		Error:   message,
		Message: details,
		Kind:    string(kind),
	}
}

// mapDomainError maps domain error kinds to HTTP status codes.
func mapDomainError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidState, domain.KindConcurrentConflict:
		return http.StatusConflict
	case domain.KindInsufficientBalance:
		return http.StatusUnprocessableEntity
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindStorageFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domain.KindInvalidArgument)
	case http.StatusNotFound:
		return string(domain.KindNotFound)
	case http.StatusServiceUnavailable:
		return string(domain.KindStorageFailure)
	default:
		return ""
	}
}

// decodeJSON decodes a size-limited request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseStrictIntQuery is parseIntQuery for parameters that must not be silently defaulted.
func parseStrictIntQuery(r *http.Request, key string, defaultValue int) (int, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidArgument, key)
	}
	return i, nil
}
