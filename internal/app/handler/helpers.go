// Package handler contains the HTTP handlers of the service: the public
// redirect endpoint that turns short codes into redirects, and the admin
// console API used to create, list and delete short links.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortlinks/internal/app/service"
	"github.com/atinyakov/go-shortlinks/internal/models"
	"github.com/atinyakov/go-shortlinks/internal/storage"
)

// requestTimeout bounds storage work done on behalf of one admin request.
const requestTimeout = 3 * time.Second

// maxBodySize limits request bodies to 1MB.
const maxBodySize = 1 << 20

// malformedRequest represents an error with a malformed HTTP request.
type malformedRequest struct {
	status int
	msg    string
}

func (mr *malformedRequest) Error() string {
	return mr.msg
}

// isForm reports whether the request carries an HTML form body.
func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

// parseForm reads a urlencoded or multipart form body into r.Form.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(maxBodySize)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return &malformedRequest{status: http.StatusBadRequest, msg: "Request body contains a malformed form"}
	}
	return nil
}

// decodeJSONBody decodes a JSON request body into dst, turning the usual
// decoding failures into malformedRequest errors.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	ct := r.Header.Get("Content-Type")
	if ct != "" {
		mediaType := strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
		if mediaType != "application/json" {
			msg := "Content-Type header is not application/json"
			return &malformedRequest{status: http.StatusUnsupportedMediaType, msg: msg}
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
			return &malformedRequest{status: http.StatusBadRequest, msg: msg}

		case errors.Is(err, io.ErrUnexpectedEOF):
			msg := "Request body contains badly-formed JSON"
			return &malformedRequest{status: http.StatusBadRequest, msg: msg}

		case errors.As(err, &unmarshalTypeError):
			msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
			return &malformedRequest{status: http.StatusBadRequest, msg: msg}

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			msg := fmt.Sprintf("Request body contains unknown field %s", fieldName)
			return &malformedRequest{status: http.StatusBadRequest, msg: msg}

		case errors.Is(err, io.EOF):
			msg := "Request body must not be empty"
			return &malformedRequest{status: http.StatusBadRequest, msg: msg}

		case errors.As(err, &maxBytesError):
			msg := "Request body must not be larger than 1MB"
			return &malformedRequest{status: http.StatusRequestEntityTooLarge, msg: msg}

		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		msg := "Request body must only contain a single JSON object"
		return &malformedRequest{status: http.StatusBadRequest, msg: msg}
	}

	return nil
}

// writeJSON encodes body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Cannot write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, logger *zap.Logger) {
	writeJSON(w, status, models.ErrorResponse{Error: msg}, logger)
}

// writeDecodeError answers a failed body decode.
func writeDecodeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var mr *malformedRequest
	if errors.As(err, &mr) {
		writeError(w, mr.status, mr.msg, logger)
		return
	}

	logger.Error("Cannot decode request body", zap.Error(err))
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), logger)
}

// writeServiceError maps domain errors onto HTTP statuses. Anything unknown
// is logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	switch {
	case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, err.Error(), logger)
	case errors.Is(err, storage.ErrCodeTaken):
		writeError(w, http.StatusConflict, err.Error(), logger)
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), logger)
	case errors.Is(err, service.ErrCodeGeneration):
		logger.Error("Short code space exhausted", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error(), logger)
	default:
		logger.Error("Storage failure", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), logger)
	}
}
