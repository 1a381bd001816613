package server

import (
	"encoding/json"
	"net/http"

	errs "github.com/matzehuels/trazo/pkg/errors"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    string(code),
		Message: errs.UserMessage(err),
	})
}

// statusOf maps an error code to an HTTP status.
func statusOf(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeEmptyInput, errs.ErrCodeInvalidVariant,
		errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidWorkspace:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound:
		return http.StatusNotFound
	case errs.ErrCodePipelineTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrCodeCancelled:
		return http.StatusConflict
	case errs.ErrCodePersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
