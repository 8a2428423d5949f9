package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/observability"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError maps err to a status and a JSON error body. Errors without a
// code are reported as INTERNAL_ERROR and their text is not sent.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)

	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		code = errors.ErrCodeInvalidInput
		msg = fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)
	case code == "" && stderrors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		code = errors.ErrCodeTimeout
		msg = "request timed out"
	case code == "":
		code = errors.ErrCodeInternal
		msg = "internal error"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err, "request_id", RequestID(r.Context()))
	}
	observability.HTTP().OnError(r.Context(), r.Method, routeOf(r), err)

	writeJSON(w, status, ErrorResponse{
		Code:      string(code),
		Message:   msg,
		RequestID: RequestID(r.Context()),
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Code:      string(errors.ErrCodeNotFound),
		Message:   fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
		RequestID: RequestID(r.Context()),
	})
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Code:      string(errors.ErrCodeUnsupported),
		Message:   fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path),
		RequestID: RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
