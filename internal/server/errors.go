package server

import (
	"encoding/json"
	"net/http"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	logpkg "github.com/kailas-cloud/vecsearch/internal/logger"
	"github.com/kailas-cloud/vecsearch/internal/transport/wire"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, se *domain.StatusError) bool

// statusHandler answers with httpStatus when the error carries one of codes.
func statusHandler(httpStatus int, codes ...domain.StatusCode) errorHandler {
	return func(w http.ResponseWriter, se *domain.StatusError) bool {
		if !slices.Contains(codes, se.Code) {
			return false
		}
		writeError(w, httpStatus, se.Code, se.Message)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	se := domain.AsStatus(err)
	if se.Code != domain.StatusUnexpected {
		logger.Warn("domain error", zap.Error(err))
		for _, h := range s.errorHandlers {
			if h(w, se) {
				return
			}
		}
	}
	// Unmapped codes keep their code but never leak the message.
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, se.Code, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code domain.StatusCode, message string) {
	writeJSON(w, status, wire.Error{
		Code:    code,
		Message: message,
	})
}
