package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/park285/Cheese-Checkers/internal/obslog"
	"github.com/park285/Cheese-Checkers/internal/session"
	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
	"go.uber.org/zap"
)

// toDomainError maps an operation error to its wire code, HTTP status and catalog text.
// data feeds the message template; missing fields fall back to err.Error().
func (s *Server) toDomainError(err error, data map[string]any) (int, checkersdto.DomainError) {
	var (
		status int
		de     checkersdto.DomainError
		reqErr requestError
	)
	switch {
	case errors.As(err, &reqErr):
		status, de.Code = http.StatusBadRequest, checkersdto.CodeBadRequest
		if data == nil {
			data = map[string]any{}
		}
		data["Detail"] = reqErr.detail
	case errors.Is(err, session.ErrGameNotFound):
		status, de.Code = http.StatusNotFound, checkersdto.CodeGameNotFound
	case errors.Is(err, checkers.ErrInvalidSelection):
		status, de.Code = http.StatusUnprocessableEntity, checkersdto.CodeInvalidSelection
	case errors.Is(err, checkers.ErrInvalidMoveTarget):
		status, de.Code = http.StatusUnprocessableEntity, checkersdto.CodeInvalidMoveTarget
	case errors.Is(err, session.ErrConflict):
		status, de.Code, de.Retryable = http.StatusConflict, checkersdto.CodeConflict, true
	case errors.Is(err, session.ErrHistoryUnavailable):
		status, de.Code = http.StatusNotImplemented, checkersdto.CodeHistoryUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, de.Code, de.Retryable = http.StatusServiceUnavailable, checkersdto.CodeInternal, true
	default:
		status, de.Code = http.StatusInternalServerError, checkersdto.CodeInternal
	}
	fallback := err.Error()
	if de.Code == checkersdto.CodeInternal {
		fallback = "internal error"
	}
	de.Message = s.msgs.RenderOr("error."+de.Code, data, fallback)
	return status, de
}

func (s *Server) writeError(w http.ResponseWriter, err error, data map[string]any) {
	status, de := s.toDomainError(err, data)
	if status >= http.StatusInternalServerError {
		obslog.L().Error("api_internal_error", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, de)
}
