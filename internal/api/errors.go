package api

import (
	"context"
	"errors"
	"net/http"

	"racetime/internal/service"
)

// ErrBadQuery marks an unparseable query parameter
var ErrBadQuery = errors.New("bad query parameter")

type errorResponse struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Guidance []string `json:"guidance,omitempty"`
}

// writeServiceError maps service errors onto status codes
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ide *service.InsufficientDataError
	switch {
	case errors.As(err, &ide):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:     "insufficient_data",
			Message:  ide.Error(),
			Guidance: ide.Guidance,
		})
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, ErrBadQuery):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "canceled", err)
	case errors.Is(err, service.ErrFetch):
		s.log.WithError(err).WithField("path", r.URL.Path).Error("loading history failed")
		writeError(w, http.StatusBadGateway, "storage_unavailable", errors.New("history could not be loaded"))
	default:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal", nil)
	}
}
