package server

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// statusFor maps an error kind to the HTTP status reported to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, embedding.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrInvalidQuery),
		errors.Is(err, embedding.ErrEmptyInput),
		errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, indexer.ErrUnsupportedExtension):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrCorpusNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, vector.ErrDimensionMismatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}
