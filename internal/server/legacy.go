package server

import (
	"encoding/json"
	"net/http"

	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
)

// legacyTopK is the fixed answer count of the /ask route.
const legacyTopK = 3

type legacyExtractRequest struct {
	FilePath string `json:"filePath"`
}

type legacyExtractResponse struct {
	Message    string `json:"message"`
	FileID     string `json:"fileId"`
	Paragraphs int    `json:"paragraphs"`
}

// handleLegacyExtract ingests a file on the server's disk. The returned fileId
// names the corpus file, so older clients can pass it straight back to /ask.
func (s *Server) handleLegacyExtract(w http.ResponseWriter, r *http.Request) {
	var req legacyExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FilePath == "" {
		s.respondError(w, http.StatusBadRequest, "filePath is required")
		return
	}
	s.logger.Debug("legacy extract request", zap.String("path", req.FilePath))
	res, err := s.indexer.IngestFile(r.Context(), req.FilePath)
	if err != nil {
		s.respondErr(w, "legacy extract failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, legacyExtractResponse{
		Message:    "PDF extracted and embedded successfully",
		FileID:     res.Key + ".json",
		Paragraphs: res.Records,
	})
}

type legacyAskRequest struct {
	FileID   string `json:"fileId"`
	Question string `json:"question"`
}

func (s *Server) handleLegacyAsk(w http.ResponseWriter, r *http.Request) {
	var req legacyAskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileID == "" || req.Question == "" {
		s.respondError(w, http.StatusBadRequest, "fileId and question are required")
		return
	}
	response, err := s.engine.Ask(r.Context(), &models.AskQuery{Key: req.FileID, Question: req.Question, TopK: legacyTopK})
	if err != nil {
		s.respondErr(w, "legacy ask failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"answer": response.Answer})
}
