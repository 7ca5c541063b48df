package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"go.uber.org/zap"
)

const maxUploadBytes = 64 << 20

type ingestRequest struct {
	FilePath string `json:"file_path"`
	Text     string `json:"text"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		s.handleUpload(w, r)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var (
		res *models.IngestResult
		err error
	)
	switch {
	case req.FilePath != "":
		s.logger.Debug("ingest file request", zap.String("path", req.FilePath))
		res, err = s.indexer.IngestFile(r.Context(), req.FilePath)
	case strings.TrimSpace(req.Text) != "":
		s.logger.Debug("ingest text request", zap.Int("bytes", len(req.Text)))
		res, err = s.indexer.IngestText(r.Context(), "", req.Text)
	default:
		s.respondError(w, http.StatusBadRequest, "file_path or text is required")
		return
	}
	if err != nil {
		s.respondErr(w, "ingest failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	s.logger.Debug("ingest upload request", zap.String("name", header.Filename), zap.Int("bytes", len(content)))
	res, err := s.indexer.IngestBytes(r.Context(), header.Filename, content)
	if err != nil {
		s.respondErr(w, "ingest failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListCorpora(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.respondErr(w, "list corpora failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"corpora": infos,
		"total":   len(infos),
	})
}

func (s *Server) handleGetCorpus(w http.ResponseWriter, r *http.Request) {
	corpus, err := s.store.Load(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.respondErr(w, "load corpus failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, corpus)
}

type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	query := &models.AskQuery{Key: chi.URLParam(r, "key"), Question: req.Question, TopK: req.TopK}
	s.logger.Debug("ask request", zap.String("key", query.Key), zap.Int("top_k", query.TopK))
	response, err := s.engine.Ask(r.Context(), query)
	if err != nil {
		s.respondErr(w, "ask failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.respondErr(w, "status: list corpora failed", err)
		return
	}
	records := 0
	for _, info := range infos {
		records += info.RecordCount
	}
	resp := map[string]interface{}{
		"corpora": len(infos),
		"records": records,
	}
	if s.model != nil {
		resp["model_loaded"] = s.model.Loaded()
	}
	if diskBytes, err := storage.DiskUsageBytes(storage.StorePaths(s.store)...); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}

	if s.config != nil {
		configInfo := map[string]interface{}{
			"storage_backend":      s.config.Storage.Backend,
			"embedding_provider":   s.config.Embedding.Provider,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"ingest_concurrency":   s.config.Ingest.Concurrency,
			"ingest_extensions":    s.config.Ingest.Extensions,
			"default_top_k":        s.config.Search.DefaultTopK,
			"max_top_k":            s.config.Search.MaxTopK,
		}
		if s.watch != nil {
			configInfo["watch_directories"] = s.watch.Directories()
		}
		resp["config"] = configInfo
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatchDirectories writes the current watch roots back to the config file, if one is known.
func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.config == nil {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
