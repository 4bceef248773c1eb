package server

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/bizflow/ai-svc/internal/models"
	"github.com/bizflow/ai-svc/pkg/utils"
)

// maxAudioUploadBytes caps the in-memory portion of a transcription upload.
const maxAudioUploadBytes = 25 << 20

func (s *Server) handleSyncProducts(w http.ResponseWriter, r *http.Request) {
	var req models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("sync request",
		zap.String("owner_id", req.OwnerID),
		zap.Int("products", len(req.Products)))
	count, err := s.catalog.Sync(r.Context(), req.OwnerID, req.Products)
	if err != nil {
		s.logger.Error("product sync failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.SyncResponse{Status: "success", Count: count})
}

// handleParseOrder always answers 200 with a draft order. Extraction
// failures are represented inside the draft, not as HTTP errors.
func (s *Server) handleParseOrder(w http.ResponseWriter, r *http.Request) {
	var req models.ParseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("parse order request",
		zap.String("owner_id", req.OwnerID),
		zap.String("message", utils.Truncate(req.Message, 120)))
	order := s.parser.Extract(r.Context(), req.OwnerID, req.Message)
	s.respondJSON(w, http.StatusOK, order)
}

// handleTranscribe reads the uploaded recording from the multipart
// field "audio". Transcription failures come back as
// {success:false,message} with HTTP 200.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()
	audio, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}
	mimeType := header.Header.Get("Content-Type")
	s.logger.Debug("transcribe request",
		zap.String("filename", header.Filename),
		zap.String("mime_type", mimeType),
		zap.Int("bytes", len(audio)))

	text, err := s.parser.Transcribe(r.Context(), audio, mimeType)
	if err != nil {
		s.logger.Error("transcription failed", zap.Error(err))
		s.respondJSON(w, http.StatusOK, models.TranscribeResponse{Success: false, Message: err.Error()})
		return
	}
	s.respondJSON(w, http.StatusOK, models.TranscribeResponse{Success: true, Text: text})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ai-svc"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
