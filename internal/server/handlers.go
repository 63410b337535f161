package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/brightpath/onboard/internal/model"
	"github.com/brightpath/onboard/internal/pipeline"
)

type extractRequest struct {
	Content      string `json:"content"`
	ContentLabel string `json:"content_label"`
	ContentType  string `json:"content_type"`
	Family       string `json:"family"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.Family == "" {
		writeError(w, http.StatusBadRequest, "family is required")
		return
	}

	contentType := model.ContentType(req.ContentType)
	if req.ContentType == "" {
		contentType = model.ContentTranscript
	} else if !contentType.Valid() {
		writeError(w, http.StatusBadRequest, "unknown content_type")
		return
	}

	label := req.ContentLabel
	if label == "" {
		label = string(contentType)
	}

	result, err := s.extractor.Extract(r.Context(), model.ExtractionRequest{
		Content:      req.Content,
		ContentLabel: label,
		ContentType:  contentType,
		Family:       model.Family(req.Family),
	})
	if err != nil {
		var xerr *pipeline.ExtractError
		if errors.As(err, &xerr) {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":     xerr.Message,
				"retryable": xerr.Retryable,
			})
			return
		}
		zap.L().Error("extract request failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "extraction produced no usable result")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOpsSummary(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = n
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	summary, err := s.store.SummarizeOperations(r.Context(), since)
	if err != nil {
		zap.L().Error("ops summary failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "summary unavailable")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListErrors(w http.ResponseWriter, r *http.Request) {
	includeResolved := r.URL.Query().Get("all") == "true"
	events, err := s.store.ListErrors(r.Context(), includeResolved, 100)
	if err != nil {
		zap.L().Error("list errors failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error log unavailable")
		return
	}
	if events == nil {
		events = []model.ErrorEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleResolveError(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.ResolveError(r.Context(), id); err != nil {
		zap.L().Error("resolve error failed", zap.String("event_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "resolve failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved", "id": id})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	family := model.Family(r.URL.Query().Get("family"))
	if family != "" && !family.Valid() {
		writeError(w, http.StatusBadRequest, "unknown family")
		return
	}

	templates, err := s.store.ListTemplates(r.Context(), family)
	if err != nil {
		zap.L().Error("list templates failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "template store unavailable")
		return
	}
	if templates == nil {
		templates = []model.PromptTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
