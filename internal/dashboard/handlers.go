// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/topic-brainstorm/internal/chat"
	"github.com/pdiddy/topic-brainstorm/internal/pipeline"
	"github.com/pdiddy/topic-brainstorm/internal/structured"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type brainstormRequest struct {
	Keyword string `json:"keyword" validate:"required"`
	Limit   int    `json:"limit" validate:"omitempty,min=10,max=500"`
	Topics  int    `json:"topics" validate:"omitempty,min=1,max=20"`
	// Language nil uses the configured default; "" skips translation.
	Language       *string `json:"language"`
	GeneratorModel string  `json:"generator_model"`
	EvaluatorModel string  `json:"evaluator_model"`
	EmbeddingModel string  `json:"embedding_model"`
	OllamaURL      string  `json:"ollama_url" validate:"omitempty,http_url"`
}

type brainstormResponse struct {
	Result        *pipeline.Result `json:"result"`
	ReportURL     string           `json:"report_url,omitempty"`
	SnapshotURL   string           `json:"snapshot_url,omitempty"`
	TranslatedURL string           `json:"translated_url,omitempty"`
	Output        string           `json:"output"`
}

type chatRequest struct {
	Question string `json:"question" validate:"required"`
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return nil
}

func (s *Server) handleBrainstorm(w http.ResponseWriter, r *http.Request) {
	var req brainstormRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	req.OllamaURL = strings.TrimSpace(req.OllamaURL)
	if err := structured.Validate(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if !s.busy.TryLock() {
		respondError(w, http.StatusConflict, "busy", "another session is running")
		return
	}
	defer s.busy.Unlock()

	cfg := s.cfg
	if req.GeneratorModel != "" {
		cfg.Models.Generator = req.GeneratorModel
	}
	if req.EvaluatorModel != "" {
		cfg.Models.Evaluator = req.EvaluatorModel
	}
	if req.EmbeddingModel != "" {
		cfg.Models.Embedding = req.EmbeddingModel
	}
	if req.OllamaURL != "" {
		cfg.Ollama.BaseURL = strings.TrimRight(req.OllamaURL, "/")
	}
	opts := pipeline.Options{Keyword: req.Keyword, Limit: req.Limit, Topics: req.Topics, Language: cfg.Report.Language}
	if req.Language != nil {
		opts.Language = strings.TrimSpace(*req.Language)
	}

	var progress bytes.Buffer
	res, err := s.brainstorm(r.Context(), cfg, opts, &progress)
	if err != nil {
		s.log.Warn("session failed", "keyword", req.Keyword, "error", err)
		switch {
		case errors.Is(err, pipeline.ErrNoPapers), errors.Is(err, pipeline.ErrVectorDB), errors.Is(err, pipeline.ErrNoTopics):
			respondError(w, http.StatusUnprocessableEntity, "session_failed", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "internal", err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, brainstormResponse{
		Result:        res,
		ReportURL:     reportURL(res.ReportPath),
		SnapshotURL:   reportURL(res.SnapshotPath),
		TranslatedURL: reportURL(res.TranslatedPath),
		Output:        progress.String(),
	})
}

// streamWriter delays the response header until the first token so that a
// failure before any output can still choose the status code.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (sw *streamWriter) write(tok string) error {
	if !sw.started {
		sw.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		sw.w.Header().Set("Cache-Control", "no-cache")
		sw.w.Header().Set("X-Content-Type-Options", "nosniff")
		sw.w.WriteHeader(http.StatusOK)
		sw.started = true
	}
	if _, err := io.WriteString(sw.w, tok); err != nil {
		return err
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := structured.Validate(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if !s.busy.TryLock() {
		respondError(w, http.StatusConflict, "busy", "another session is running")
		return
	}
	defer s.busy.Unlock()

	sw := &streamWriter{w: w}
	sw.flusher, _ = w.(http.Flusher)

	err := s.answer(r.Context(), s.cfg, req.Question, sw.write)
	if err == nil {
		if !sw.started {
			_ = sw.write("")
		}
		return
	}
	s.log.Warn("question failed", "error", err)
	if sw.started {
		_ = sw.write("\nerror: " + err.Error())
		return
	}
	if errors.Is(err, chat.ErrNoVectorDB) {
		respondError(w, http.StatusNotFound, "no_vector_db", err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "internal", err.Error())
}

// reportTypes lists the files served from the output directory.
var reportTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".yaml": "application/yaml; charset=utf-8",
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		respondError(w, http.StatusBadRequest, "invalid_name", "invalid report name")
		return
	}
	ctype, ok := reportTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "report not found")
		return
	}
	path := filepath.Join(s.cfg.Report.OutputDir, name)
	f, err := os.Open(path)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "report not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		respondError(w, http.StatusNotFound, "not_found", "report not found")
		return
	}
	w.Header().Set("Content-Type", ctype)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data := indexData{
		Generator:  s.cfg.Models.Generator,
		Evaluator:  s.cfg.Models.Evaluator,
		Translator: s.cfg.Models.TranslatorModel(),
		Embedding:  s.cfg.Models.Embedding,
		Limit:      s.cfg.Collector.PaperLimit,
		Topics:     s.cfg.Generation.TopicCount,
		Language:   s.cfg.Report.Language,
		Reports:    listReports(s.cfg.Report.OutputDir),
	}
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		s.log.Error("rendering index", "error", err)
		http.Error(w, "rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// reportURL maps a written report path to its dashboard URL.
func reportURL(path string) string {
	if path == "" {
		return ""
	}
	return "/reports/" + url.PathEscape(filepath.Base(path))
}

// listReports returns the HTML reports in dir, sorted by name. A missing
// directory yields none.
func listReports(dir string) []reportLink {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var links []reportLink
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "report_") || filepath.Ext(name) != ".html" {
			continue
		}
		links = append(links, reportLink{Name: name, URL: reportURL(name)})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Name < links[j].Name })
	return links
}
