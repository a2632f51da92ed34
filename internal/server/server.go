// Package server exposes the job protocol over HTTP. The layer is thin by
// design: request decoding, response encoding and rate limiting live here,
// everything else is delegated to the service facade.
package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/soundgrab/soundgrab/internal/model"
	"github.com/soundgrab/soundgrab/internal/service"
	"github.com/soundgrab/soundgrab/internal/timecode"
)

// Server handles the HTTP API.
type Server struct {
	svc     *service.Service
	limiter *rate.Limiter
	logger  *log.Logger
}

// New builds an HTTP server around svc.
func New(svc *service.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		svc: svc,
		// Submission endpoints share one limiter; each download spawns
		// subprocesses and disk writes, so bursts are capped.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		logger:  logger.With("component", "http"),
	}
}

// Routes assembles the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/convert", s.rateLimited(s.handleConvert))
	r.Post("/recognize", s.rateLimited(s.handleRecognize))
	r.Get("/check-progress/{id}", s.handleCheckProgress)
	r.Get("/progress/{id}", s.handleProgressStream)
	r.Get("/download/{id}", s.handleDownload)
	r.Post("/delete/{id}", s.handleDelete)

	return r
}

func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
			return
		}
		next(w, r)
	}
}

type convertRequest struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`

	// Trim is an optional "start;end" timecode pair.
	Trim string `json:"trim"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing url"})
		return
	}

	submit := service.SubmitRequest{URL: req.URL, CustomName: req.Filename}
	if req.Trim != "" {
		bounds, err := timecode.ParseList(req.Trim, false)
		if err != nil || len(bounds) != 2 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "trim must be two timecodes separated by ';'"})
			return
		}
		submit.TrimStart, submit.TrimEnd = &bounds[0], &bounds[1]
	}

	id, err := s.svc.Submit(submit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.logger.Info("conversion submitted", "id", id, "url", req.URL)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "progress_id": id})
}

type recognizeRequest struct {
	URL       string `json:"url"`
	Timecodes string `json:"timecodes"`
	KeepFile  bool   `json:"keep_file"`
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	var req recognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing url"})
		return
	}

	var offsets []float64
	if req.Timecodes != "" {
		parsed, err := timecode.ParseList(req.Timecodes, false)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		offsets = parsed
	}

	id, err := s.svc.SubmitRecognition(req.URL, offsets, req.KeepFile)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.logger.Info("recognition submitted", "id", id, "url", req.URL)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "progress_id": id})
}

func (s *Server) handleCheckProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, ok := s.svc.Store().Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleProgressStream serves job snapshots as server-sent events. The stream
// ends when the job reaches a terminal state, disappears, or the subscription
// hits its maximum wait.
func (s *Server) handleProgressStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for job := range s.svc.Store().Watch(r.Context(), id) {
		payload, err := json.Marshal(job)
		if err != nil {
			continue
		}
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	artifact, err := s.svc.Artifact(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
		return
	}

	name := downloadName(r.URL.Query().Get("filename"), artifact)
	if artifact.IsArchive {
		w.Header().Set("Content-Type", "application/zip")
	} else {
		w.Header().Set("Content-Type", "audio/mpeg")
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)

	http.ServeFile(w, r, artifact.ArtifactPath)

	s.svc.ScheduleArtifactCleanup(artifact.ArtifactPath)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.svc.DeleteJob(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// downloadName picks the filename offered to the client, making sure the
// extension matches the artifact.
func downloadName(requested string, artifact model.JobResult) string {
	ext := ".mp3"
	if artifact.IsArchive {
		ext = ".zip"
	}

	if requested != "" {
		if !strings.HasSuffix(strings.ToLower(requested), ext) {
			requested += ext
		}
		return requested
	}
	if artifact.DisplayName != "" {
		return artifact.DisplayName + ext
	}
	return filepath.Base(artifact.ArtifactPath)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
