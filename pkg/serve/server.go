// Package serve exposes the extraction core over HTTP: multipart
// upload, a server-sent-events progress stream for archive builds, and
// archive download.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/binsift/binsift/pkg/extract"
	"github.com/binsift/binsift/pkg/types"
)

// Version is the server protocol version.
const Version = "1.0.0"

// maxUploadBytes caps multipart form memory buffering; larger uploads
// spill to temp files.
const maxUploadBytes = 64 << 20

// Server routes HTTP requests to the extraction core.
type Server struct {
	core *extract.Core
	mux  *http.ServeMux
}

// NewServer creates an HTTP server around core.
func NewServer(core *extract.Core) *Server {
	s := &Server{
		core: core,
		mux:  http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /archive", s.handleArchive)
	s.mux.HandleFunc("GET /download/{id}", s.handleDownload)
	s.mux.HandleFunc("GET /sources", s.handleSources)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "reading upload")
		return
	}

	manifest, err := s.core.Upload(header.Filename, content)
	if err != nil {
		if errors.Is(err, extract.ErrMissingInput) {
			s.writeError(w, http.StatusBadRequest, "no file provided")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, UploadResponse{
		SourceID: manifest.SourceID,
		Metadata: manifest,
	})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	var req ArchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := types.ParseSourceID(req.SourceID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid source_id")
		return
	}

	events, err := s.core.Archive(r.Context(), id, req.Selected)
	if err != nil {
		if errors.Is(err, extract.ErrUnknownSource) {
			s.writeError(w, http.StatusNotFound, "unknown source")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseSourceID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	data, err := s.core.OpenArchive(id)
	if err != nil {
		if errors.Is(err, extract.ErrUnknownSource) {
			s.writeError(w, http.StatusNotFound, "archive not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="extracted_%s.zip"`, id.Hex()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	records, err := s.core.Sources()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "ok",
		Service: "binsift",
		Version: Version,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
