package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zombor/receipt-reel/internal/ledger"
	"github.com/zombor/receipt-reel/internal/pipeline"
)

// maxUploadBytes caps uploads at 50MB to handle high-resolution phone
// video without letting clients exhaust memory.
const maxUploadBytes = int64(50 << 20)

// corsError writes an error response with CORS headers set.
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with CORS headers set.
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleIndex serves the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleUpload processes one receipt submission. The response is a
// chunked text/plain stream: one human-readable status line at a time
// while the pipeline runs, then either a "download:" line pointing at
// the artifact, a "done:" line for an empty result, or an "error:"
// line.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file was selected. Please choose a file to upload.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxUploadBytes {
		jsonError(w, "File is too large. Maximum size is 50MB.", http.StatusBadRequest)
		return
	}

	kind := pipeline.DetectKind(header.Filename, header.Header.Get("Content-Type"))
	if kind == pipeline.KindUnknown {
		jsonError(w, "Please upload a video, PDF, or photo of a receipt.", http.StatusBadRequest)
		return
	}

	// Spool the upload to a handler-owned temp file; the pipeline never
	// deletes its input.
	upload, err := os.CreateTemp(s.uploadDir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		slog.Error("Error creating upload file", "error", err)
		jsonError(w, "Error storing upload. Please try again.", http.StatusInternalServerError)
		return
	}
	defer os.Remove(upload.Name())

	if _, err := io.Copy(upload, f); err != nil {
		upload.Close()
		slog.Error("Error writing upload file", "error", err)
		jsonError(w, "Error storing upload. Please try again.", http.StatusInternalServerError)
		return
	}
	if err := upload.Close(); err != nil {
		slog.Error("Error closing upload file", "error", err)
		jsonError(w, "Error storing upload. Please try again.", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	report := pipeline.ProgressFunc(func(line string) {
		fmt.Fprintln(w, line)
		if flusher != nil {
			flusher.Flush()
		}
	})

	result, err := s.processor.Process(r.Context(), upload.Name(), kind, report)
	if err != nil {
		slog.Error("Submission failed", "filename", header.Filename, "kind", kind.String(), "error", err)
		fmt.Fprintln(w, "error: sorry, something went wrong while processing your receipt")
		return
	}

	sub := &Submission{
		ID:        result.ID,
		Filename:  header.Filename,
		Kind:      kind.String(),
		Rows:      len(result.Rows),
		CreatedAt: time.Now(),
	}

	if len(result.Rows) > 0 {
		var buf bytes.Buffer
		if err := ledger.WriteCSV(&buf, result.Rows); err != nil {
			slog.Error("Error rendering ledger", "id", result.ID, "error", err)
			fmt.Fprintln(w, "error: could not render the extracted ledger")
			return
		}
		artifact := result.ID + ".csv"
		if err := s.artifacts.Save(artifact, buf.Bytes()); err != nil {
			slog.Error("Error saving artifact", "id", result.ID, "error", err)
			fmt.Fprintln(w, "error: could not store the extracted ledger")
			return
		}
		sub.Artifact = artifact
	}

	if err := s.journal.SaveSubmission(sub); err != nil {
		// The user still gets their result; only history is lost.
		slog.Error("Failed to record submission", "id", result.ID, "error", err)
	}

	if sub.Artifact == "" {
		fmt.Fprintln(w, "done: no items were extracted from this receipt")
		return
	}
	fmt.Fprintf(w, "done: extracted %d row(s)\n", len(result.Rows))
	fmt.Fprintf(w, "download: /api/receipts/%s/ledger.csv\n", result.ID)
}

// handleGetArtifact serves the CSV artifact of a finished submission.
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Submission ID required", http.StatusBadRequest)
		return
	}

	sub, err := s.journal.GetSubmission(id)
	if err != nil || sub.Artifact == "" {
		corsError(w, "Artifact not found", http.StatusNotFound)
		return
	}

	data, err := s.artifacts.Get(sub.Artifact)
	if err != nil {
		corsError(w, "Artifact not found", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
	w.Write(data)
}

// handleGetSubmission returns a single submission record.
func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Submission ID required", http.StatusBadRequest)
		return
	}

	sub, err := s.journal.GetSubmission(id)
	if err != nil {
		corsError(w, "Submission not found", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sub); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListSubmissions returns all submission records, newest first.
func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.journal.ListSubmissions()
	if err != nil {
		slog.Error("Error listing submissions", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if subs == nil {
		subs = []*Submission{}
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(subs); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
