package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/zombor/receipt-analyzer/internal/scanning"
)

// maxUploadSize bounds the multipart body (50MB handles high-resolution phone photos)
const maxUploadSize = int64(50 << 20)

const tooLargeMessage = "File is too large. Maximum size is 50MB. Please compress or resize your image."

// analyzeResponse is the JSON body of POST /api/analyze
type analyzeResponse struct {
	Receipt *scanning.Receipt `json:"receipt,omitempty"`
	Error   string            `json:"error,omitempty"`
	// Text is the formatted results panel, ready to display verbatim
	Text string `json:"text"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, analyzeResponse{
		Error: message,
		Text:  FormatOutcome(scanning.Failure(message)),
	})
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStatus reports whether an analysis is running
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"busy": s.service.Busy()})
}

// handleAnalyze accepts a multipart upload in field "file" and returns the analysis
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage)
			return
		}
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, http.StatusBadRequest, "No file was selected. Please choose a receipt image to upload.")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	outcome, err := s.service.AnalyzeUpload(r.Context(), header.Filename, data)
	if errors.Is(err, ErrBusy) {
		writeError(w, http.StatusConflict, "An analysis is already running. Please wait for it to finish.")
		return
	}
	if err != nil {
		slog.Error("Error storing upload", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Error storing file. Please try again.")
		return
	}

	if !outcome.OK() {
		message := "unknown error"
		if outcome.Error != nil {
			message = outcome.Error.Message
		}
		writeError(w, http.StatusUnprocessableEntity, message)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Receipt: outcome.Receipt,
		Text:    FormatOutcome(outcome),
	})
}
