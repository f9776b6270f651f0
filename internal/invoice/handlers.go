package invoice

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/invoice-vision/invoice-vision/internal/extraction"
)

// processRequest is the request body for the invoice endpoint. The image is
// either a raw base64 string or a data-URI.
type processRequest struct {
	Image string `json:"image"`
}

// processResponse is the envelope returned on success
type processResponse struct {
	Data *extraction.Invoice `json:"data"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeError writes a JSON error response with a fixed detail message
func writeError(w http.ResponseWriter, detail string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// handleProcessInvoice accepts a base64 or data-URI image payload, runs
// extraction, and returns the invoice wrapped in a data envelope. Every
// processing failure collapses to the same generic 500.
func (s *Server) handleProcessInvoice(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding request body", "error", err)
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Image == "" {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Strip any data-URI prefix; only the substring after the last comma
	// is the base64 payload
	payload := req.Image
	if idx := strings.LastIndex(payload, ","); idx != -1 {
		payload = payload[idx+1:]
	}

	invoice, err := s.service.ProcessInvoice([]string{payload})
	if err != nil || invoice == nil {
		slog.Error("Error processing invoice", "error", err)
		writeError(w, "Invoice processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(processResponse{Data: invoice}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}
