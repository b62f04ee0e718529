package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/setlist/internal/models"
)

// Client-facing messages.
const (
	MsgURLRequired   = "URL is required"
	MsgURLNotString  = "URL must be a string"
	MsgURLTooLong    = "URL is too long"
	MsgInvalidBody   = "Request body must be a JSON object"
	MsgFileRequired  = "HTML file is required"
	MsgFileTooLarge  = "HTML file is too large"
	MsgInternalError = "Internal server error. Please try again later."
)

const (
	scrapeRoute       = "/api/scrape-playlist"
	extractRoute      = "/api/extract"
	uploadFormField   = "htmlFile"
	maxJSONBodyBytes  = 1 << 20
	multipartMemBytes = 8 << 20
	defaultMaxURLLen  = 2000
)

// ScrapeHandler serves POST /api/scrape-playlist.
type ScrapeHandler struct {
	server *Server
}

// Routes implements [Handler].
func (h *ScrapeHandler) Routes() []string { return []string{scrapeRoute} }

// ServeHTTP validates the JSON body, scrapes the URL and answers with its songs.
//
// Scrape failures are answered with 200 and the message in the body; only unexpected faults produce a 500.
func (h *ScrapeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := h.server

	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: MsgInvalidBody})
		return
	}

	url, msg := requestURL(body, s.maxURLLength())
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	key := strings.TrimSpace(url)
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			s.metrics.CacheHits.Inc()
			writeJSON(w, http.StatusOK, resultResponse(res, false))
			return
		}
	}

	started := time.Now()
	res, err := s.extractor.Scrape(r.Context(), url)
	if err != nil {
		s.metrics.Fault(models.SourceURL, time.Since(started))
		s.logger.Error("scrape failed", "url", url, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: MsgInternalError, Details: err.Error()})
		return
	}

	s.record(models.SourceURL, url, res, started)
	if res.OK() && s.cache != nil {
		s.cache.Add(key, res)
	}
	writeJSON(w, http.StatusOK, resultResponse(res, false))
}

// requestURL pulls "url" out of body, returning the client message for a missing, non-string or oversized value.
//
// Empty strings, false, 0 and null count as missing.
func requestURL(body map[string]any, maxLen int) (string, string) {
	raw, ok := body["url"]
	if !ok {
		return "", MsgURLRequired
	}

	switch v := raw.(type) {
	case nil:
		return "", MsgURLRequired
	case string:
		if v == "" {
			return "", MsgURLRequired
		}
		if utf8.RuneCountInString(v) > maxLen {
			return "", MsgURLTooLong
		}
		return v, ""
	case bool:
		if !v {
			return "", MsgURLRequired
		}
	case float64:
		if v == 0 {
			return "", MsgURLRequired
		}
	}
	return "", MsgURLNotString
}

func (s *Server) maxURLLength() int {
	if n := s.config.Scraper.MaxURLLength; n > 0 {
		return n
	}
	return defaultMaxURLLen
}

// ExtractHandler serves POST /api/extract: an uploaded HTML snapshot in the htmlFile form field.
type ExtractHandler struct {
	server *Server
}

// Routes implements [Handler].
func (h *ExtractHandler) Routes() []string { return []string{extractRoute} }

// ServeHTTP runs the extraction pipeline over the uploaded document.
//
// The answer adds "tracks", the combined line of every song, to the scrape response.
func (h *ExtractHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := h.server
	limit := s.config.Scraper.MaxBodyBytes
	if limit <= 0 {
		limit = 5 << 20
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartMemBytes)
	if err := r.ParseMultipartForm(multipartMemBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: MsgFileTooLarge})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: MsgFileRequired, Details: err.Error()})
		return
	}

	file, _, err := r.FormFile(uploadFormField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: MsgFileRequired})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: MsgFileRequired, Details: err.Error()})
		return
	}

	started := time.Now()
	res, err := s.extractor.ExtractHTML(string(data))
	if err != nil {
		s.metrics.Fault(models.SourceUpload, time.Since(started))
		s.logger.Error("extract failed", "bytes", len(data), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: MsgInternalError, Details: err.Error()})
		return
	}

	s.record(models.SourceUpload, "", res, started)
	writeJSON(w, http.StatusOK, resultResponse(res, true))
}
