package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/meko-christian/inbox-glance/internal/retrieval"
)

// maxRequestBody caps the size of a /check request body.
const maxRequestBody = 1 << 20

var errBadLimit = errors.New("limit must be an integer")

// checkRequest is the /check body. unseen_only and limit are coerced the
// way form clients send them: unseen_only by truthiness (null, false, 0
// and "" are false), limit from a number or a numeric string, with null,
// 0 and "" meaning the default.
type checkRequest struct {
	Username      string          `json:"username"`
	Password      string          `json:"password"`
	Folder        string          `json:"folder"`
	UnseenOnly    json.RawMessage `json:"unseen_only"`
	Limit         json.RawMessage `json:"limit"`
	FilterFrom    string          `json:"filter_from"`
	FilterSubject string          `json:"filter_subject"`
}

func (c checkRequest) toRetrieval() (retrieval.Request, error) {
	req := retrieval.Request{
		Username:      c.Username,
		Password:      c.Password,
		Folder:        c.Folder,
		FilterFrom:    c.FilterFrom,
		FilterSubject: c.FilterSubject,
	}

	if len(c.UnseenOnly) > 0 {
		unseen := truthy(c.UnseenOnly)
		req.UnseenOnly = &unseen
	}

	limit, err := parseLimit(c.Limit)
	if err != nil {
		return req, err
	}
	req.Limit = limit

	return req, nil
}

func truthy(raw json.RawMessage) bool {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}

	switch v := v.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	}
	return false
}

// parseLimit returns 0 for an absent limit so the pipeline default applies.
// Fractions are truncated.
func parseLimit(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, errBadLimit
	}

	switch v := v.(type) {
	case nil:
		return 0, nil
	case float64:
		if math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
			return 0, errBadLimit
		}
		return int(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, errBadLimit
		}
		return n, nil
	}
	return 0, errBadLimit
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.renderTemplate(w, "index", map[string]interface{}{
		"Title":         "Inbox Glance",
		"DefaultFolder": s.opts.DefaultFolder,
		"DefaultLimit":  s.opts.DefaultLimit,
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var body checkRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Debug("Malformed check request", "request_id", requestID(r), "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body: " + err.Error()})
		return
	}

	req, err := body.toRetrieval()
	if err != nil {
		slog.Debug("Rejected check request", "request_id", requestID(r), "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	slog.Info("Mailbox check requested", "request_id", requestID(r), "folder", req.Folder)

	result := s.retriever.Retrieve(r.Context(), req)

	status := http.StatusOK
	if failure := result.Failure(); failure != nil {
		status = http.StatusInternalServerError
		if failure.Kind == retrieval.KindValidation {
			status = http.StatusBadRequest
		}
		slog.Warn("Mailbox check failed", "request_id", requestID(r), "kind", failure.Kind.String())
	}

	writeJSON(w, status, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
