package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"ledger/internal/core"
	"ledger/internal/log"
)

// sanitizeInput removes control characters other than tab, LF and CR, and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// writeJSON encodes v with the given status. Encoding errors are logged
// since the header is already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "JSON response encoding failed", log.FieldError, err)
	}
}

// monthQuery builds the query string that selects label.
func monthQuery(label string) string {
	if label == "" || label == core.AllMonths {
		return ""
	}
	return "?" + url.Values{"month": {label}}.Encode()
}
