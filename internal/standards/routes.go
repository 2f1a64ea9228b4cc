package standards

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the classification API under /internal/v1/standards.
func RegisterRoutes(r chi.Router, c *Classifier) {
	r.Route("/internal/v1/standards", func(r chi.Router) {
		r.Post("/classify", handleClassify(c))
	})
}

// classifyRequest carries either free text, one disclosure or a batch.
type classifyRequest struct {
	Text        string       `json:"text"`
	Disclosure  *Disclosure  `json:"disclosure"`
	Disclosures []Disclosure `json:"disclosures"`
}

func handleClassify(c *Classifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		switch {
		case len(req.Disclosures) > 0:
			results := c.ClassifyAll(r.Context(), Dedupe(req.Disclosures))
			writeJSON(w, http.StatusOK, map[string]any{
				"success":         true,
				"classifications": results,
				"groups":          GroupByItem(results),
				"count":           len(results),
			})
			return
		case req.Disclosure != nil:
			result, err := c.Classify(r.Context(), *req.Disclosure)
			if err != nil {
				writeClassifyError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, result)
			return
		case strings.TrimSpace(req.Text) != "":
			result, err := c.ClassifyText(r.Context(), req.Text)
			if err != nil {
				writeClassifyError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, result)
			return
		}
		writeError(w, http.StatusBadRequest, "one of text, disclosure or disclosures is required")
	}
}

func writeClassifyError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, ErrNoCandidates) {
		status = http.StatusUnprocessableEntity
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
