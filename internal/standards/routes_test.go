package standards

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRoute_ClassifyText(t *testing.T) {
	c, _, _ := newTestClassifier(t, answer(`{"item": "기후변화 대응", "confidence": 0.9, "reason": "emissions"}`))
	r := chi.NewRouter()
	RegisterRoutes(r, c)

	body, _ := json.Marshal(map[string]string{"text": climateText})
	req := httptest.NewRequest("POST", "/internal/v1/standards/classify", strings.NewReader(string(body)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got Classification
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.Item != "기후변화 대응" || len(got.Candidates) != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestRoute_ClassifyBatch(t *testing.T) {
	c, _, _ := newTestClassifier(t, answer(`{"item": "기후변화 대응"}`))
	r := chi.NewRouter()
	RegisterRoutes(r, c)

	body := `{"disclosures": [
		{"disclosure_id": "GRI 305-1", "disclosure_title": "Scope 1"},
		{"disclosure_id": "GRI 305-1", "disclosure_title": "Scope 1 again"},
		{"disclosure_id": "GRI 305-2", "disclosure_title": "Scope 2"}
	]}`
	req := httptest.NewRequest("POST", "/internal/v1/standards/classify", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Count  int     `json:"count"`
		Groups []Group `json:"groups"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 2 {
		t.Errorf("expected duplicates removed, count = %d", resp.Count)
	}
	if len(resp.Groups) != 18 {
		t.Errorf("expected 18 groups, got %d", len(resp.Groups))
	}
}

func TestRoute_ClassifyEmpty(t *testing.T) {
	c, _, _ := newTestClassifier(t, answer("{}"))
	r := chi.NewRouter()
	RegisterRoutes(r, c)

	req := httptest.NewRequest("POST", "/internal/v1/standards/classify", strings.NewReader(`{"text": "  "}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
