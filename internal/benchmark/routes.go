package benchmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/esg-benchmark/internal/analysiscache"
	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
	"github.com/ziadkadry99/esg-benchmark/internal/progress"
	"github.com/ziadkadry99/esg-benchmark/internal/taxonomy"
	"github.com/ziadkadry99/esg-benchmark/internal/uploads"
)

// RoutesDeps holds what the benchmark API needs.
type RoutesDeps struct {
	Service    *Service
	UploadsDir string
}

// RegisterRoutes mounts the benchmark API under /internal/v1/benchmarks.
func RegisterRoutes(r chi.Router, deps RoutesDeps) {
	s := deps.Service
	r.Route("/internal/v1/benchmarks", func(r chi.Router) {
		r.Get("/issues", handleIssues())
		r.Get("/data", handleData(s))
		r.Get("/data/{company}", handleCompanyData(s))
		r.Delete("/data/{company}", handleDeleteCompany(s))
		r.Post("/analyze-issues", handleAnalyzeIssues(s))
		r.Post("/analyze", handleAnalyzeKeyword(s))
		r.Post("/cache/clear", handleClearKeywordCache(s))
		r.Post("/cache/clear-all", handleClearAll(s))
		r.Post("/cache/reload", handleReload(s))
		r.Get("/pdfs", handleListPDFs(deps.UploadsDir))
		r.Post("/reanalyze-all", handleReanalyzeAll(s, deps.UploadsDir))
		r.Get("/health", handleHealth(s))
	})
}

// issueSummary is the per-company roll-up returned with an analysis.
type issueSummary struct {
	TotalIssues  int     `json:"total_issues"`
	Full         int     `json:"full_coverage"`
	Partial      int     `json:"partial_coverage"`
	None         int     `json:"no_coverage"`
	CoverageRate float64 `json:"coverage_rate"`
}

func summarizeMap(m coverage.Map) issueSummary {
	s := coverage.Summarize(m)
	return issueSummary{
		TotalIssues:  s.Total,
		Full:         s.Full,
		Partial:      s.Partial,
		None:         s.None,
		CoverageRate: s.CoverageRate,
	}
}

func handleIssues() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := taxonomy.All()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"issues":  items,
			"count":   len(items),
		})
	}
}

func handleData(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.CachedData()
		companies := s.CachedCompanies()
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"data":      data,
			"companies": companies,
			"count":     len(data),
		})
	}
}

func handleCompanyData(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := chi.URLParam(r, "company")
		m, err := s.CachedCompany(company)
		if errors.Is(err, analysiscache.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, fmt.Sprintf("no analysis for %s", company))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"company_name": company,
			"data":         m,
			"summary":      summarizeMap(m),
		})
	}
}

func handleDeleteCompany(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := chi.URLParam(r, "company")
		deleted, err := s.DeleteCompanyCache(r.Context(), company)
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !deleted {
			writeFailure(w, http.StatusNotFound, fmt.Sprintf("no analysis for %s", company))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("deleted analysis for %s", company),
		})
	}
}

type analyzeIssuesRequest struct {
	CompanyName string `json:"company_name"`
	PDFPath     string `json:"pdf_path"`
}

func handleAnalyzeIssues(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := analyzeIssuesRequest{
			CompanyName: r.URL.Query().Get("company_name"),
			PDFPath:     r.URL.Query().Get("pdf_path"),
		}
		if req.CompanyName == "" && req.PDFPath == "" && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeFailure(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}
		if req.CompanyName == "" || req.PDFPath == "" {
			writeFailure(w, http.StatusBadRequest, "company_name and pdf_path are required")
			return
		}
		if _, err := os.Stat(req.PDFPath); err != nil {
			writeFailure(w, http.StatusNotFound, fmt.Sprintf("file not found: %s", req.PDFPath))
			return
		}

		m, err := s.AnalyzeCompanyIssues(r.Context(), req.PDFPath, req.CompanyName)
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("analysis failed: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"company_name": req.CompanyName,
			"data":         m,
			"summary":      summarizeMap(m),
		})
	}
}

type analyzeKeywordRequest struct {
	Keyword   string          `json:"keyword"`
	Companies []CompanyReport `json:"companies"`
}

func handleAnalyzeKeyword(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeKeywordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Keyword) == "" {
			writeFailure(w, http.StatusBadRequest, "keyword is required")
			return
		}
		if len(req.Companies) == 0 {
			writeFailure(w, http.StatusBadRequest, "no companies to analyze")
			return
		}

		results, err := s.AnalyzeKeywordForCompanies(r.Context(), req.Keyword, req.Companies)
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("analysis failed: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"keyword": req.Keyword,
			"results": results,
			"summary": s.Summarize(results),
		})
	}
}

func handleClearKeywordCache(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.ClearCache()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "keyword cache cleared",
		})
	}
}

func handleClearAll(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		backup, err := s.ClearAnalyses(r.Context())
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("clearing analyses: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"message":     "analysis cache cleared",
			"backup_path": backup,
		})
	}
}

func handleReload(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Reload(r.Context()); err != nil {
			writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("reloading cache: %v", err))
			return
		}
		companies := s.CachedCompanies()
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"message":   fmt.Sprintf("cache reloaded, %d companies", len(companies)),
			"companies": companies,
			"count":     len(companies),
		})
	}
}

func handleListPDFs(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := uploads.List(dir)
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"pdfs":    reports,
			"count":   len(reports),
		})
	}
}

func handleReanalyzeAll(s *Service, dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := s.ReanalyzeAll(r.Context(), dir, progress.Nop{})
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":           true,
			"message":           fmt.Sprintf("re-analyzed %d companies", report.Analyzed),
			"analyzed":          report.Analyzed,
			"failed":            report.Failed,
			"success_companies": report.Succeeded,
			"failed_companies":  report.Failures,
			"backup_path":       report.BackupPath,
		})
	}
}

func handleHealth(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":           "healthy",
			"service":          "benchmark-analysis",
			"cached_companies": len(s.CachedCompanies()),
			"taxonomy_items":   taxonomy.Len(),
		})
	}
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
