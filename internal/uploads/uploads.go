// Package uploads discovers uploaded sustainability reports on disk.
package uploads

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Report is one uploaded PDF.
type Report struct {
	Company  string    `json:"name"`
	Path     string    `json:"path"`
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"uploaded_at"`
}

// List returns every PDF under dir, matched case-insensitively on the
// extension, sorted by path.
func List(dir string) ([]Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("uploads dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("uploads dir %s is not a directory", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.{pdf,PDF}")
	if err != nil {
		return nil, fmt.Errorf("glob uploads: %w", err)
	}

	reports := make([]Report, 0, len(matches))
	for _, rel := range matches {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		fi, err := os.Stat(path)
		if err != nil || fi.IsDir() {
			continue
		}
		name := filepath.Base(path)
		reports = append(reports, Report{
			Company:  CompanyName(name),
			Path:     path,
			Filename: name,
			Size:     fi.Size(),
			ModTime:  fi.ModTime(),
		})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })
	return reports, nil
}

// CompanyName derives the company from an upload file name. Uploads are
// stored as <company>_<date>_<time>.pdf, so with at least two underscores
// the last two segments are dropped; otherwise the extension is.
func CompanyName(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	parts := strings.Split(stem, "_")
	if len(parts) >= 3 {
		return strings.Join(parts[:len(parts)-2], "_")
	}
	return stem
}

// LatestPerCompany keeps the most recently modified report per company and
// returns them ordered by company name.
func LatestPerCompany(reports []Report) []Report {
	latest := make(map[string]Report)
	for _, r := range reports {
		cur, ok := latest[r.Company]
		if !ok || r.ModTime.After(cur.ModTime) {
			latest[r.Company] = r
		}
	}
	out := make([]Report, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Company < out[j].Company })
	return out
}
