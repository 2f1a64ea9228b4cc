package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/ziadkadry99/esg-benchmark/internal/audit"
	"github.com/ziadkadry99/esg-benchmark/internal/progress"
	"github.com/ziadkadry99/esg-benchmark/internal/uploads"
)

// CompanyOutcome is one company's line in a re-analysis report.
type CompanyOutcome struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	YesCount int    `json:"yes_count,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ReanalyzeReport summarizes ReanalyzeAll.
type ReanalyzeReport struct {
	Analyzed   int              `json:"analyzed"`
	Failed     int              `json:"failed"`
	Succeeded  []CompanyOutcome `json:"success_companies"`
	Failures   []CompanyOutcome `json:"failed_companies"`
	BackupPath string           `json:"backup_path,omitempty"`
}

// ReanalyzeAll drops every cached analysis and analyzes the newest upload of
// each company found under dir. A failing company is reported and the batch
// moves on.
func (s *Service) ReanalyzeAll(ctx context.Context, dir string, reporter progress.Reporter) (*ReanalyzeReport, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}

	reports, err := uploads.List(dir)
	if err != nil {
		return nil, err
	}
	latest := uploads.LatestPerCompany(reports)
	s.logger.Info("re-analyzing uploads", "dir", dir, "companies", len(latest))

	backup, err := s.ClearAnalyses(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out := &ReanalyzeReport{BackupPath: backup, Succeeded: []CompanyOutcome{}, Failures: []CompanyOutcome{}}

	reporter.Start(len(latest))
	for i, r := range latest {
		if err := ctx.Err(); err != nil {
			out.Failures = append(out.Failures, CompanyOutcome{Name: r.Company, Path: r.Path, Error: err.Error()})
			continue
		}
		result, err := s.analyze(ctx, r.Path, r.Company)
		if err != nil {
			s.logger.Error("re-analysis failed", "company", r.Company, "error", err)
			out.Failures = append(out.Failures, CompanyOutcome{Name: r.Company, Path: r.Path, Error: err.Error()})
		} else {
			yes, _, _ := result.Counts()
			s.logger.Info("re-analyzed company", "company", r.Company, "covered", fmt.Sprintf("%d/%d", yes, len(result)))
			out.Succeeded = append(out.Succeeded, CompanyOutcome{Name: r.Company, Path: r.Path, YesCount: yes})
		}
		reporter.Update(i+1, r.Company)
	}
	reporter.Finish()

	out.Analyzed = len(out.Succeeded)
	out.Failed = len(out.Failures)

	e := audit.Entry{
		Action:   audit.ActionReanalyze,
		YesCount: out.Analyzed,
		NoCount:  out.Failed,
		Duration: time.Since(start).Milliseconds(),
	}
	if out.Failed > 0 {
		e.Error = fmt.Sprintf("%d companies failed", out.Failed)
	}
	s.record(ctx, e)
	return out, nil
}
