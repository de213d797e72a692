package service

import (
	"context"
	"time"

	"github.com/campusvoice/backend/internal/models"
)

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportRow is one parsed input record and its line in the source file.
type ImportRow struct {
	Line    int
	Request SubmitRequest
}

type ImportSummary struct {
	Parsed      int                     `json:"parsed"`
	Inserted    int                     `json:"inserted"`
	Errors      []RowError              `json:"errors"`
	BySeverity  map[models.Severity]int `json:"by_severity"`
	Clustered   int                     `json:"clustered"`
	Unclustered int                     `json:"unclustered"`
	NewClusters int                     `json:"new_clusters"`
	Fallbacks   map[string]int          `json:"fallbacks"`
	ElapsedMs   int64                   `json:"elapsed_ms"`
}

// Import submits rows one after another. A storage failure on one row does
// not stop the run; cancellation does.
func (s *SubmissionService) Import(ctx context.Context, rows []ImportRow, parseErrors []RowError) ImportSummary {
	start := time.Now()
	summary := ImportSummary{
		Parsed:     len(rows) + len(parseErrors),
		Errors:     append([]RowError{}, parseErrors...),
		BySeverity: map[models.Severity]int{},
		Fallbacks:  map[string]int{},
	}
	for _, sev := range models.Severities {
		summary.BySeverity[sev] = 0
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			summary.Errors = append(summary.Errors, RowError{Row: row.Line, Message: err.Error()})
			break
		}
		res, err := s.Submit(ctx, row.Request)
		if err != nil {
			summary.Errors = append(summary.Errors, RowError{Row: row.Line, Message: err.Error()})
			continue
		}
		summary.Inserted++
		summary.BySeverity[res.Complaint.Severity]++
		if res.Assignment != nil {
			summary.Clustered++
			if res.Assignment.Created {
				summary.NewClusters++
			}
		} else {
			summary.Unclustered++
		}
		for _, f := range res.Fallbacks {
			summary.Fallbacks[f]++
		}
	}

	summary.ElapsedMs = time.Since(start).Milliseconds()
	s.Logger.Info().
		Int("parsed", summary.Parsed).
		Int("inserted", summary.Inserted).
		Int("errors", len(summary.Errors)).
		Int("clustered", summary.Clustered).
		Int64("elapsed_ms", summary.ElapsedMs).
		Msg("import finished")
	return summary
}
