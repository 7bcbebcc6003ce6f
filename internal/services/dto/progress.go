package dto

import (
	"offerwise_backend/internal/models"
)

// SearchProgress is one observable tick of a pipeline run. Within a run,
// Percent is monotonic non-decreasing 0-100 and every count only grows.
type SearchProgress struct {
	RunID         string             `json:"run_id"`
	Stage         models.SearchStage `json:"stage"`
	Percent       int                `json:"percent"`
	ScannedCount  int                `json:"scanned_count,omitempty"`
	TotalCount    int                `json:"total_count,omitempty"`
	FilteredCount int                `json:"filtered_count,omitempty"`
	MatchedCount  int                `json:"matched_count,omitempty"`
	AnalyzedCount int                `json:"analyzed_count,omitempty"`
	Message       string             `json:"message"`
	Details       []string           `json:"details,omitempty"`
}
