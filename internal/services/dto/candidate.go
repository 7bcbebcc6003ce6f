package dto

import (
	"offerwise_backend/internal/models"
)

// ========================
// Candidate pool DTOs
// ========================

// AcceptResultsRequest bulk-accepts selected recommendation results into the
// pool. Results whose school+program already exists are silently skipped.
type AcceptResultsRequest struct {
	StudentID string                 `json:"student_id" validate:"required"`
	Results   []RecommendationResult `json:"results" validate:"required,min=1"`
}

// ManualCandidateRequest adds a hand-picked entry (source 人工添加).
type ManualCandidateRequest struct {
	StudentID string                 `json:"student_id" validate:"required"`
	School    string                 `json:"school" validate:"required"`
	Program   string                 `json:"program" validate:"required"`
	Stage     models.CandidateStage  `json:"stage" validate:"required,is-candidate-stage"`
	Status    models.CandidateStatus `json:"status" validate:"omitempty,is-candidate-status"`
	Notes     string                 `json:"notes"`
	Owner     string                 `json:"owner"`
}

// TransitionRequest updates only the named fields of one entry.
type TransitionRequest struct {
	Stage  *models.CandidateStage  `json:"stage" validate:"omitempty,is-candidate-stage"`
	Status *models.CandidateStatus `json:"status" validate:"omitempty,is-candidate-status"`
}

// PoolQuery filters the pool; all provided fields combine with AND and the
// text query matches school/program/notes case-insensitively.
type PoolQuery struct {
	Text   string                 `json:"text" form:"text"`
	Stage  models.CandidateStage  `json:"stage" form:"stage" validate:"omitempty,is-candidate-stage"`
	Status models.CandidateStatus `json:"status" form:"status" validate:"omitempty,is-candidate-status"`
	Source models.CandidateSource `json:"source" form:"source" validate:"omitempty,is-candidate-source"`
}

// PoolStats aggregates the pool.
type PoolStats struct {
	Total    int                            `json:"total"`
	ByStage  map[models.CandidateStage]int  `json:"by_stage"`
	ByStatus map[models.CandidateStatus]int `json:"by_status"`
	BySource map[models.CandidateSource]int `json:"by_source"`
}
