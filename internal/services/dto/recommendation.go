package dto

import (
	"offerwise_backend/internal/models"
)

// ========================
// Recommendation DTOs
// ========================

// DimensionScores holds one subscore per strength dimension, each in [0,100].
type DimensionScores map[models.StrengthKey]float64

// RecommendationResult is one scored, tier-classified program suggestion.
// Selected is client curation state and is never persisted across sessions.
type RecommendationResult struct {
	ID           string             `json:"id"`
	School       string             `json:"school"`
	Program      string             `json:"program"`
	Country      string             `json:"country"`
	Tier         models.Tier        `json:"tier"`
	Score        float64            `json:"score"`
	Dimensions   DimensionScores    `json:"dimensions,omitempty"`
	MatchReason  string             `json:"match_reason"`
	Rationale    string             `json:"rationale"`
	Highlights   []string           `json:"highlights,omitempty"`
	Requirements []string           `json:"requirements,omitempty"`
	SimilarCases []models.AdmitCase `json:"similar_cases,omitempty"`
	Selected     bool               `json:"selected"`
}

// TierCounts is the per-tier breakdown of a result set.
type TierCounts struct {
	Reach  int `json:"reach"`
	Match  int `json:"match"`
	Safety int `json:"safety"`
}

// RecommendationSet is the final output of one generation run, grouped
// Reach -> Match -> Safety, composite descending within each tier.
type RecommendationSet struct {
	RunID     string                 `json:"run_id"`
	StudentID string                 `json:"student_id"`
	Mode      models.SearchMode      `json:"mode"`
	Results   []RecommendationResult `json:"results"`
	Counts    TierCounts             `json:"tier_counts"`
	VersionID string                 `json:"version_id,omitempty"`
}

// GenerateRequest triggers a generation run.
type GenerateRequest struct {
	StudentID string         `json:"student_id" validate:"required"`
	Criteria  *MatchCriteria `json:"criteria" validate:"required"`
}

// RunState is the lifecycle of an async deep-search run.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateCancelled RunState = "cancelled"
)

// RunSnapshot is the polling view of a run: its state, the latest progress
// event, and the result set once completed. Cancelled runs never carry
// results.
type RunSnapshot struct {
	RunID     string             `json:"run_id"`
	StudentID string             `json:"student_id"`
	State     RunState           `json:"state"`
	Progress  *SearchProgress    `json:"progress,omitempty"`
	Results   *RecommendationSet `json:"results,omitempty"`
}
