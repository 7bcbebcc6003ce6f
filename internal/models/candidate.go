package models

import "time"

// CandidateProgram is one entry of a student's curated candidate pool.
// Entries are created by accepting recommendation results (source AI推荐) or
// manually (source 人工添加) and mutated only via explicit transitions.
type CandidateProgram struct {
	ID          string `gorm:"primaryKey"`
	StudentID   string `gorm:"index"`
	School      string
	Program     string
	Source      CandidateSource
	Stage       CandidateStage
	Status      CandidateStatus
	Notes       string
	Owner       string
	MatchScore  *float64 // set only for AI-sourced entries
	MatchReason string
	Rationale   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
