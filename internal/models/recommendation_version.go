package models

import "time"

// RecommendationVersion is an immutable snapshot of one generated result set.
// The store is append-only: corrections append a new version, history is never
// rewritten. At most one version per student carries Adopted = true.
type RecommendationVersion struct {
	ID          string `gorm:"primaryKey"`
	StudentID   string `gorm:"index"`
	CreatedBy   string
	Mode        SearchMode
	Summary     string
	ResultCount int
	ReachCount  int
	MatchCount  int
	SafetyCount int
	Adopted     bool
	CreatedAt   time.Time
}
