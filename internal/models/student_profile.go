package models

import (
	"time"

	"github.com/lib/pq"
)

// StudentProfile holds the advisory-side view of a student. The free-text
// score fields come from intake forms and are parsed by the criteria builder.
type StudentProfile struct {
	ID                 string `gorm:"primaryKey"`
	Name               string
	School             string // undergraduate institution
	Major              string
	GPAText            string // e.g. "3.7/4.0" or "88/100"
	LanguageText       string // e.g. "TOEFL: 106" or "雅思: 7.0"
	TestText           string // e.g. "GRE: 325"
	TargetRegions      pq.StringArray `gorm:"type:text[]" json:"target_regions" swaggerignore:"true"`
	TargetSchools      pq.StringArray `gorm:"type:text[]" json:"target_schools" swaggerignore:"true"`
	TargetPrograms     pq.StringArray `gorm:"type:text[]" json:"target_programs" swaggerignore:"true"`
	PreferredCountries pq.StringArray `gorm:"type:text[]" json:"preferred_countries" swaggerignore:"true"`
	IntakeTerm         string // e.g. "2027 Fall"
	SprintPercent      int    // target tier distribution, 冲刺
	MatchPercent       int    // 匹配
	SafetyPercent      int    // 保底
	Owner              string // advisor user id
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
