package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Program is one corpus item. The pipeline treats the corpus as read-only.
type Program struct {
	ID              string `gorm:"primaryKey"`
	School          string
	Name            string
	Category        string // 项目大类, e.g. "CS", "EE", "金融"
	Country         string
	City            string
	RankingTier     int // 1 (top) .. 5
	ResearchIndex   int // 0-100
	InternshipIndex int // 0-100
	MinGPA          float64 // on a 4.0 scale
	MinTOEFL        int
	MinIELTS        float64
	AnnualCost      float64
	Currency        string
	Highlights      pq.StringArray `gorm:"type:text[]" json:"highlights" swaggerignore:"true"`
	Requirements    pq.StringArray `gorm:"type:text[]" json:"requirements" swaggerignore:"true"`
	AdmitCases      datatypes.JSON `gorm:"type:jsonb"` // []AdmitCase
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AdmitCase is a historical admission reference attached during caseComparison.
type AdmitCase struct {
	Year       int     `json:"year"`
	Background string  `json:"background"`
	GPA        float64 `json:"gpa"`
	Outcome    string  `json:"outcome"`
}

func (p *Program) GetAdmitCases() []AdmitCase {
	var cases []AdmitCase
	if len(p.AdmitCases) > 0 {
		json.Unmarshal(p.AdmitCases, &cases)
	}
	return cases
}

func (p *Program) SetAdmitCases(cases []AdmitCase) {
	data, _ := json.Marshal(cases)
	p.AdmitCases = datatypes.JSON(data)
}
