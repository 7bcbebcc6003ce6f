package dto

import (
	"offerwise_backend/internal/models"
)

// ========================
// Criteria DTOs
// ========================

// LanguageScores carries the student's standardized scores. Nil means the
// score is unknown, not zero.
type LanguageScores struct {
	TOEFL *int     `json:"toefl,omitempty" validate:"omitempty,min=0,max=120"`
	IELTS *float64 `json:"ielts,omitempty" validate:"omitempty,min=0,max=9"`
	GRE   *int     `json:"gre,omitempty" validate:"omitempty,min=260,max=340"`
	GMAT  *int     `json:"gmat,omitempty" validate:"omitempty,min=200,max=805"`
}

type BudgetRange struct {
	Min      float64 `json:"min" validate:"min=0"`
	Max      float64 `json:"max" validate:"min=0"`
	Currency string  `json:"currency"`
}

// TierDistribution is the student's target split across 冲刺/匹配/保底,
// in percent. It does not have to sum to 100; tiering normalizes it.
type TierDistribution struct {
	Sprint int `json:"sprint" validate:"min=0,max=100"`
	Match  int `json:"match" validate:"min=0,max=100"`
	Safety int `json:"safety" validate:"min=0,max=100"`
}

// WeightConfig maps each scoring dimension to a weight in [0,100]. Weights
// need not sum to any fixed total; the composite normalizes by the weight sum.
type WeightConfig map[models.StrengthKey]float64

// MatchCriteria is the immutable snapshot a generation run works from.
// Update never mutates in place; it returns a new snapshot.
type MatchCriteria struct {
	Mode            models.SearchMode     `json:"mode" validate:"omitempty,is-search-mode"`
	TargetCountries []string              `json:"target_countries"`
	TargetPrograms  []string              `json:"target_programs"`
	CurrentSchool   string                `json:"current_school"`
	GPA             float64               `json:"gpa" validate:"min=0"`
	GPAScale        string                `json:"gpa_scale" validate:"omitempty,oneof=4.0 100"`
	Language        LanguageScores        `json:"language_scores"`
	Budget          BudgetRange           `json:"budget_range"`
	Risk            models.RiskPreference `json:"risk_preference" validate:"omitempty,is-risk-preference"`
	Distribution    TierDistribution      `json:"target_distribution"`
	Weights         WeightConfig          `json:"weights"`
}

// Clone returns a deep copy so updates never alias a running snapshot.
func (c *MatchCriteria) Clone() *MatchCriteria {
	out := *c
	out.TargetCountries = append([]string(nil), c.TargetCountries...)
	out.TargetPrograms = append([]string(nil), c.TargetPrograms...)
	if c.Weights != nil {
		out.Weights = make(WeightConfig, len(c.Weights))
		for k, v := range c.Weights {
			out.Weights[k] = v
		}
	}
	if c.Language.TOEFL != nil {
		v := *c.Language.TOEFL
		out.Language.TOEFL = &v
	}
	if c.Language.IELTS != nil {
		v := *c.Language.IELTS
		out.Language.IELTS = &v
	}
	if c.Language.GRE != nil {
		v := *c.Language.GRE
		out.Language.GRE = &v
	}
	if c.Language.GMAT != nil {
		v := *c.Language.GMAT
		out.Language.GMAT = &v
	}
	return &out
}

// GPAOn4 normalizes the GPA to a 4.0 scale regardless of the tagged scale.
func (c *MatchCriteria) GPAOn4() float64 {
	if c.GPAScale == "100" {
		return c.GPA / 25.0
	}
	return c.GPA
}

// CriteriaPatch is a partial edit applied by Update. Nil fields are left
// untouched; country/program toggles flip membership in the target sets.
type CriteriaPatch struct {
	Mode            *models.SearchMode     `json:"mode" validate:"omitempty,is-search-mode"`
	ToggleCountries []string               `json:"toggle_countries"`
	TogglePrograms  []string               `json:"toggle_programs"`
	BudgetMin       *float64               `json:"budget_min" validate:"omitempty,min=0"`
	BudgetMax       *float64               `json:"budget_max" validate:"omitempty,min=0"`
	Risk            *models.RiskPreference `json:"risk_preference" validate:"omitempty,is-risk-preference"`
	Weights         WeightConfig           `json:"weights"`
	Distribution    *TierDistribution      `json:"target_distribution"`
}
