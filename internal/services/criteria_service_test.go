package services

import (
	"testing"

	"offerwise_backend/internal/models"
	"offerwise_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveFromProfile_ParsesFreeTextScores(t *testing.T) {
	svc := NewCriteriaService(nil)

	profile := &models.StudentProfile{
		ID:                 "stu-1",
		School:             "浙江大学",
		GPAText:            "88/100",
		LanguageText:       "托福: 106 (口语 22)",
		TestText:           "GRE: 325",
		PreferredCountries: []string{"美国", "美国", "新加坡", ""},
		TargetPrograms:     []string{"CS", "数据科学"},
		SprintPercent:      30,
		MatchPercent:       40,
		SafetyPercent:      30,
	}

	criteria := svc.DeriveFromProfile(profile)
	assert.Equal(t, 88.0, criteria.GPA)
	assert.Equal(t, "100", criteria.GPAScale)
	assert.InDelta(t, 3.52, criteria.GPAOn4(), 0.001)
	require.NotNil(t, criteria.Language.TOEFL)
	assert.Equal(t, 106, *criteria.Language.TOEFL)
	require.NotNil(t, criteria.Language.GRE)
	assert.Equal(t, 325, *criteria.Language.GRE)
	assert.Nil(t, criteria.Language.IELTS)

	assert.Equal(t, []string{"美国", "新加坡"}, criteria.TargetCountries, "duplicates and blanks dropped")
	assert.Equal(t, models.RiskBalanced, criteria.Risk)
	assert.Equal(t, dto.TierDistribution{Sprint: 30, Match: 40, Safety: 30}, criteria.Distribution)
}

func TestDeriveFromProfile_GPAVariants(t *testing.T) {
	svc := NewCriteriaService(nil)

	cases := []struct {
		text  string
		gpa   float64
		scale string
	}{
		{"3.7/4.0", 3.7, "4.0"},
		{"88/100", 88, "100"},
		{"3.85", 3.85, "4.0"},
		{"91", 91, "100"},
		{"", 0, "4.0"},
	}
	for _, tc := range cases {
		criteria := svc.DeriveFromProfile(&models.StudentProfile{GPAText: tc.text})
		assert.Equal(t, tc.gpa, criteria.GPA, "text %q", tc.text)
		assert.Equal(t, tc.scale, criteria.GPAScale, "text %q", tc.text)
	}
}

func TestUpdate_ReturnsNewSnapshot(t *testing.T) {
	svc := NewCriteriaService(nil)

	original := &dto.MatchCriteria{
		TargetCountries: []string{"美国"},
		TargetPrograms:  []string{"CS"},
		Risk:            models.RiskBalanced,
		Budget:          dto.BudgetRange{Max: 50000},
	}

	aggressive := models.RiskAggressive
	budgetMax := 65000.0
	updated := svc.Update(original, &dto.CriteriaPatch{
		ToggleCountries: []string{"英国", "美国"}, // add 英国, remove 美国
		Risk:            &aggressive,
		BudgetMax:       &budgetMax,
		Weights:         dto.WeightConfig{models.StrengthRanking: 150, models.StrengthBudget: -10},
	})

	assert.Equal(t, []string{"英国"}, updated.TargetCountries)
	assert.Equal(t, models.RiskAggressive, updated.Risk)
	assert.Equal(t, 65000.0, updated.Budget.Max)
	assert.Equal(t, 100.0, updated.Weights[models.StrengthRanking], "weights clamped into [0,100]")
	assert.Equal(t, 0.0, updated.Weights[models.StrengthBudget])

	// The input snapshot stays untouched.
	assert.Equal(t, []string{"美国"}, original.TargetCountries)
	assert.Equal(t, models.RiskBalanced, original.Risk)
	assert.Equal(t, 50000.0, original.Budget.Max)
}

func TestCanGenerate(t *testing.T) {
	svc := NewCriteriaService(nil)

	assert.False(t, svc.CanGenerate(nil))
	assert.False(t, svc.CanGenerate(&dto.MatchCriteria{TargetPrograms: []string{"CS"}}))
	assert.False(t, svc.CanGenerate(&dto.MatchCriteria{TargetCountries: []string{"美国"}}))
	assert.True(t, svc.CanGenerate(&dto.MatchCriteria{
		TargetCountries: []string{"美国"},
		TargetPrograms:  []string{"CS"},
	}))
}
