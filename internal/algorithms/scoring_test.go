package algorithms

import (
	"math"
	"testing"

	"offerwise_backend/internal/models"
	"offerwise_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
)

func toeflPtr(v int) *int { return &v }

func testProgram() *models.Program {
	return &models.Program{
		ID:              "p1",
		School:          "卡内基梅隆大学",
		Name:            "MS in Computer Science",
		Category:        "CS",
		Country:         "美国",
		RankingTier:     1,
		ResearchIndex:   90,
		InternshipIndex: 70,
		MinGPA:          3.5,
		MinTOEFL:        100,
		AnnualCost:      60000,
		Currency:        "USD",
	}
}

func testCriteria() *dto.MatchCriteria {
	return &dto.MatchCriteria{
		TargetCountries: []string{"美国"},
		TargetPrograms:  []string{"CS"},
		GPA:             3.7,
		GPAScale:        "4.0",
		Language:        dto.LanguageScores{TOEFL: toeflPtr(106)},
		Budget:          dto.BudgetRange{Min: 30000, Max: 70000, Currency: "USD"},
	}
}

func TestDimensionScoresInRange(t *testing.T) {
	scores := DimensionScores(testProgram(), testCriteria())

	assert.Len(t, scores, len(models.StrengthKeys))
	for key, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0, "dimension %s", key)
		assert.LessOrEqual(t, s, 100.0, "dimension %s", key)
	}
	assert.Equal(t, 100.0, scores[models.StrengthLanguage], "106 >= 100 requirement")
	assert.Equal(t, 100.0, scores[models.StrengthBudget], "cost inside range")
	assert.Equal(t, 100.0, scores[models.StrengthLocation])
}

func TestLanguageScoreDecreasesWithDeficit(t *testing.T) {
	p := testProgram()
	p.MinTOEFL = 110

	weak := testCriteria()
	weak.Language.TOEFL = toeflPtr(95)
	strong := testCriteria()

	assert.Less(t,
		DimensionScores(p, weak)[models.StrengthLanguage],
		DimensionScores(p, strong)[models.StrengthLanguage])
}

func TestBudgetScoreDecreasesOutsideRange(t *testing.T) {
	c := testCriteria()
	expensive := testProgram()
	expensive.AnnualCost = 120000

	inRange := DimensionScores(testProgram(), c)[models.StrengthBudget]
	over := DimensionScores(expensive, c)[models.StrengthBudget]
	assert.Less(t, over, inRange)
}

func TestCompositeNeverNaN(t *testing.T) {
	scores := DimensionScores(testProgram(), testCriteria())

	cases := map[string]dto.WeightConfig{
		"all zero": {models.StrengthRanking: 0, models.StrengthBudget: 0},
		"empty":    {},
		"nil":      nil,
		"negative": {models.StrengthRanking: -50, models.StrengthBudget: -1},
		"nan":      {models.StrengthRanking: math.NaN()},
		"inf":      {models.StrengthRanking: math.Inf(1)},
		"normal":   DefaultWeights,
	}
	for name, weights := range cases {
		composite := Composite(scores, weights)
		assert.False(t, math.IsNaN(composite), name)
		assert.GreaterOrEqual(t, composite, 0.0, name)
		assert.LessOrEqual(t, composite, 100.0, name)
	}
}

func TestCompositeDeterministic(t *testing.T) {
	p, c := testProgram(), testCriteria()
	first := Composite(DimensionScores(p, c), DefaultWeights)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Composite(DimensionScores(p, c), DefaultWeights))
	}
}

func TestSanitizeWeightsClamps(t *testing.T) {
	w := SanitizeWeights(dto.WeightConfig{
		models.StrengthRanking:  150,
		models.StrengthResearch: -20,
		models.StrengthBudget:   math.NaN(),
		models.StrengthLanguage: 55,
	})

	assert.Equal(t, 100.0, w[models.StrengthRanking])
	assert.Equal(t, 0.0, w[models.StrengthResearch])
	assert.Equal(t, 55.0, w[models.StrengthLanguage])
	_, hasBudget := w[models.StrengthBudget]
	assert.False(t, hasBudget, "NaN weight is dropped")
}

func TestMatchReasonPicksStrongDimensions(t *testing.T) {
	reason := MatchReason(dto.DimensionScores{
		models.StrengthRanking:  95,
		models.StrengthLanguage: 100,
		models.StrengthBudget:   40,
	})
	assert.Contains(t, reason, "院校排名匹配")
	assert.Contains(t, reason, "语言成绩达标")
	assert.NotContains(t, reason, "预算契合")
}
