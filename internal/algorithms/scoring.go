package algorithms

import (
	"fmt"
	"math"
	"strings"

	"offerwise_backend/internal/models"
	"offerwise_backend/internal/services/dto"
)

// DefaultWeights is used when the caller supplies no weight config.
var DefaultWeights = dto.WeightConfig{
	models.StrengthRanking:    70,
	models.StrengthResearch:   50,
	models.StrengthInternship: 50,
	models.StrengthLanguage:   60,
	models.StrengthBudget:     40,
	models.StrengthLocation:   30,
}

// SanitizeWeights clamps every weight into [0,100] and drops NaN/Inf so one
// malformed slider value cannot corrupt a whole run. Unknown keys are kept
// out; missing keys count as zero weight.
func SanitizeWeights(w dto.WeightConfig) dto.WeightConfig {
	out := make(dto.WeightConfig, len(models.StrengthKeys))
	for _, key := range models.StrengthKeys {
		v, ok := w[key]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[key] = clamp(v, 0, 100)
	}
	return out
}

// DimensionScores computes one subscore per strength dimension, each in
// [0,100]. Identical (program, criteria) always yields identical output.
func DimensionScores(p *models.Program, c *dto.MatchCriteria) dto.DimensionScores {
	return dto.DimensionScores{
		models.StrengthRanking:    rankingScore(p),
		models.StrengthResearch:   clamp(float64(p.ResearchIndex), 0, 100),
		models.StrengthInternship: clamp(float64(p.InternshipIndex), 0, 100),
		models.StrengthLanguage:   languageScore(p, c),
		models.StrengthBudget:     budgetScore(p, c),
		models.StrengthLocation:   locationScore(p, c),
	}
}

// Composite is the weighted mean of the subscores, clamped to [0,100].
// A zero weight sum (or all-NaN input) yields 0, never NaN.
func Composite(scores dto.DimensionScores, weights dto.WeightConfig) float64 {
	weights = SanitizeWeights(weights)
	var sum, weightSum float64
	for key, w := range weights {
		s, ok := scores[key]
		if !ok || math.IsNaN(s) {
			continue
		}
		sum += w * clamp(s, 0, 100)
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	composite := sum / weightSum
	if math.IsNaN(composite) {
		return 0
	}
	return math.Round(clamp(composite, 0, 100)*100) / 100
}

func rankingScore(p *models.Program) float64 {
	switch p.RankingTier {
	case 1:
		return 95
	case 2:
		return 85
	case 3:
		return 72
	case 4:
		return 60
	case 5:
		return 48
	default:
		return 55 // unranked programs sit mid-field
	}
}

// languageScore decreases as the program's minimum requirement exceeds the
// student's score. With no usable pair of numbers it stays neutral.
func languageScore(p *models.Program, c *dto.MatchCriteria) float64 {
	if c.Language.TOEFL != nil && p.MinTOEFL > 0 {
		deficit := float64(p.MinTOEFL - *c.Language.TOEFL)
		if deficit <= 0 {
			return 100
		}
		return clamp(100-4*deficit, 0, 100)
	}
	if c.Language.IELTS != nil && p.MinIELTS > 0 {
		deficit := p.MinIELTS - *c.Language.IELTS
		if deficit <= 0 {
			return 100
		}
		return clamp(100-25*deficit, 0, 100)
	}
	return 60
}

// budgetScore decreases as the program cost exits the requested range.
// Overshooting the ceiling is penalized much harder than undershooting.
func budgetScore(p *models.Program, c *dto.MatchCriteria) float64 {
	if c.Budget.Max <= 0 {
		return 75 // no budget stated
	}
	cost := p.AnnualCost
	if cost >= c.Budget.Min && cost <= c.Budget.Max {
		return 100
	}
	if cost > c.Budget.Max {
		over := (cost - c.Budget.Max) / c.Budget.Max
		return clamp(100-200*over, 0, 100)
	}
	under := (c.Budget.Min - cost) / c.Budget.Min
	return clamp(100-60*under, 0, 100)
}

func locationScore(p *models.Program, c *dto.MatchCriteria) float64 {
	for _, country := range c.TargetCountries {
		if strings.EqualFold(country, p.Country) {
			return 100
		}
	}
	return 25
}

// MatchReason summarizes the strongest dimensions in one short line.
func MatchReason(scores dto.DimensionScores) string {
	labels := map[models.StrengthKey]string{
		models.StrengthRanking:    "院校排名匹配",
		models.StrengthResearch:   "科研资源突出",
		models.StrengthInternship: "实习机会丰富",
		models.StrengthLanguage:   "语言成绩达标",
		models.StrengthBudget:     "预算契合",
		models.StrengthLocation:   "地区偏好一致",
	}
	var reasons []string
	for _, key := range models.StrengthKeys {
		if scores[key] >= 80 {
			reasons = append(reasons, labels[key])
		}
	}
	if len(reasons) == 0 {
		return "综合条件基本符合"
	}
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	return strings.Join(reasons, "，")
}

// Rationale expands the reasoning for a single result.
func Rationale(p *models.Program, scores dto.DimensionScores, composite float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s 综合匹配度 %.1f。", p.School, p.Name, composite)
	if scores[models.StrengthLanguage] >= 100 {
		b.WriteString("语言成绩满足项目要求。")
	} else if scores[models.StrengthLanguage] < 60 {
		b.WriteString("语言成绩与项目门槛存在差距，需提分或提供其他证明。")
	}
	if scores[models.StrengthBudget] >= 100 {
		b.WriteString("费用在预算范围内。")
	} else if scores[models.StrengthBudget] < 50 {
		b.WriteString("费用明显超出预算，需评估资金方案。")
	}
	if scores[models.StrengthRanking] >= 85 {
		b.WriteString("院校层次高，申请竞争激烈。")
	}
	return b.String()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
