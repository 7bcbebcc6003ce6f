package algorithms

import (
	"sort"

	"offerwise_backend/internal/models"
	"offerwise_backend/internal/services/dto"
)

// TierPolicy controls where the tier cut points land. The exact multipliers
// are tunable; callers that want a different bias construct their own policy.
type TierPolicy struct {
	Distribution dto.TierDistribution
	Risk         models.RiskPreference
}

// DefaultDistribution is used when the profile carries no target split.
var DefaultDistribution = dto.TierDistribution{Sprint: 30, Match: 40, Safety: 30}

// riskFactor scales the Reach share of the distribution. 稳健 classifies
// fewer programs as 冲刺 (stricter cutoff), 进取 classifies more.
func (p TierPolicy) riskFactor() float64 {
	switch p.Risk {
	case models.RiskConservative:
		return 0.7
	case models.RiskAggressive:
		return 1.35
	default:
		return 1.0
	}
}

// shares normalizes the distribution to fractions after applying the risk
// bias to the Reach share.
func (p TierPolicy) shares() (reach, match, safety float64) {
	d := p.Distribution
	if d.Sprint <= 0 && d.Match <= 0 && d.Safety <= 0 {
		d = DefaultDistribution
	}
	reach = float64(d.Sprint) * p.riskFactor()
	match = float64(d.Match)
	safety = float64(d.Safety)
	total := reach + match + safety
	if total == 0 {
		return 0, 1, 0
	}
	return reach / total, match / total, safety / total
}

// AssignTiers sorts results by composite descending and places the tier cut
// points so that approximately the policy's shares land in each tier. The
// top slice becomes 冲刺, the bottom 保底, the middle 匹配.
func AssignTiers(results []dto.RecommendationResult, policy TierPolicy) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	n := len(results)
	if n == 0 {
		return
	}

	reachShare, _, safetyShare := policy.shares()
	reachCount := int(float64(n)*reachShare + 0.5)
	safetyCount := int(float64(n)*safetyShare + 0.5)
	if reachCount+safetyCount > n {
		safetyCount = n - reachCount
	}
	if safetyCount < 0 {
		safetyCount = 0
	}

	for i := range results {
		switch {
		case i < reachCount:
			results[i].Tier = models.TierReach
		case i >= n-safetyCount:
			results[i].Tier = models.TierSafety
		default:
			results[i].Tier = models.TierMatch
		}
	}
}

// GroupByTier orders a tiered result set Reach -> Match -> Safety, keeping
// composite-descending order within each tier, and reports per-tier counts.
func GroupByTier(results []dto.RecommendationResult) ([]dto.RecommendationResult, dto.TierCounts) {
	var counts dto.TierCounts
	grouped := make([]dto.RecommendationResult, 0, len(results))
	for _, tier := range []models.Tier{models.TierReach, models.TierMatch, models.TierSafety} {
		for _, r := range results {
			if r.Tier != tier {
				continue
			}
			grouped = append(grouped, r)
			switch tier {
			case models.TierReach:
				counts.Reach++
			case models.TierMatch:
				counts.Match++
			case models.TierSafety:
				counts.Safety++
			}
		}
	}
	return grouped, counts
}
