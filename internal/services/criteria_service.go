package services

import (
	"regexp"
	"strconv"
	"strings"

	"offerwise_backend/internal/algorithms"
	"offerwise_backend/internal/models"
	"offerwise_backend/internal/repositories"
	"offerwise_backend/internal/services/dto"
)

// CriteriaService derives and edits the match criteria a generation run
// snapshots. CanGenerate is the hard precondition of the Generate action.
type CriteriaService interface {
	Derive(studentID string) (*dto.MatchCriteria, error)
	DeriveFromProfile(profile *models.StudentProfile) *dto.MatchCriteria
	Update(criteria *dto.MatchCriteria, patch *dto.CriteriaPatch) *dto.MatchCriteria
	CanGenerate(criteria *dto.MatchCriteria) bool
}

type criteriaService struct {
	profileRepo repositories.ProfileRepository
}

func NewCriteriaService(profileRepo repositories.ProfileRepository) CriteriaService {
	return &criteriaService{profileRepo: profileRepo}
}

// Labeled-score patterns: first numeric token after the label wins, so
// "TOEFL: 106 (口语 22)" parses to 106. Both English and Chinese labels are
// accepted.
var (
	toeflPattern = regexp.MustCompile(`(?i)(?:TOEFL|托福)[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	ieltsPattern = regexp.MustCompile(`(?i)(?:IELTS|雅思)[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	grePattern   = regexp.MustCompile(`(?i)GRE[^0-9]*([0-9]+)`)
	gmatPattern  = regexp.MustCompile(`(?i)GMAT[^0-9]*([0-9]+)`)
	gpaPattern   = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*(?:/\s*([0-9]+(?:\.[0-9]+)?))?`)
)

func (s *criteriaService) Derive(studentID string) (*dto.MatchCriteria, error) {
	profile, err := s.profileRepo.GetProfile(studentID)
	if err != nil {
		return nil, err
	}
	return s.DeriveFromProfile(profile), nil
}

func (s *criteriaService) DeriveFromProfile(profile *models.StudentProfile) *dto.MatchCriteria {
	criteria := &dto.MatchCriteria{
		Mode:          models.SearchModeQuick,
		CurrentSchool: profile.School,
		Risk:          models.RiskBalanced,
		Weights:       algorithms.DefaultWeights,
		Distribution: dto.TierDistribution{
			Sprint: profile.SprintPercent,
			Match:  profile.MatchPercent,
			Safety: profile.SafetyPercent,
		},
	}

	criteria.TargetCountries = dedupeStrings(profile.PreferredCountries)
	if len(criteria.TargetCountries) == 0 {
		criteria.TargetCountries = dedupeStrings(profile.TargetRegions)
	}
	criteria.TargetPrograms = dedupeStrings(profile.TargetPrograms)

	criteria.GPA, criteria.GPAScale = parseGPA(profile.GPAText)
	criteria.Language = parseLanguageScores(profile.LanguageText + " " + profile.TestText)

	return criteria
}

// Update applies a partial edit and returns a new snapshot; the input
// criteria is never mutated.
func (s *criteriaService) Update(criteria *dto.MatchCriteria, patch *dto.CriteriaPatch) *dto.MatchCriteria {
	out := criteria.Clone()

	if patch.Mode != nil {
		out.Mode = *patch.Mode
	}
	for _, country := range patch.ToggleCountries {
		out.TargetCountries = toggleMembership(out.TargetCountries, country)
	}
	for _, program := range patch.TogglePrograms {
		out.TargetPrograms = toggleMembership(out.TargetPrograms, program)
	}
	if patch.BudgetMin != nil {
		out.Budget.Min = *patch.BudgetMin
	}
	if patch.BudgetMax != nil {
		out.Budget.Max = *patch.BudgetMax
	}
	if patch.Risk != nil {
		out.Risk = *patch.Risk
	}
	if patch.Weights != nil {
		out.Weights = algorithms.SanitizeWeights(patch.Weights)
	}
	if patch.Distribution != nil {
		out.Distribution = *patch.Distribution
	}

	return out
}

func (s *criteriaService) CanGenerate(criteria *dto.MatchCriteria) bool {
	return criteria != nil &&
		len(criteria.TargetCountries) > 0 &&
		len(criteria.TargetPrograms) > 0
}

// parseGPA reads "3.7/4.0", "88/100" or a bare number. Without an explicit
// denominator, values above 5 are assumed to be on the 100 scale.
func parseGPA(text string) (float64, string) {
	match := gpaPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, "4.0"
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, "4.0"
	}
	if match[2] != "" {
		if denom, err := strconv.ParseFloat(match[2], 64); err == nil && denom >= 99 {
			return value, "100"
		}
		return value, "4.0"
	}
	if value > 5 {
		return value, "100"
	}
	return value, "4.0"
}

func parseLanguageScores(text string) dto.LanguageScores {
	var scores dto.LanguageScores
	if m := toeflPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			toefl := int(v)
			scores.TOEFL = &toefl
		}
	}
	if m := ieltsPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			scores.IELTS = &v
		}
	}
	if m := grePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			scores.GRE = &v
		}
	}
	if m := gmatPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			scores.GMAT = &v
		}
	}
	return scores
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func toggleMembership(set []string, value string) []string {
	for i, v := range set {
		if strings.EqualFold(v, value) {
			return append(set[:i], set[i+1:]...)
		}
	}
	return append(set, value)
}
