package models

type SearchMode string
type SearchStage string
type Tier string
type RiskPreference string
type CandidateSource string
type CandidateStage string
type CandidateStatus string
type StrengthKey string

const (
	SearchModeQuick SearchMode = "quick"
	SearchModeDeep  SearchMode = "deep"

	// DeepSearch stages, in execution order.
	StageParsing        SearchStage = "parsing"
	StageLoading        SearchStage = "loading"
	StageInitialFilter  SearchStage = "initialFilter"
	StageConditionMatch SearchStage = "conditionMatch"
	StageDeepAnalysis   SearchStage = "deepAnalysis"
	StageScoring        SearchStage = "scoring"
	StageCaseComparison SearchStage = "caseComparison"
	StageSorting        SearchStage = "sorting"
	StageCompleted      SearchStage = "completed"

	TierReach  Tier = "冲刺"
	TierMatch  Tier = "匹配"
	TierSafety Tier = "保底"

	RiskConservative RiskPreference = "稳健"
	RiskBalanced     RiskPreference = "均衡"
	RiskAggressive   RiskPreference = "进取"

	CandidateSourceAI     CandidateSource = "AI推荐"
	CandidateSourceManual CandidateSource = "人工添加"

	// Candidate stages reuse the tier labels.
	CandidateStageReach  CandidateStage = "冲刺"
	CandidateStageMatch  CandidateStage = "匹配"
	CandidateStageSafety CandidateStage = "保底"

	CandidateStatusPending  CandidateStatus = "待讨论"
	CandidateStatusApproved CandidateStatus = "通过"
	CandidateStatusRejected CandidateStatus = "淘汰"

	StrengthRanking    StrengthKey = "ranking"
	StrengthResearch   StrengthKey = "research"
	StrengthInternship StrengthKey = "internship"
	StrengthLanguage   StrengthKey = "language"
	StrengthBudget     StrengthKey = "budget"
	StrengthLocation   StrengthKey = "location"
)

// DeepSearchStages is the canonical stage order of a deep run.
var DeepSearchStages = []SearchStage{
	StageParsing,
	StageLoading,
	StageInitialFilter,
	StageConditionMatch,
	StageDeepAnalysis,
	StageScoring,
	StageCaseComparison,
	StageSorting,
}

// StrengthKeys lists every scoring dimension.
var StrengthKeys = []StrengthKey{
	StrengthRanking,
	StrengthResearch,
	StrengthInternship,
	StrengthLanguage,
	StrengthBudget,
	StrengthLocation,
}

func IsValidSearchMode(m SearchMode) bool {
	return m == SearchModeQuick || m == SearchModeDeep
}

func IsValidRiskPreference(r RiskPreference) bool {
	return r == RiskConservative || r == RiskBalanced || r == RiskAggressive
}

func IsValidCandidateSource(s CandidateSource) bool {
	return s == CandidateSourceAI || s == CandidateSourceManual
}

func IsValidCandidateStage(s CandidateStage) bool {
	return s == CandidateStageReach || s == CandidateStageMatch || s == CandidateStageSafety
}

func IsValidCandidateStatus(s CandidateStatus) bool {
	return s == CandidateStatusPending || s == CandidateStatusApproved || s == CandidateStatusRejected
}

func IsValidTier(t Tier) bool {
	return t == TierReach || t == TierMatch || t == TierSafety
}
