package services

// ServiceContainer groups every application service.
type ServiceContainer struct {
	ProfileService        ProfileService
	CriteriaService       CriteriaService
	RecommendationService RecommendationService
	CandidatePoolService  CandidatePoolService
	VersionService        VersionService
}
