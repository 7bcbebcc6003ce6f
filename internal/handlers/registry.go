package handlers

// AppHandlers groups every handler of the application.
type AppHandlers struct {
	ProfileHandler        *ProfileHandler
	RecommendationHandler *RecommendationHandler
	CandidateHandler      *CandidateHandler
	VersionHandler        *VersionHandler
}
