package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"offerwise_backend/internal/models"
	"offerwise_backend/internal/services"
	"offerwise_backend/internal/services/dto"
	"offerwise_backend/internal/validator"
	"offerwise_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCriteriaService struct{}

func (s *stubCriteriaService) Derive(studentID string) (*dto.MatchCriteria, error) {
	return &dto.MatchCriteria{
		TargetCountries: []string{"美国"},
		TargetPrograms:  []string{"CS"},
	}, nil
}

func (s *stubCriteriaService) DeriveFromProfile(profile *models.StudentProfile) *dto.MatchCriteria {
	return &dto.MatchCriteria{}
}

func (s *stubCriteriaService) Update(criteria *dto.MatchCriteria, patch *dto.CriteriaPatch) *dto.MatchCriteria {
	return criteria.Clone()
}

func (s *stubCriteriaService) CanGenerate(criteria *dto.MatchCriteria) bool {
	return criteria != nil && len(criteria.TargetCountries) > 0 && len(criteria.TargetPrograms) > 0
}

type stubRecommendationService struct {
	startedRuns int
}

func (s *stubRecommendationService) GenerateQuick(ctx context.Context, studentID string, criteria *dto.MatchCriteria) (*dto.RecommendationSet, error) {
	if len(criteria.TargetCountries) == 0 || len(criteria.TargetPrograms) == 0 {
		return nil, apperrors.ErrGenerateBlocked
	}
	return &dto.RecommendationSet{
		RunID:     "run-quick",
		StudentID: studentID,
		Mode:      models.SearchModeQuick,
		Results:   []dto.RecommendationResult{{School: "CMU", Program: "MSCS", Tier: models.TierReach}},
		Counts:    dto.TierCounts{Reach: 1},
	}, nil
}

func (s *stubRecommendationService) StartDeepSearch(studentID string, criteria *dto.MatchCriteria) (string, error) {
	if len(criteria.TargetCountries) == 0 || len(criteria.TargetPrograms) == 0 {
		return "", apperrors.ErrGenerateBlocked
	}
	s.startedRuns++
	return "run-deep", nil
}

func (s *stubRecommendationService) CancelRun(runID string) error {
	if runID != "run-deep" {
		return apperrors.ErrRunNotFound
	}
	return nil
}

func (s *stubRecommendationService) RunSnapshot(runID string) (*dto.RunSnapshot, error) {
	if runID != "run-deep" {
		return nil, apperrors.ErrRunNotFound
	}
	return &dto.RunSnapshot{RunID: runID, StudentID: "stu-1", State: dto.RunStateRunning}, nil
}

func (s *stubRecommendationService) SubscribeRun(runID string) (<-chan dto.SearchProgress, func(), error) {
	return nil, nil, apperrors.ErrRunNotFound
}

func (s *stubRecommendationService) PruneFinishedRuns(olderThan time.Duration) int { return 0 }

func setupRecommendationRouter(rec services.RecommendationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	// Stand-in for AuthMiddleware: inject a fixed advisor identity.
	router.Use(func(c *gin.Context) {
		c.Set("userID", "advisor-1")
		c.Set("role", "advisor")
		c.Next()
	})

	base := NewBaseHandler(validator.New())
	h := NewRecommendationHandler(base, &stubCriteriaService{}, rec)

	api := router.Group("/api/v1/recommendations")
	{
		api.GET("/students/:studentId/criteria", h.DeriveCriteria)
		api.POST("/generate", h.Generate)
		api.GET("/runs/:runId", h.GetRun)
		api.POST("/runs/:runId/cancel", h.CancelRun)
	}
	return router
}

func TestDeriveCriteriaEndpoint(t *testing.T) {
	router := setupRecommendationRouter(&stubRecommendationService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/students/stu-1/criteria", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Criteria    dto.MatchCriteria `json:"criteria"`
		CanGenerate bool              `json:"can_generate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.CanGenerate)
	assert.Equal(t, []string{"美国"}, body.Criteria.TargetCountries)
}

func TestGenerateEndpoint_QuickAndDeep(t *testing.T) {
	rec := &stubRecommendationService{}
	router := setupRecommendationRouter(rec)

	quickBody := `{"student_id":"stu-1","criteria":{"mode":"quick","target_countries":["美国"],"target_programs":["CS"]}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/generate", strings.NewReader(quickBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "run-quick")
	assert.Zero(t, rec.startedRuns)

	deepBody := `{"student_id":"stu-1","criteria":{"mode":"deep","target_countries":["美国"],"target_programs":["CS"]}}`
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/generate", strings.NewReader(deepBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "run-deep")
	assert.Equal(t, 1, rec.startedRuns)
}

func TestGenerateEndpoint_BlockedWithoutTargets(t *testing.T) {
	router := setupRecommendationRouter(&stubRecommendationService{})

	body := `{"student_id":"stu-1","criteria":{"mode":"quick","target_countries":[],"target_programs":["CS"]}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "target country")
}

func TestRunEndpoints(t *testing.T) {
	router := setupRecommendationRouter(&stubRecommendationService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/runs/run-deep", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running"`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/runs/unknown", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/runs/run-deep/cancel", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
