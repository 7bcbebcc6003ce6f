package handlers

import (
	"net/http"

	"offerwise_backend/internal/middleware"
	"offerwise_backend/internal/models"
	"offerwise_backend/internal/services"
	"offerwise_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type RecommendationHandler struct {
	*BaseHandler
	criteriaService       services.CriteriaService
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(
	base *BaseHandler,
	criteriaService services.CriteriaService,
	recommendationService services.RecommendationService,
) *RecommendationHandler {
	return &RecommendationHandler{
		BaseHandler:           base,
		criteriaService:       criteriaService,
		recommendationService: recommendationService,
	}
}

func (h *RecommendationHandler) RegisterRoutes(r *gin.RouterGroup) {
	rec := r.Group("/recommendations")
	rec.Use(middleware.AuthMiddleware())
	{
		rec.GET("/students/:studentId/criteria", h.DeriveCriteria)
		rec.POST("/criteria/preview", h.PreviewCriteria)
		rec.POST("/generate", h.Generate)
		rec.GET("/runs/:runId", h.GetRun)
		rec.POST("/runs/:runId/cancel", h.CancelRun)
	}
}

// DeriveCriteria builds the initial criteria snapshot from a student profile.
func (h *RecommendationHandler) DeriveCriteria(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	criteria, err := h.criteriaService.Derive(c.Param("studentId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"criteria":     criteria,
		"can_generate": h.criteriaService.CanGenerate(criteria),
	})
}

type criteriaPreviewRequest struct {
	Criteria *dto.MatchCriteria `json:"criteria" validate:"required"`
	Patch    *dto.CriteriaPatch `json:"patch" validate:"required"`
}

// PreviewCriteria applies a partial edit and returns the resulting snapshot.
// The front-end keeps the snapshot; nothing is stored server-side.
func (h *RecommendationHandler) PreviewCriteria(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	var req criteriaPreviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	updated := h.criteriaService.Update(req.Criteria, req.Patch)
	c.JSON(http.StatusOK, gin.H{
		"criteria":     updated,
		"can_generate": h.criteriaService.CanGenerate(updated),
	})
}

// Generate runs quick matching synchronously, or starts an async deep run and
// returns its id.
func (h *RecommendationHandler) Generate(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	var req dto.GenerateRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if req.Criteria.Mode == models.SearchModeDeep {
		runID, err := h.recommendationService.StartDeepSearch(req.StudentID, req.Criteria)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"run_id": runID,
			"mode":   models.SearchModeDeep,
		})
		return
	}

	set, err := h.recommendationService.GenerateQuick(c.Request.Context(), req.StudentID, req.Criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// GetRun is the polling endpoint: state, latest progress, results once done.
func (h *RecommendationHandler) GetRun(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	snapshot, err := h.recommendationService.RunSnapshot(c.Param("runId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *RecommendationHandler) CancelRun(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	if err := h.recommendationService.CancelRun(c.Param("runId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
