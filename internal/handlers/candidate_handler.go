package handlers

import (
	"net/http"

	"offerwise_backend/internal/middleware"
	"offerwise_backend/internal/models"
	"offerwise_backend/internal/services"
	"offerwise_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type CandidateHandler struct {
	*BaseHandler
	poolService services.CandidatePoolService
}

func NewCandidateHandler(base *BaseHandler, poolService services.CandidatePoolService) *CandidateHandler {
	return &CandidateHandler{
		BaseHandler: base,
		poolService: poolService,
	}
}

func (h *CandidateHandler) RegisterRoutes(r *gin.RouterGroup) {
	candidates := r.Group("/candidates")
	candidates.Use(middleware.AuthMiddleware())
	{
		candidates.POST("/accept", h.AcceptResults)
		candidates.POST("", h.AddManual)
		candidates.GET("/students/:studentId", h.ListPool)
		candidates.GET("/students/:studentId/stats", h.PoolStats)
		candidates.PATCH("/:id/transition", h.Transition)
		candidates.PUT("/:id", h.Update)
	}
}

func (h *CandidateHandler) AcceptResults(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	var req dto.AcceptResultsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	added, skipped, err := h.poolService.AcceptResults(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"added":   added,
		"skipped": skipped,
	})
}

func (h *CandidateHandler) AddManual(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ManualCandidateRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	if req.Owner == "" {
		req.Owner = userID
	}

	entry, err := h.poolService.AddManual(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *CandidateHandler) ListPool(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	var query dto.PoolQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	entries, err := h.poolService.Filter(c.Param("studentId"), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []models.CandidateProgram{}
	}
	c.JSON(http.StatusOK, gin.H{
		"candidates": entries,
		"total":      len(entries),
	})
}

func (h *CandidateHandler) PoolStats(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	stats, err := h.poolService.Stats(c.Param("studentId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *CandidateHandler) Transition(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	var req dto.TransitionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	entry, err := h.poolService.Transition(c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *CandidateHandler) Update(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	var entry models.CandidateProgram
	if !h.BindAndValidate_JSON(c, &entry) {
		return
	}
	entry.ID = c.Param("id")

	updated, err := h.poolService.Update(&entry)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
