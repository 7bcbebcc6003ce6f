package handlers

import (
	"net/http"

	"offerwise_backend/internal/middleware"
	"offerwise_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type VersionHandler struct {
	*BaseHandler
	versionService services.VersionService
}

func NewVersionHandler(base *BaseHandler, versionService services.VersionService) *VersionHandler {
	return &VersionHandler{
		BaseHandler:    base,
		versionService: versionService,
	}
}

func (h *VersionHandler) RegisterRoutes(r *gin.RouterGroup) {
	versions := r.Group("/versions")
	versions.Use(middleware.AuthMiddleware())
	{
		versions.GET("/students/:studentId", h.ListVersions)
		versions.POST("/:versionId/adopt", h.AdoptVersion)
	}
}

func (h *VersionHandler) ListVersions(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	versions, err := h.versionService.ListForStudent(c.Param("studentId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"versions": versions,
		"total":    len(versions),
	})
}

func (h *VersionHandler) AdoptVersion(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	version, err := h.versionService.Adopt(c.Param("versionId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, version)
}
