package handlers

import (
	"net/http"

	"offerwise_backend/internal/middleware"
	"offerwise_backend/internal/models"
	"offerwise_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	*BaseHandler
	profileService services.ProfileService
}

func NewProfileHandler(base *BaseHandler, profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    base,
		profileService: profileService,
	}
}

func (h *ProfileHandler) RegisterRoutes(r *gin.RouterGroup) {
	profiles := r.Group("/students")
	profiles.Use(middleware.AuthMiddleware())
	{
		profiles.POST("", h.CreateProfile)
		profiles.GET("/:studentId", h.GetProfile)
		profiles.PUT("/:studentId", h.UpdateProfile)
	}
}

func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var profile models.StudentProfile
	if !h.BindAndValidate_JSON(c, &profile) {
		return
	}
	if profile.Owner == "" {
		profile.Owner = userID
	}

	created, err := h.profileService.Create(&profile)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	profile, err := h.profileService.Get(c.Param("studentId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	var profile models.StudentProfile
	if !h.BindAndValidate_JSON(c, &profile) {
		return
	}
	profile.ID = c.Param("studentId")

	updated, err := h.profileService.Update(&profile)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
