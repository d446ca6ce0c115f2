package api

import (
	"fmt"
	"net/http"

	"dreamweaver-server/internal/interfaces"
	"dreamweaver-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileHandler serves the child profile CRUD endpoints.
type ProfileHandler struct {
	profiles interfaces.ProfileRepository
	logger   *zap.Logger
}

func NewProfileHandler(profiles interfaces.ProfileRepository, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger.Named("ProfileHandler"),
	}
}

func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	profiles := rg.Group("/profiles")
	{
		profiles.POST("", h.createProfile)
		profiles.GET("", h.listProfiles)
		profiles.GET("/:id", h.getProfile)
		profiles.PUT("/:id", h.updateProfile)
		profiles.DELETE("/:id", h.deleteProfile)
	}
}

type profileRequest struct {
	Name            string `json:"name" binding:"required"`
	Age             int    `json:"age" binding:"required"`
	FavoriteAnimal  string `json:"favoriteAnimal"`
	FavoriteColor   string `json:"favoriteColor"`
	BestFriend      string `json:"bestFriend"`
	CurrentInterest string `json:"currentInterest"`
}

func (h *ProfileHandler) createProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for createProfile", zap.Error(err))
		handleServiceError(c, fmt.Errorf("%w: %s", models.ErrInvalidInput, err), h.logger)
		return
	}

	profile := &models.ChildProfile{
		Name:            req.Name,
		Age:             req.Age,
		FavoriteAnimal:  req.FavoriteAnimal,
		FavoriteColor:   req.FavoriteColor,
		BestFriend:      req.BestFriend,
		CurrentInterest: req.CurrentInterest,
	}
	if err := profile.Validate(); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	if err := h.profiles.Create(c.Request.Context(), profile); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (h *ProfileHandler) listProfiles(c *gin.Context) {
	profiles, err := h.profiles.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	if profiles == nil {
		profiles = []*models.ChildProfile{}
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *ProfileHandler) getProfile(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	profile, err := h.profiles.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) updateProfile(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for updateProfile", zap.Error(err))
		handleServiceError(c, fmt.Errorf("%w: %s", models.ErrInvalidInput, err), h.logger)
		return
	}

	profile := &models.ChildProfile{
		ID:              id,
		Name:            req.Name,
		Age:             req.Age,
		FavoriteAnimal:  req.FavoriteAnimal,
		FavoriteColor:   req.FavoriteColor,
		BestFriend:      req.BestFriend,
		CurrentInterest: req.CurrentInterest,
	}
	if err := profile.Validate(); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	if err := h.profiles.Update(c.Request.Context(), profile); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) deleteProfile(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	if err := h.profiles.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseIDParam(c *gin.Context) (uuid.UUID, error) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid ID format %q", models.ErrInvalidInput, idStr)
	}
	return id, nil
}
