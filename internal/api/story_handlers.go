package api

import (
	"fmt"
	"net/http"

	"dreamweaver-server/internal/models"
	"dreamweaver-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoryHandler serves the story generation and retrieval endpoints.
type StoryHandler struct {
	service *service.StoryService
	logger  *zap.Logger
}

func NewStoryHandler(svc *service.StoryService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		service: svc,
		logger:  logger.Named("StoryHandler"),
	}
}

func (h *StoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stories := rg.Group("/stories")
	{
		stories.POST("/options", h.generateOptions)
		stories.POST("/generate", h.generateContent)
		stories.POST("/validate", h.validateContent)
		stories.GET("", h.listStories)
		stories.GET("/:id", h.getStory)
		stories.DELETE("/:id", h.deleteStory)
		stories.POST("/:id/next", h.nextSegment)
	}
}

type generateOptionsRequest struct {
	ProfileID uuid.UUID `json:"profileId" binding:"required"`
	Count     int       `json:"count"`
}

func (h *StoryHandler) generateOptions(c *gin.Context) {
	var req generateOptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for generateOptions", zap.Error(err))
		handleServiceError(c, fmt.Errorf("%w: %s", models.ErrInvalidInput, err), h.logger)
		return
	}
	if req.Count == 0 {
		req.Count = 3
	}

	options, err := h.service.GenerateOptions(c.Request.Context(), req.ProfileID, req.Count)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": options})
}

type generateContentRequest struct {
	ProfileID    uuid.UUID            `json:"profileId" binding:"required"`
	Option       models.StoryOption   `json:"option" binding:"required"`
	PriorChoices []models.PriorChoice `json:"priorChoices"`
}

func (h *StoryHandler) generateContent(c *gin.Context) {
	var req generateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for generateContent", zap.Error(err))
		handleServiceError(c, fmt.Errorf("%w: %s", models.ErrInvalidInput, err), h.logger)
		return
	}
	if req.Option.Title == "" {
		handleServiceError(c, fmt.Errorf("%w: option.title is required", models.ErrInvalidInput), h.logger)
		return
	}

	story, root, err := h.service.GenerateContent(c.Request.Context(), req.ProfileID, req.Option, req.PriorChoices)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"story":   story,
		"segment": root,
	})
}

type validateContentRequest struct {
	ProfileID uuid.UUID `json:"profileId" binding:"required"`
	Text      string    `json:"text" binding:"required"`
}

func (h *StoryHandler) validateContent(c *gin.Context) {
	var req validateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for validateContent", zap.Error(err))
		handleServiceError(c, fmt.Errorf("%w: %s", models.ErrInvalidInput, err), h.logger)
		return
	}

	result, err := h.service.ValidateContent(c.Request.Context(), req.Text, req.ProfileID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, result)
}

type nextSegmentRequest struct {
	SegmentID *uuid.UUID `json:"segmentId"`
	ChoiceID  string     `json:"choiceId"`
}

func (h *StoryHandler) nextSegment(c *gin.Context) {
	storyID, err := parseIDParam(c)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	var req nextSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body for nextSegment", zap.Error(err))
		handleServiceError(c, fmt.Errorf("%w: %s", models.ErrInvalidInput, err), h.logger)
		return
	}

	segment, err := h.service.GetNextSegment(c.Request.Context(), storyID, req.SegmentID, req.ChoiceID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, segment)
}

func (h *StoryHandler) listStories(c *gin.Context) {
	profileIDStr := c.Query("profileId")
	profileID, err := uuid.Parse(profileIDStr)
	if err != nil {
		handleServiceError(c, fmt.Errorf("%w: profileId query parameter is required", models.ErrInvalidInput), h.logger)
		return
	}

	stories, err := h.service.ListStories(c.Request.Context(), profileID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	if stories == nil {
		stories = []*models.SavedStory{}
	}
	c.JSON(http.StatusOK, stories)
}

func (h *StoryHandler) getStory(c *gin.Context) {
	storyID, err := parseIDParam(c)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	story, segments, err := h.service.GetStoryWithSegments(c.Request.Context(), storyID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"story":    story,
		"segments": segments,
	})
}

func (h *StoryHandler) deleteStory(c *gin.Context) {
	storyID, err := parseIDParam(c)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	if err := h.service.DeleteStory(c.Request.Context(), storyID); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}
