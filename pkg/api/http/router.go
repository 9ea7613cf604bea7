// Package http provides HTTP API handlers.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harmonia-io/harmonia/internal/common/errors"
	"github.com/harmonia-io/harmonia/internal/service"
)

// Handler provides HTTP handlers for the resolution API.
type Handler struct {
	resolution *service.ResolutionService
}

// NewHandler creates a new Handler.
func NewHandler(resolution *service.ResolutionService) *Handler {
	return &Handler{
		resolution: resolution,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Conflict operations
		api.POST("/conflicts/detect", h.DetectConflicts)
		api.POST("/conflicts/resolve", h.ResolveConflicts)
		api.GET("/conflicts/:entityId/history", h.ConflictHistory)

		// Three-way merge
		api.POST("/merge", h.Merge)

		// Business rules
		api.POST("/rules", h.AddRule)

		// Statistics
		api.GET("/stats", h.Statistics)

		// Health check
		api.GET("/health", h.HealthCheck)
	}
}

// DetectConflicts detects conflicts between two concurrent changesets.
// POST /api/v1/conflicts/detect
func (h *Handler) DetectConflicts(c *gin.Context) {
	var req service.DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	conflicts, err := h.resolution.Detect(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conflicts": conflicts,
		"count":     len(conflicts),
	})
}

// ResolveConflicts resolves a batch of conflicts.
// POST /api/v1/conflicts/resolve
func (h *Handler) ResolveConflicts(c *gin.Context) {
	var req service.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	result, err := h.resolution.Resolve(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Merge performs a three-way merge.
// POST /api/v1/merge
func (h *Handler) Merge(c *gin.Context) {
	var req service.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	result, err := h.resolution.Merge(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ConflictHistory returns the retained conflicts for one entity.
// GET /api/v1/conflicts/:entityId/history
func (h *Handler) ConflictHistory(c *gin.Context) {
	entityID := c.Param("entityId")

	history := h.resolution.History(entityID)

	c.JSON(http.StatusOK, gin.H{
		"entity_id": entityID,
		"conflicts": history,
		"count":     len(history),
	})
}

// AddRule registers a business rule.
// POST /api/v1/rules
func (h *Handler) AddRule(c *gin.Context) {
	var req service.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	id, err := h.resolution.AddRule(&req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"rule_id": id,
	})
}

// Statistics returns aggregate conflict statistics.
// GET /api/v1/stats
func (h *Handler) Statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.resolution.Statistics())
}

// HealthCheck handles health check requests.
// GET /api/v1/health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.IsInvalidInput(err), errors.IsUnknownStrategy(err), errors.IsInvalidRule(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
