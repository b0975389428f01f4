package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/badursun/Roqua-sub000/internal/service"
	"github.com/badursun/Roqua-sub000/pkg/response"
)

// ExplorationHandler handles HTTP requests for coverage and the overall summary
type ExplorationHandler struct {
	service *service.ExplorationService
}

// NewExplorationHandler creates a new exploration handler
func NewExplorationHandler(service *service.ExplorationService) *ExplorationHandler {
	return &ExplorationHandler{service: service}
}

// GetCoverage returns the coverage percentage and grid parameters
// GET /api/v1/coverage
func (h *ExplorationHandler) GetCoverage(c *gin.Context) {
	response.Success(c, h.service.Coverage())
}

// GetCells returns the visited cell keys
// GET /api/v1/coverage/cells
func (h *ExplorationHandler) GetCells(c *gin.Context) {
	cells := h.service.Cells()
	response.Success(c, gin.H{
		"cells": cells,
		"count": len(cells),
	})
}

// GetSummary returns region, coverage and achievement counts
// GET /api/v1/summary
func (h *ExplorationHandler) GetSummary(c *gin.Context) {
	response.Success(c, h.service.Summary())
}

// GetSettings returns the active exploration settings
// GET /api/v1/settings
func (h *ExplorationHandler) GetSettings(c *gin.Context) {
	response.Success(c, h.service.Settings())
}
