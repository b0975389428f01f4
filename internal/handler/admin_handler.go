package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/badursun/Roqua-sub000/internal/middleware"
	"github.com/badursun/Roqua-sub000/internal/service"
	"github.com/badursun/Roqua-sub000/pkg/response"
)

// AdminHandler handles administrative operations
type AdminHandler struct {
	service *service.ExplorationService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(service *service.ExplorationService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{service: service, logger: logger}
}

// Recompute re-evaluates every achievement
// POST /api/v1/admin/achievements/recompute
func (h *AdminHandler) Recompute(c *gin.Context) {
	changed := h.service.Recompute(c.Request.Context())
	h.logger.Info("achievements_recomputed", "user", c.GetString(middleware.ContextUserKey), "changed", len(changed))
	response.Success(c, gin.H{"changed": changed})
}

// Reset clears all exploration state
// POST /api/v1/admin/reset
func (h *AdminHandler) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context()); err != nil {
		h.logger.Error("reset_failed", "err", err)
		response.InternalError(c, "Failed to reset exploration data")
		return
	}
	h.logger.Warn("exploration_data_reset", "user", c.GetString(middleware.ContextUserKey))
	response.Success(c, gin.H{"message": "Exploration data reset successfully"})
}

// UpdateSettings merges the body over the active settings and applies them
// PUT /api/v1/admin/settings
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	current := h.service.Settings()
	settings := current
	if err := c.ShouldBindJSON(&settings); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	// a derived clustering radius follows a new exploration radius
	if settings.ExplorationRadiusMeters != current.ExplorationRadiusMeters &&
		settings.ClusteringRadiusMeters == current.ExplorationRadiusMeters/2 {
		settings.ClusteringRadiusMeters = 0
	}
	applied := h.service.ApplySettings(settings)
	h.logger.Info("settings_updated", "user", c.GetString(middleware.ContextUserKey),
		"explorationRadius", applied.ExplorationRadiusMeters,
		"clusteringRadius", applied.ClusteringRadiusMeters)
	response.Success(c, applied)
}
