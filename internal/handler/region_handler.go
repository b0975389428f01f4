package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/badursun/Roqua-sub000/internal/models"
	"github.com/badursun/Roqua-sub000/internal/region"
	"github.com/badursun/Roqua-sub000/pkg/response"
)

// RegionHandler handles HTTP requests for visited regions
type RegionHandler struct {
	store *region.Store
}

// NewRegionHandler creates a new region handler
func NewRegionHandler(store *region.Store) *RegionHandler {
	return &RegionHandler{store: store}
}

// ListRegions returns a page of regions, newest first
// GET /api/v1/regions
func (h *RegionHandler) ListRegions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	all := h.store.Regions()
	total := len(all)

	page := make([]models.VisitedRegion, 0, limit)
	for i := total - 1 - offset; i >= 0 && len(page) < limit; i-- {
		page = append(page, all[i])
	}

	response.Success(c, gin.H{
		"regions": page,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetStats returns region counts
// GET /api/v1/regions/stats
func (h *RegionHandler) GetStats(c *gin.Context) {
	response.Success(c, h.store.Stats())
}
