package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/badursun/Roqua-sub000/internal/ingest"
	"github.com/badursun/Roqua-sub000/internal/models"
	"github.com/badursun/Roqua-sub000/pkg/response"
)

// MaxBatchSize bounds a single batch upload
const MaxBatchSize = 1000

// FixHandler handles HTTP requests for position fixes
type FixHandler struct {
	pipeline *ingest.Pipeline
}

// NewFixHandler creates a new fix handler
func NewFixHandler(pipeline *ingest.Pipeline) *FixHandler {
	return &FixHandler{pipeline: pipeline}
}

// fixRequest is the wire form of a position fix. Pointers distinguish a
// missing coordinate from the equator or prime meridian.
type fixRequest struct {
	Latitude  *float64  `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64  `json:"longitude" binding:"required,min=-180,max=180"`
	Accuracy  *float64  `json:"accuracy" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
	Altitude  *float64  `json:"altitude"`
	Speed     *float64  `json:"speed"`
}

func (r fixRequest) fix() models.PositionFix {
	return models.PositionFix{
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
		Accuracy:  *r.Accuracy,
		Timestamp: r.Timestamp,
		Altitude:  r.Altitude,
		Speed:     r.Speed,
	}
}

type batchRequest struct {
	Fixes []fixRequest `json:"fixes" binding:"required,min=1,dive"`
}

// Submit ingests one fix synchronously and reports the outcome
// POST /api/v1/fixes
func (h *FixHandler) Submit(c *gin.Context) {
	var req fixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	out := h.pipeline.Submit(c.Request.Context(), req.fix())

	data := gin.H{"status": out.Status.String()}
	if out.Status == ingest.Processed {
		data["kind"] = out.Region.Kind.String()
		if out.Region.Reason != "" {
			data["reason"] = out.Region.Reason
		}
		if out.Region.Region != nil {
			data["region"] = out.Region.Region
		}
	}
	response.Success(c, data)
}

// SubmitBatch hands fixes to the ingest worker
// POST /api/v1/fixes/batch
func (h *FixHandler) SubmitBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if len(req.Fixes) > MaxBatchSize {
		response.BadRequest(c, "Batch too large")
		return
	}

	accepted, dropped := 0, 0
	for _, f := range req.Fixes {
		if h.pipeline.Enqueue(f.fix()) {
			accepted++
		} else {
			dropped++
		}
	}

	response.Accepted(c, gin.H{
		"accepted": accepted,
		"dropped":  dropped,
		"pending":  h.pipeline.Pending(),
	})
}
