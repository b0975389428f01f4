package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/badursun/Roqua-sub000/internal/achievement"
	"github.com/badursun/Roqua-sub000/internal/models"
	"github.com/badursun/Roqua-sub000/pkg/response"
)

// AchievementHandler handles HTTP requests for achievements
type AchievementHandler struct {
	engine *achievement.Engine
}

// NewAchievementHandler creates a new achievement handler
func NewAchievementHandler(engine *achievement.Engine) *AchievementHandler {
	return &AchievementHandler{engine: engine}
}

// achievementView pairs a definition with its progress. Hidden achievements
// are masked until unlocked.
type achievementView struct {
	models.Achievement
	Progress models.AchievementProgress `json:"progress"`
}

func (h *AchievementHandler) view(a models.Achievement) achievementView {
	p, ok := h.engine.Progress(a.ID)
	if !ok {
		p = models.AchievementProgress{AchievementID: a.ID, TargetProgress: a.Target}
	}
	if a.Hidden && !p.IsUnlocked {
		a.Title = "???"
		a.Description = ""
		a.Icon = "questionmark"
		a.Params = nil
	}
	return achievementView{Achievement: a, Progress: p}
}

// ListAchievements returns the catalog with progress
// GET /api/v1/achievements?category=&unlocked=
func (h *AchievementHandler) ListAchievements(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	unlocked := c.Query("unlocked")

	views := make([]achievementView, 0)
	for _, a := range h.engine.Achievements() {
		if category != "" && !strings.EqualFold(a.Category, category) {
			continue
		}
		v := h.view(a)
		if unlocked == "true" && !v.Progress.IsUnlocked {
			continue
		}
		if unlocked == "false" && v.Progress.IsUnlocked {
			continue
		}
		views = append(views, v)
	}

	response.Success(c, gin.H{
		"achievements": views,
		"stats":        h.engine.Stats(),
	})
}

// GetAchievement returns one achievement
// GET /api/v1/achievements/:id
func (h *AchievementHandler) GetAchievement(c *gin.Context) {
	a, ok := h.engine.Achievement(c.Param("id"))
	if !ok {
		response.NotFound(c, "Achievement not found")
		return
	}
	response.Success(c, h.view(a))
}

// GetRecent returns the most recent unlocks, newest first
// GET /api/v1/achievements/recent
func (h *AchievementHandler) GetRecent(c *gin.Context) {
	response.Success(c, h.engine.RecentUnlocks())
}
