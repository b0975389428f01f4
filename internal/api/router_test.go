package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/badursun/Roqua-sub000/internal/achievement"
	"github.com/badursun/Roqua-sub000/internal/calculator"
	"github.com/badursun/Roqua-sub000/internal/config"
	"github.com/badursun/Roqua-sub000/internal/coverage"
	"github.com/badursun/Roqua-sub000/internal/events"
	"github.com/badursun/Roqua-sub000/internal/handler"
	"github.com/badursun/Roqua-sub000/internal/ingest"
	"github.com/badursun/Roqua-sub000/internal/logger"
	"github.com/badursun/Roqua-sub000/internal/middleware"
	"github.com/badursun/Roqua-sub000/internal/region"
	"github.com/badursun/Roqua-sub000/internal/service"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	log := logger.Discard()
	settings := config.DefaultExploration()

	bus := events.NewBus(log)
	t.Cleanup(bus.Close)
	index := coverage.NewIndex(settings.ExplorationRadiusMeters, settings.PercentageDecimalPlaces, nil, bus, log)
	store := region.NewStore(settings, nil, index, bus, log)
	engine := achievement.NewEngine(store, calculator.NewRegistry(index, log), nil, bus, log)
	if err := engine.LoadCatalog(achievement.DefaultCatalog()); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	engine.Attach(bus)
	pipeline := ingest.NewPipeline(store, settings, log)
	svc := service.NewExplorationService(store, index, engine, pipeline)

	cfg := &config.Config{JWTSecret: testSecret}
	return SetupRouter(cfg, Handlers{
		Fix:         handler.NewFixHandler(pipeline),
		Region:      handler.NewRegionHandler(store),
		Exploration: handler.NewExplorationHandler(svc),
		Achievement: handler.NewAchievementHandler(engine),
		Admin:       handler.NewAdminHandler(svc, log),
	}, limiter, log)
}

func do(t *testing.T, r *gin.Engine, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	w, _ := do(t, r, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSubmitFix(t *testing.T) {
	r := newTestRouter(t, nil)

	w, env := do(t, r, http.MethodPost, "/api/v1/fixes", `{"latitude":41.0082,"longitude":28.9784,"accuracy":10}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var data struct {
		Status string `json:"status"`
		Kind   string `json:"kind"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Status != "processed" || data.Kind != "created" {
		t.Errorf("data = %+v", data)
	}

	w, env = do(t, r, http.MethodGet, "/api/v1/regions", "", "")
	var list struct {
		Total int `json:"total"`
	}
	_ = json.Unmarshal(env.Data, &list)
	if w.Code != http.StatusOK || list.Total != 1 {
		t.Errorf("regions status=%d total=%d", w.Code, list.Total)
	}

	_, env = do(t, r, http.MethodGet, "/api/v1/coverage", "", "")
	var cov service.CoverageSummary
	_ = json.Unmarshal(env.Data, &cov)
	if cov.Cells == 0 || cov.Percentage <= 0 {
		t.Errorf("coverage = %+v", cov)
	}
}

func TestSubmitFixValidation(t *testing.T) {
	r := newTestRouter(t, nil)
	tests := []struct {
		name string
		body string
	}{
		{"missing latitude", `{"longitude":28.9,"accuracy":10}`},
		{"latitude out of range", `{"latitude":91,"longitude":28.9,"accuracy":10}`},
		{"malformed", `{"latitude":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := do(t, r, http.MethodPost, "/api/v1/fixes", tt.body, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d", w.Code)
			}
		})
	}
}

func TestSubmitFixEquatorIsValid(t *testing.T) {
	r := newTestRouter(t, nil)
	w, _ := do(t, r, http.MethodPost, "/api/v1/fixes", `{"latitude":0,"longitude":0,"accuracy":5}`, "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSubmitBatch(t *testing.T) {
	r := newTestRouter(t, nil)
	body := `{"fixes":[{"latitude":41,"longitude":29,"accuracy":5},{"latitude":41.1,"longitude":29.1,"accuracy":5}]}`
	w, env := do(t, r, http.MethodPost, "/api/v1/fixes/batch", body, "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}
	var data struct {
		Accepted int `json:"accepted"`
		Dropped  int `json:"dropped"`
	}
	_ = json.Unmarshal(env.Data, &data)
	if data.Accepted != 2 || data.Dropped != 0 {
		t.Errorf("data = %+v", data)
	}

	w, _ = do(t, r, http.MethodPost, "/api/v1/fixes/batch", `{"fixes":[]}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d", w.Code)
	}
}

func TestAchievementsMaskHidden(t *testing.T) {
	r := newTestRouter(t, nil)

	w, env := do(t, r, http.MethodGet, "/api/v1/achievements", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var data struct {
		Achievements []struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			IsHidden bool   `json:"isHidden"`
		} `json:"achievements"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	hidden := 0
	for _, a := range data.Achievements {
		if a.IsHidden {
			hidden++
			if a.Title != "???" {
				t.Errorf("hidden %s title = %q", a.ID, a.Title)
			}
		}
	}
	if hidden == 0 {
		t.Error("expected hidden achievements in the catalog")
	}

	_, env = do(t, r, http.MethodGet, "/api/v1/achievements?category=religious", "", "")
	_ = json.Unmarshal(env.Data, &data)
	if len(data.Achievements) == 0 {
		t.Error("category filter returned nothing")
	}

	w, _ = do(t, r, http.MethodGet, "/api/v1/achievements/does_not_exist", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", w.Code)
	}
	w, _ = do(t, r, http.MethodGet, "/api/v1/achievements/recent", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("recent status = %d", w.Code)
	}
}

func TestAdminRequiresAdminRole(t *testing.T) {
	r := newTestRouter(t, nil)

	w, _ := do(t, r, http.MethodPost, "/api/v1/admin/reset", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d", w.Code)
	}

	userToken, _ := middleware.IssueToken(testSecret, "bob", "user", time.Hour)
	w, _ = do(t, r, http.MethodPost, "/api/v1/admin/reset", "", userToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("user token status = %d", w.Code)
	}

	adminToken, _ := middleware.IssueToken(testSecret, "alice", middleware.RoleAdmin, time.Hour)
	do(t, r, http.MethodPost, "/api/v1/fixes", `{"latitude":41,"longitude":29,"accuracy":5}`, "")
	w, _ = do(t, r, http.MethodPost, "/api/v1/admin/reset", "", adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("admin reset status = %d", w.Code)
	}
	_, env := do(t, r, http.MethodGet, "/api/v1/regions", "", "")
	var list struct {
		Total int `json:"total"`
	}
	_ = json.Unmarshal(env.Data, &list)
	if list.Total != 0 {
		t.Errorf("regions after reset = %d", list.Total)
	}

	w, _ = do(t, r, http.MethodPost, "/api/v1/admin/achievements/recompute", "", adminToken)
	if w.Code != http.StatusOK {
		t.Errorf("recompute status = %d", w.Code)
	}
}

func TestAdminUpdateSettings(t *testing.T) {
	r := newTestRouter(t, nil)
	token, _ := middleware.IssueToken(testSecret, "alice", middleware.RoleAdmin, time.Hour)

	w, env := do(t, r, http.MethodPut, "/api/v1/admin/settings", `{"explorationRadiusMeters":300}`, token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var got config.Exploration
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ExplorationRadiusMeters != 300 || got.ClusteringRadiusMeters != 150 {
		t.Errorf("settings = %+v", got)
	}
	if got.TrackingDistanceMeters != config.DefaultTrackingDistanceMeters {
		t.Errorf("unspecified field not preserved: %+v", got)
	}
	if !got.AutoEnrichNewRegions {
		t.Error("autoEnrich should be preserved")
	}
}

func TestRateLimitedAPI(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newTestRouter(t, middleware.NewRateLimiter(ctx, 1, time.Minute))

	if w, _ := do(t, r, http.MethodGet, "/api/v1/coverage", "", ""); w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, "/api/v1/coverage", "", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
		t.Errorf("health should not be limited, got %d", w.Code)
	}
}
