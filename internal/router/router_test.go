package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fuelsurcharge/internal/activity"
	"fuelsurcharge/internal/config"
	"fuelsurcharge/internal/dto"
	"fuelsurcharge/internal/feed"
	"fuelsurcharge/internal/infra"
	"fuelsurcharge/internal/middleware"
	"fuelsurcharge/internal/repository"
	"fuelsurcharge/internal/router"
	"fuelsurcharge/internal/schedule"
	"fuelsurcharge/internal/service"
	"fuelsurcharge/internal/settings"
	"fuelsurcharge/internal/surcharge"
	"fuelsurcharge/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "router-test-secret"

const eiaPayload = `{"response":{"total":"2","data":[
	{"period":"2024-01-08","value":"4.000"},
	{"period":"2024-01-01","value":"3.900"}
]}}`

// ── Helpers ───────────────────────────────────────────────────────────────────

type testEnv struct {
	engine *gin.Engine
	admin  string
	viewer string
	hits   *atomic.Int32
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	var hits atomic.Int32
	eia := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("api_key") != "live-key" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"invalid api_key"}`))
			return
		}
		_, _ = w.Write([]byte(eiaPayload))
	}))
	t.Cleanup(eia.Close)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infra.RunMigrations(db))

	cfg := &config.Config{Env: "test", JWTSecret: testSecret, ScheduleTimezone: "UTC"}

	series := feed.DefaultSeries()
	series.BaseURL = eia.URL
	snap := settings.Snapshot{
		APIKey:      "live-key",
		CacheTTL:    time.Hour,
		MaxRetries:  1,
		Series:      series,
		Schedule:    schedule.Config{Frequency: schedule.Weekly{Day: time.Monday}, At: schedule.TimeOfDay{Hour: 12}},
		Calculation: surcharge.DefaultConfig(),
	}

	cache := infra.NewMemoryPriceCache()
	sink := activity.NewDBSink(repository.NewActivityLogRepository(db))
	settingsSvc := service.NewSettingsService(repository.NewSettingsRepository(db), snap, cache, sink)
	require.NoError(t, settingsSvc.Seed(ctx))

	updates := service.NewUpdateService(service.UpdateDeps{
		Settings: settingsSvc,
		Fetcher:  infra.NewHTTPFetcher(5 * time.Second),
		Cache:    cache,
		Records:  repository.NewPriceRecordRepository(db),
		Sink:     sink,
	})
	scheduler := worker.NewScheduler(worker.NewMemoryTriggerRegistry(), settingsSvc, sink, time.UTC)
	settingsSvc.SetRescheduler(scheduler)

	engine := router.New(cfg, db, nil, router.Services{Updates: updates, Settings: settingsSvc, Scheduler: scheduler})

	admin, err := middleware.IssueToken(testSecret, "ops", middleware.RoleAdmin, time.Hour)
	require.NoError(t, err)
	viewer, err := middleware.IssueToken(testSecret, "dash", middleware.RoleViewer, time.Hour)
	require.NoError(t, err)

	return &testEnv{engine: engine, admin: admin, viewer: viewer, hits: &hits}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	env := setup(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/v1/updates", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/v1/updates", env.viewer, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/v1/settings", env.viewer, nil).Code)
	assert.Equal(t, int32(0), env.hits.Load())
}

func TestUpdateThenReadPrices(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/v1/updates", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var upd dto.UpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upd))
	assert.True(t, upd.Success)
	assert.Equal(t, 2, upd.Stats.Inserted)
	assert.Nil(t, upd.Debug)

	// Second run within the TTL is served from the cache.
	w = env.do(t, http.MethodPost, "/v1/updates?debug=true", env.admin, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upd))
	assert.True(t, upd.FromCache)
	assert.Equal(t, 2, upd.Stats.Skipped)
	require.NotNil(t, upd.Debug)
	assert.Equal(t, int32(1), env.hits.Load())

	w = env.do(t, http.MethodGet, "/v1/prices/latest", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var latest dto.PriceItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &latest))
	assert.Equal(t, "2024-01-08", latest.Date)
	assert.Equal(t, "23.3333", latest.SurchargeRate.String())

	w = env.do(t, http.MethodGet, "/v1/logs?type=data_update", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs dto.LogListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	assert.Equal(t, int64(2), logs.Total)
}

func TestSettingsUpdateChangesKeyAndSchedule(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/v1/settings", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "live-key")

	bad := "not-the-key"
	w = env.do(t, http.MethodPut, "/v1/settings", env.admin, dto.UpdateSettingsRequest{APIKey: &bad})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/v1/updates", env.admin, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "client_error")

	freq := "hourly"
	w = env.do(t, http.MethodPut, "/v1/settings", env.admin, dto.UpdateSettingsRequest{ScheduleFrequency: &freq})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	daily := "daily"
	w = env.do(t, http.MethodPut, "/v1/settings", env.admin, dto.UpdateSettingsRequest{ScheduleFrequency: &daily})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/v1/schedule", "", nil)
	var sched dto.ScheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sched))
	assert.True(t, sched.Scheduled)
	assert.Equal(t, "daily", sched.Frequency)
	assert.Equal(t, "daily", sched.Period)
}

func TestScheduleApplyAndClear(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/v1/schedule", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"scheduled":true`)

	w = env.do(t, http.MethodDelete, "/v1/schedule", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"scheduled":false`)
}
