//go:build integration

package app_test

// End-to-end tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/app/... -v

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fuelsurcharge/internal/app"
	"fuelsurcharge/internal/config"
	"fuelsurcharge/internal/feed"
	"fuelsurcharge/internal/infra"
	"fuelsurcharge/internal/model"
	"fuelsurcharge/internal/repository"
	"fuelsurcharge/internal/worker"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const eiaPayload = `{"response":{"total":"3","data":[
	{"period":"2024-01-15","value":"3.960"},
	{"period":"2024-01-08","value":"3.905"},
	{"period":"2024-01-01","value":"3.878"}
]}}`

// ── Test Suite Setup ─────────────────────────────────────────────────────────

func setupApp(t *testing.T) (*app.App, *atomic.Int32) {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("fuelsurcharge_test"),
		tcPostgres.WithUsername("fuelsurcharge"),
		tcPostgres.WithPassword("fuelsurcharge"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pgC) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(rdC) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	var hits atomic.Int32
	eia := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(eiaPayload))
	}))
	t.Cleanup(eia.Close)

	viper.Reset()
	t.Setenv("DATABASE_URL", pgURL)
	t.Setenv("REDIS_URL", rdURL)
	t.Setenv("EIA_API_KEY", "integration-key")
	t.Setenv("EIA_BASE_URL", eia.URL)
	t.Setenv("SCHEDULE_TIMEZONE", "America/Chicago")

	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := app.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return a, &hits
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestIntegration_UpdatePipeline(t *testing.T) {
	a, hits := setupApp(t)
	ctx := context.Background()

	out := a.Updates.Run(ctx, false)
	require.True(t, out.Success, out.Message)
	assert.Equal(t, repository.UpsertStats{Inserted: 3}, out.Stats)

	// The Redis cache serves the second run.
	out = a.Updates.Run(ctx, false)
	require.True(t, out.Success, out.Message)
	assert.True(t, out.FromCache)
	assert.Equal(t, repository.UpsertStats{Skipped: 3}, out.Stats)
	assert.Equal(t, int32(1), hits.Load())

	out = a.Updates.Run(ctx, true)
	require.True(t, out.Success, out.Message)
	assert.False(t, out.FromCache)
	assert.Equal(t, int32(2), hits.Load())

	latest, err := a.Records.Latest(ctx, feed.NationalRegion)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-01-15", latest.Date.Format("2006-01-02"))
	assert.Equal(t, "23", latest.SurchargeRate.String())

	// The unique (date, region) index rejects a duplicate written around the
	// repository.
	dup := &model.PriceRecord{Date: latest.Date, Region: latest.Region, Price: latest.Price, SurchargeRate: latest.SurchargeRate}
	assert.Error(t, a.DB.Create(dup).Error)

	_, found := a.Cache.Get(ctx, infra.PriceCacheKey)
	assert.True(t, found)
}

func TestIntegration_SchedulerRegistersInRedis(t *testing.T) {
	a, _ := setupApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.StartBackground(ctx))

	next, ok, err := a.Scheduler.NextScheduledUpdate(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, time.Monday, next.In(a.Scheduler.Location()).Weekday())
	assert.Equal(t, 12, next.In(a.Scheduler.Location()).Hour())

	cleanup, err := a.Registry.Lookup(ctx, worker.LogCleanupTriggerID)
	require.NoError(t, err)
	require.NotNil(t, cleanup)

	// Firing the update trigger by hand stores the records and moves the
	// trigger one week ahead.
	fired := worker.FireDue(ctx, worker.LoopConfig{
		Registry: a.Registry,
		Handlers: a.TriggerHandlers(),
		Now:      func() time.Time { return next.Add(time.Minute) },
		Location: a.Scheduler.Location(),
	})
	assert.GreaterOrEqual(t, fired, 1)

	after, ok, err := a.Scheduler.NextScheduledUpdate(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, next.AddDate(0, 0, 7).Equal(after), "want %s, got %s", next.AddDate(0, 0, 7), after)

	latest, err := a.Records.Latest(ctx, feed.NationalRegion)
	require.NoError(t, err)
	assert.NotNil(t, latest)
}
