package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"fuelsurcharge/internal/activity"
	"fuelsurcharge/internal/feed"
	"fuelsurcharge/internal/infra"
	"fuelsurcharge/internal/metrics"
	"fuelsurcharge/internal/model"
	"fuelsurcharge/internal/repository"
	"fuelsurcharge/internal/settings"
	"fuelsurcharge/internal/surcharge"
)

// UpdateOutcome is the result of one pipeline run. A failed run carries the
// Kind of the first stage that failed.
type UpdateOutcome struct {
	Success   bool                   `json:"success"`
	Stats     repository.UpsertStats `json:"stats"`
	Message   string                 `json:"message"`
	Error     feed.Kind              `json:"error,omitempty"`
	FromCache bool                   `json:"from_cache"`
	Debug     UpdateDebug            `json:"debug"`
}

// UpdateDebug is the diagnostic detail a caller may choose to show.
type UpdateDebug struct {
	RequestURL string        `json:"request_url,omitempty"` // api_key redacted
	StatusCode int           `json:"status_code,omitempty"`
	Attempts   int           `json:"attempts"`
	FetchTime  time.Duration `json:"fetch_time"`
	TotalTime  time.Duration `json:"total_time"`
	Received   int           `json:"received"`
	Valid      int           `json:"valid"`
}

// ConnectionResult reports a single unretried probe of the API.
type ConnectionResult struct {
	Success    bool          `json:"success"`
	StatusCode int           `json:"status_code,omitempty"`
	Latency    time.Duration `json:"latency"`
	Message    string        `json:"message"`
	RequestURL string        `json:"request_url,omitempty"`
}

// UpdateService runs the fetch → parse → normalize → rate → upsert pipeline.
type UpdateService interface {
	// Run executes one update. forceRefresh skips the cache read; a fresh
	// fetch still repopulates the cache.
	Run(ctx context.Context, forceRefresh bool) UpdateOutcome

	// TestConnection issues one GET for a single entry, without retries.
	TestConnection(ctx context.Context) ConnectionResult
}

// UpdateDeps groups the collaborators of the update pipeline.
type UpdateDeps struct {
	Settings settings.Provider
	Fetcher  feed.Fetcher
	Probe    feed.Fetcher // connection test; falls back to Fetcher
	Cache    infra.PriceCache
	Records  repository.PriceRecordRepository
	Sink     activity.Sink

	// Sleep overrides the retry delay, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

type updateService struct {
	deps UpdateDeps
	sink activity.Sink
}

func NewUpdateService(deps UpdateDeps) UpdateService {
	if deps.Probe == nil {
		deps.Probe = deps.Fetcher
	}
	return &updateService{deps: deps, sink: activity.OrNop(deps.Sink)}
}

func (s *updateService) Run(ctx context.Context, forceRefresh bool) UpdateOutcome {
	start := time.Now()
	out := s.run(ctx, forceRefresh)
	out.Debug.TotalTime = time.Since(start)

	result := "success"
	if !out.Success {
		result = string(out.Error)
	}
	metrics.PipelineRuns.WithLabelValues(result, strconv.FormatBool(out.FromCache)).Inc()
	metrics.PipelineDuration.Observe(out.Debug.TotalTime.Seconds())

	fields := map[string]any{
		"success":    out.Success,
		"force":      forceRefresh,
		"from_cache": out.FromCache,
		"inserted":   out.Stats.Inserted,
		"updated":    out.Stats.Updated,
		"skipped":    out.Stats.Skipped,
		"errors":     out.Stats.Errors,
	}
	if out.Error != "" {
		fields["error"] = string(out.Error)
	}
	s.sink.Append(ctx, activity.TypeDataUpdate, out.Message, fields)
	return out
}

func (s *updateService) run(ctx context.Context, forceRefresh bool) UpdateOutcome {
	snap, err := s.deps.Settings.Current(ctx)
	if err != nil {
		return failure(feed.KindStorage, "could not load settings: "+err.Error())
	}

	// (1) credential gate
	if snap.APIKey == "" {
		return failure(feed.KindMissingCredential, "API key is not configured")
	}

	full, redacted, err := feed.BuildURL(snap.Series, snap.APIKey)
	if err != nil {
		return failure(feed.KindClient, err.Error())
	}

	var out UpdateOutcome
	out.Debug.RequestURL = redacted

	// (2) cache
	var body []byte
	if !forceRefresh {
		if cached, ok := s.deps.Cache.Get(ctx, infra.PriceCacheKey); ok {
			body = cached
			out.FromCache = true
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			s.sink.Append(ctx, activity.TypeCache, "Using cached price data", map[string]any{"key": infra.PriceCacheKey})
		} else {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
			s.sink.Append(ctx, activity.TypeCache, "Cache miss, fetching from API", map[string]any{"key": infra.PriceCacheKey})
		}
	}

	// (3) fetch, (4) repopulate cache
	if !out.FromCache {
		policy := feed.NewRetryPolicy(s.deps.Fetcher, snap.MaxRetries, s.sink)
		policy.Sleep = s.deps.Sleep

		fetched, trace, err := policy.Do(ctx, full, redacted)
		metrics.FetchAttempts.Add(float64(trace.Attempts))
		out.Debug.Attempts = trace.Attempts
		out.Debug.StatusCode = trace.StatusCode
		out.Debug.FetchTime = trace.Duration
		if err != nil {
			return fromError(out, err)
		}
		body = fetched
		s.deps.Cache.Set(ctx, infra.PriceCacheKey, body, snap.CacheTTL)
	}

	payload, err := feed.Parse(body)
	if err != nil {
		s.sink.Append(ctx, activity.TypeAPIError, "Could not parse API response", map[string]any{"error": err.Error()})
		return fromError(out, err)
	}
	out.Debug.Received = len(payload.Entries)

	// (5) normalize
	candidates := feed.Normalize(ctx, payload.Entries, snap.Series.Region, s.sink)
	out.Debug.Valid = len(candidates)
	s.sink.Append(ctx, activity.TypeDataProcessing, "Normalized price entries", map[string]any{
		"received": len(payload.Entries),
		"valid":    len(candidates),
	})
	if len(candidates) == 0 {
		out.Error = feed.KindNoValidData
		out.Message = "no valid data"
		return out
	}

	// (6) surcharge per record
	applyRates(candidates, snap.Calculation)

	// (7) upsert, propagated as-is
	res := s.deps.Records.Upsert(ctx, candidates)
	recordStats(res.Stats)
	out.Success = res.Success
	out.Stats = res.Stats
	out.Message = res.Message
	if !res.Success {
		out.Error = feed.KindStorage
		return out
	}
	if out.Message == "" {
		out.Message = "update completed"
	}
	return out
}

func (s *updateService) TestConnection(ctx context.Context) ConnectionResult {
	snap, err := s.deps.Settings.Current(ctx)
	if err != nil {
		return ConnectionResult{Message: "could not load settings: " + err.Error()}
	}
	if snap.APIKey == "" {
		return ConnectionResult{Message: "API key is not configured"}
	}

	series := snap.Series
	series.Length = 1
	full, redacted, err := feed.BuildURL(series, snap.APIKey)
	if err != nil {
		return ConnectionResult{Message: err.Error()}
	}

	start := time.Now()
	status, body, err := s.deps.Probe.Fetch(ctx, full)
	res := ConnectionResult{StatusCode: status, Latency: time.Since(start), RequestURL: redacted}
	switch {
	case err != nil:
		res.Message = "could not connect to API: " + err.Error()
	case status != 200:
		res.Message = feed.ErrorMessage(body)
		if res.Message == "" {
			res.Message = feed.StatusMessage(status)
		}
	default:
		if _, perr := feed.Parse(body); perr != nil {
			res.Message = perr.Error()
		} else {
			res.Success = true
			res.Message = "connection successful"
		}
	}

	logType := activity.TypeAPIRequest
	if !res.Success {
		logType = activity.TypeAPIError
	}
	s.sink.Append(ctx, logType, "Connection test: "+res.Message, map[string]any{
		"status":     status,
		"latency_ms": res.Latency.Milliseconds(),
	})
	return res
}

func applyRates(candidates []model.PriceCandidate, cfg surcharge.Config) {
	for i := range candidates {
		candidates[i].SurchargeRate = surcharge.Rate(candidates[i].Price, cfg)
	}
}

func recordStats(st repository.UpsertStats) {
	metrics.RecordsUpserted.WithLabelValues("inserted").Add(float64(st.Inserted))
	metrics.RecordsUpserted.WithLabelValues("updated").Add(float64(st.Updated))
	metrics.RecordsUpserted.WithLabelValues("skipped").Add(float64(st.Skipped))
	metrics.RecordsUpserted.WithLabelValues("errors").Add(float64(st.Errors))
}

func failure(kind feed.Kind, msg string) UpdateOutcome {
	return UpdateOutcome{Error: kind, Message: msg}
}

func fromError(out UpdateOutcome, err error) UpdateOutcome {
	var fe *feed.Error
	if errors.As(err, &fe) {
		out.Error = fe.Kind
		out.Message = fe.Message
		if fe.StatusCode != 0 {
			out.Debug.StatusCode = fe.StatusCode
		}
		return out
	}
	out.Error = feed.KindUnexpectedResponse
	out.Message = err.Error()
	return out
}
