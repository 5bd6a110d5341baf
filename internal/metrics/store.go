package metrics

import (
	"context"
	"database/sql"
	"time"

	"lunch-menu/internal/metrics/metricsdb"
	"lunch-menu/internal/shared"

	"go.uber.org/zap"
)

// timestampLayout sorts lexically and is understood by SQLite's date().
const timestampLayout = "2006-01-02 15:04:05"

// Run outcomes recorded for the pipeline.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// ExecutionMetric records metadata for a single model call.
type ExecutionMetric struct {
	AgentName        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// PipelineRun summarizes one refresh of the weekly menu.
type PipelineRun struct {
	StartedAt       time.Time
	Duration        time.Duration
	Status          string
	ImageURL        string
	RestaurantName  string
	DayCount        int
	CommentsDropped int
	Error           string
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	queries *metricsdb.Queries
	db      *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{
		queries: metricsdb.New(db),
		db:      db,
	}
}

// Record saves a metric to the database.
func (s *Store) Record(m ExecutionMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return s.queries.InsertExecutionMetric(context.Background(), metricsdb.InsertExecutionMetricParams{
		AgentName:        m.AgentName,
		Model:            m.Model,
		PromptTokens:     int64(m.PromptTokens),
		CompletionTokens: int64(m.CompletionTokens),
		LatencyMs:        m.LatencyMS,
		Timestamp:        formatTime(ts),
	})
}

// RecordMeta records metrics directly from shared.AgentMeta.
func (s *Store) RecordMeta(meta shared.AgentMeta) error {
	if meta.Usage.PromptTokens == 0 && meta.Usage.CompletionTokens == 0 {
		return nil
	}
	return s.Record(MapUsage(meta.AgentName, meta.Usage, meta.Latency))
}

// RecordRun saves the outcome of a pipeline run.
func (s *Store) RecordRun(r PipelineRun) error {
	started := r.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	return s.queries.InsertPipelineRun(context.Background(), metricsdb.InsertPipelineRunParams{
		StartedAt:       formatTime(started),
		DurationMs:      r.Duration.Milliseconds(),
		Status:          r.Status,
		ImageUrl:        r.ImageURL,
		RestaurantName:  r.RestaurantName,
		DayCount:        int64(r.DayCount),
		CommentsDropped: int64(r.CommentsDropped),
		Error:           r.Error,
	})
}

// RecentRuns returns up to limit pipeline runs, newest first.
func (s *Store) RecentRuns(limit int) ([]PipelineRun, error) {
	rows, err := s.queries.ListPipelineRuns(context.Background(), int64(limit))
	if err != nil {
		return nil, err
	}

	runs := make([]PipelineRun, 0, len(rows))
	for _, r := range rows {
		started, err := time.ParseInLocation(timestampLayout, r.StartedAt, time.UTC)
		if err != nil {
			zap.L().Debug("skipping pipeline run with bad timestamp",
				zap.Int64("id", r.ID),
				zap.String("started_at", r.StartedAt),
				zap.Error(err),
			)
			continue
		}
		runs = append(runs, PipelineRun{
			StartedAt:       started,
			Duration:        time.Duration(r.DurationMs) * time.Millisecond,
			Status:          r.Status,
			ImageURL:        r.ImageUrl,
			RestaurantName:  r.RestaurantName,
			DayCount:        int(r.DayCount),
			CommentsDropped: int(r.CommentsDropped),
			Error:           r.Error,
		})
	}
	return runs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalExecution  int
}

// GetDailyUsage retrieves usage for the last N days.
func (s *Store) GetDailyUsage(days int) ([]DailyUsage, error) {
	since := formatTime(time.Now().AddDate(0, 0, -days))
	rows, err := s.queries.GetDailyUsage(context.Background(), since)
	if err != nil {
		return nil, err
	}

	results := make([]DailyUsage, 0, len(rows))
	for _, r := range rows {
		results = append(results, DailyUsage{
			Date:            r.Day,
			TotalPrompt:     int(r.TotalPrompt),
			TotalCompletion: int(r.TotalCompletion),
			TotalExecution:  int(r.TotalExecution),
		})
	}
	return results, nil
}

// Cleanup removes metrics and run records older than the specified number
// of days and returns how many rows were deleted.
func (s *Store) Cleanup(olderThanDays int) (int64, error) {
	threshold := formatTime(time.Now().AddDate(0, 0, -olderThanDays))

	var total int64
	res, err := s.queries.CleanupExecutionMetrics(context.Background(), threshold)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	res, err = s.queries.CleanupPipelineRuns(context.Background(), threshold)
	if err != nil {
		return total, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}
	return total, nil
}

// MapUsage helper to convert shared.TokenUsage to ExecutionMetric.
func MapUsage(agentName string, usage shared.TokenUsage, latency time.Duration) ExecutionMetric {
	return ExecutionMetric{
		AgentName:        agentName,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
		Timestamp:        time.Now(),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
