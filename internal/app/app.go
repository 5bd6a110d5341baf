package app

import (
	"context"
	"io"
	"os"
	"time"

	"lunch-menu/internal/config"
	"lunch-menu/internal/extractor"
	"lunch-menu/internal/ghost"
	"lunch-menu/internal/locator"
	"lunch-menu/internal/metrics"
	"lunch-menu/internal/shared"
	"lunch-menu/internal/storage"
)

// MenuExtractor turns a menu image into raw model text.
type MenuExtractor interface {
	Extract(ctx context.Context, imageURL string) (extractor.ExtractorResult, error)
}

// MetricsRecorder persists model usage and pipeline outcomes.
type MetricsRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
	RecordRun(run metrics.PipelineRun) error
}

// App holds the application's dependencies.
type App struct {
	locator      locator.Locator
	extractor    MenuExtractor
	store        *storage.MenuStore
	metricsStore MetricsRecorder
	ghostClient  ghost.Client
	cfg          *config.Config

	out io.Writer
	now func() time.Time
}

// NewApp creates and initializes a new App instance. metricsStore and
// ghostClient may be nil.
func NewApp(
	loc locator.Locator,
	ext MenuExtractor,
	store *storage.MenuStore,
	metricsStore MetricsRecorder,
	ghostClient ghost.Client,
	cfg *config.Config,
) *App {
	return &App{
		locator:      loc,
		extractor:    ext,
		store:        store,
		metricsStore: metricsStore,
		ghostClient:  ghostClient,
		cfg:          cfg,
		out:          os.Stdout,
		now:          time.Now,
	}
}

// SetOutput redirects the progress lines printed by the batch commands.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}
