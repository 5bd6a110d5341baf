package app

import (
	"context"
	"errors"
	"fmt"

	"lunch-menu/internal/menu"
	"lunch-menu/internal/metrics"
	"lunch-menu/internal/shared"

	"go.uber.org/zap"
)

// RefreshResult describes a successful pipeline run.
type RefreshResult struct {
	ImageURL        string
	Document        *menu.Document
	Attempts        int
	CommentsDropped int
}

// RefreshMenu locates this week's menu photo, has the model transcribe it and
// replaces the stored document. Nothing is written unless every step
// succeeds.
func (a *App) RefreshMenu(ctx context.Context) (res *RefreshResult, err error) {
	started := a.now()
	run := metrics.PipelineRun{StartedAt: started}
	defer func() {
		run.Duration = a.now().Sub(started)
		if err != nil {
			run.Status = metrics.RunFailed
			run.Error = err.Error()
		} else {
			run.Status = metrics.RunSucceeded
		}
		a.recordRun(run)
	}()

	fmt.Fprintln(a.out, "Locating the weekly menu image...")
	imageURL, err := a.locator.Locate(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Menu image not found.")
		return nil, fmt.Errorf("failed to locate menu image: %w", err)
	}
	run.ImageURL = imageURL
	fmt.Fprintf(a.out, "Found menu image: %s\n", imageURL)

	// The first model call waits one backoff measured from here.
	policy := RetryPolicy{Attempts: a.cfg.RetryAttempts, Backoff: a.cfg.RetryBackoff}
	limiter := policy.newLimiter()

	fmt.Fprintln(a.out, "Extracting the menu with Gemini...")
	var doc *menu.Document
	var lastRaw string
	attempts, err := policy.do(ctx, limiter, "extract", func(ctx context.Context) error {
		result, err := a.extractor.Extract(ctx, imageURL)
		if err != nil {
			return err
		}
		a.recordMeta(result.Meta)

		lastRaw = result.Raw
		parsed, err := menu.ParseModelOutput(result.Raw)
		if err != nil {
			return err
		}
		doc = parsed
		return nil
	})
	if err != nil {
		var perr *menu.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintf(a.out, "Could not parse the model output: %v\n", perr.Err)
			fmt.Fprintln(a.out, "Raw model output:")
			fmt.Fprintln(a.out, lastRaw)
			return nil, err
		}
		fmt.Fprintln(a.out, "Menu extraction failed.")
		return nil, fmt.Errorf("failed to extract menu: %w", err)
	}

	prev, err := a.store.Replace(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to save weekly menu: %w", err)
	}

	dropped := 0
	if prev != nil {
		dropped = prev.CommentCount()
	}
	run.RestaurantName = doc.RestaurantName
	run.DayCount = len(doc.Days)
	run.CommentsDropped = dropped

	fmt.Fprintf(a.out, "Saved %d days to %s.\n", len(doc.Days), a.store.Path())
	if dropped > 0 {
		fmt.Fprintf(a.out, "Discarded %d comments from the previous menu.\n", dropped)
	}

	return &RefreshResult{
		ImageURL:        imageURL,
		Document:        doc,
		Attempts:        attempts,
		CommentsDropped: dropped,
	}, nil
}

func (a *App) recordMeta(meta shared.AgentMeta) {
	if a.metricsStore == nil {
		return
	}
	if err := a.metricsStore.RecordMeta(meta); err != nil {
		zap.L().Warn("failed to record metrics", zap.String("agent", meta.AgentName), zap.Error(err))
	}
}

func (a *App) recordRun(run metrics.PipelineRun) {
	if a.metricsStore == nil {
		return
	}
	if err := a.metricsStore.RecordRun(run); err != nil {
		zap.L().Warn("failed to record pipeline run", zap.Error(err))
	}
}
