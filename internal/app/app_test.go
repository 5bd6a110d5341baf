package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lunch-menu/internal/config"
	"lunch-menu/internal/extractor"
	"lunch-menu/internal/ghost"
	"lunch-menu/internal/locator"
	"lunch-menu/internal/menu"
	"lunch-menu/internal/metrics"
	"lunch-menu/internal/shared"
	"lunch-menu/internal/storage"
)

// --- Mocks ---
type mockLocator struct {
	url   string
	err   error
	delay time.Duration

	locatedAt time.Time
}

func (m *mockLocator) Locate(ctx context.Context) (string, error) {
	time.Sleep(m.delay)
	m.locatedAt = time.Now()
	return m.url, m.err
}

type mockExtractor struct {
	responses []string
	errs      []error
	calls     int
	calledAt  []time.Time
}

func (m *mockExtractor) Extract(ctx context.Context, imageURL string) (extractor.ExtractorResult, error) {
	m.calledAt = append(m.calledAt, time.Now())
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return extractor.ExtractorResult{}, m.errs[i]
	}
	raw := m.responses[len(m.responses)-1]
	if i < len(m.responses) {
		raw = m.responses[i]
	}
	return extractor.ExtractorResult{
		Raw: raw,
		Meta: shared.AgentMeta{
			AgentName: "MenuExtractor",
			Usage:     shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, Model: "mock"},
		},
	}, nil
}

type mockMetrics struct {
	metas []shared.AgentMeta
	runs  []metrics.PipelineRun
}

func (m *mockMetrics) RecordMeta(meta shared.AgentMeta) error {
	m.metas = append(m.metas, meta)
	return nil
}

func (m *mockMetrics) RecordRun(run metrics.PipelineRun) error {
	m.runs = append(m.runs, run)
	return nil
}

type mockGhostClient struct {
	created *ghost.NewPost
	err     error
}

func (m *mockGhostClient) CreatePost(ctx context.Context, p ghost.NewPost) (*ghost.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = &p
	return &ghost.Post{ID: "p1", Title: p.Title, Status: p.Status}, nil
}

const weeklyJSON = `{
  "식당_이름": "정반식당",
  "주간_식단표": [
    {"요일": "월요일", "식단": {"마음까지_든_한_점심": ["제육볶음", "된장국"], "PLUS": ["계란말이"], "프레쉬_박스": ["샐러드"]}},
    {"요일": "화요일", "식단": {"마음까지_든_한_점심": ["비빔밥"], "PLUS": []}}
  ]
}`

type fixture struct {
	app     *App
	store   *storage.MenuStore
	metrics *mockMetrics
	out     *bytes.Buffer
}

func newFixture(t *testing.T, loc locator.Locator, ext MenuExtractor, attempts int) *fixture {
	t.Helper()
	store, err := storage.NewMenuStore(filepath.Join(t.TempDir(), "weekly_menu.json"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	m := &mockMetrics{}
	cfg := &config.Config{RetryAttempts: attempts, RetryBackoff: 0}
	a := NewApp(loc, ext, store, m, nil, cfg)
	out := &bytes.Buffer{}
	a.SetOutput(out)
	return &fixture{app: a, store: store, metrics: m, out: out}
}

func TestRefreshMenu(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		ext := &mockExtractor{responses: []string{"```json\n" + weeklyJSON + "\n```"}}
		f := newFixture(t, &mockLocator{url: "https://search.pstatic.net/menu.jpg"}, ext, 1)

		res, err := f.app.RefreshMenu(ctx)
		if err != nil {
			t.Fatalf("RefreshMenu failed: %v", err)
		}
		if res.ImageURL != "https://search.pstatic.net/menu.jpg" || res.Attempts != 1 {
			t.Errorf("Unexpected result %+v", res)
		}

		doc, err := f.store.Load()
		if err != nil {
			t.Fatalf("Expected a stored document, got %v", err)
		}
		if doc.RestaurantName != "정반식당" || len(doc.Days) != 2 {
			t.Errorf("Unexpected stored document %+v", doc)
		}
		if _, ok := doc.Days[0].Menu.Extra["프레쉬_박스"]; !ok {
			t.Error("Expected extra item groups to be kept")
		}

		if len(f.metrics.metas) != 1 || f.metrics.metas[0].Usage.PromptTokens != 100 {
			t.Errorf("Expected extractor usage to be recorded, got %+v", f.metrics.metas)
		}
		if len(f.metrics.runs) != 1 || f.metrics.runs[0].Status != metrics.RunSucceeded || f.metrics.runs[0].DayCount != 2 {
			t.Errorf("Expected a successful run record, got %+v", f.metrics.runs)
		}
	})

	t.Run("ImageNotFound", func(t *testing.T) {
		ext := &mockExtractor{responses: []string{weeklyJSON}}
		f := newFixture(t, &mockLocator{err: locator.ErrImageNotFound}, ext, 1)

		_, err := f.app.RefreshMenu(ctx)
		if !errors.Is(err, locator.ErrImageNotFound) {
			t.Fatalf("Expected ErrImageNotFound, got %v", err)
		}
		if ext.calls != 0 {
			t.Error("Expected the extractor not to be called")
		}
		if f.store.Exists() {
			t.Error("Expected no file to be written")
		}
		if !strings.Contains(f.out.String(), "Menu image not found.") {
			t.Errorf("Expected a user-facing failure line, got %q", f.out.String())
		}
		if len(f.metrics.runs) != 1 || f.metrics.runs[0].Status != metrics.RunFailed {
			t.Errorf("Expected a failed run record, got %+v", f.metrics.runs)
		}
	})

	t.Run("MalformedOutput", func(t *testing.T) {
		ext := &mockExtractor{responses: []string{"Sorry, I cannot read this image."}}
		f := newFixture(t, &mockLocator{url: "https://search.pstatic.net/menu.jpg"}, ext, 1)

		_, err := f.app.RefreshMenu(ctx)
		if !errors.Is(err, menu.ErrMalformedOutput) {
			t.Fatalf("Expected ErrMalformedOutput, got %v", err)
		}
		if f.store.Exists() {
			t.Error("Expected no file to be written")
		}
		if !strings.Contains(f.out.String(), "Sorry, I cannot read this image.") {
			t.Errorf("Expected the raw model output to be printed, got %q", f.out.String())
		}
	})

	t.Run("NoRetryByDefault", func(t *testing.T) {
		ext := &mockExtractor{responses: []string{weeklyJSON}, errs: []error{errors.New("status 503")}}
		f := newFixture(t, &mockLocator{url: "https://search.pstatic.net/menu.jpg"}, ext, 1)

		if _, err := f.app.RefreshMenu(ctx); err == nil {
			t.Fatal("Expected an error, got nil")
		}
		if ext.calls != 1 {
			t.Errorf("Expected exactly 1 extraction attempt, got %d", ext.calls)
		}
	})

	t.Run("RetryRecovers", func(t *testing.T) {
		ext := &mockExtractor{
			responses: []string{"", "not json", weeklyJSON},
			errs:      []error{errors.New("status 503")},
		}
		f := newFixture(t, &mockLocator{url: "https://search.pstatic.net/menu.jpg"}, ext, 3)

		res, err := f.app.RefreshMenu(ctx)
		if err != nil {
			t.Fatalf("Expected the retry to succeed, got %v", err)
		}
		// attempt 1: transport error, attempt 2: malformed, attempt 3: ok
		if res.Attempts != 3 || ext.calls != 3 {
			t.Errorf("Expected 3 attempts, got result=%d calls=%d", res.Attempts, ext.calls)
		}
	})

	t.Run("RefreshDiscardsComments", func(t *testing.T) {
		ext := &mockExtractor{responses: []string{weeklyJSON}}
		f := newFixture(t, &mockLocator{url: "https://search.pstatic.net/menu.jpg"}, ext, 1)

		if _, err := f.app.RefreshMenu(ctx); err != nil {
			t.Fatal(err)
		}
		comments := NewComments(f.store)
		if _, err := comments.Post("월요일", "맛있어요"); err != nil {
			t.Fatal(err)
		}

		res, err := f.app.RefreshMenu(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if res.CommentsDropped != 1 {
			t.Errorf("Expected 1 dropped comment, got %d", res.CommentsDropped)
		}
		if !strings.Contains(f.out.String(), "Discarded 1 comments") {
			t.Errorf("Expected the discard to be reported, got %q", f.out.String())
		}
	})
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{Attempts: 2, Backoff: 50 * time.Millisecond}
	limiter := p.newLimiter()

	start := time.Now()
	calls := 0
	n, err := p.do(context.Background(), limiter, "test", func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})
	if err == nil || n != 2 || calls != 2 {
		t.Fatalf("Expected 2 failed attempts, got n=%d calls=%d err=%v", n, calls, err)
	}
	// One wait before each attempt, both after the spent initial token.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Expected attempts to be paced, took %v", elapsed)
	}
}

func TestRefreshMenuPausesAfterLocating(t *testing.T) {
	loc := &mockLocator{url: "https://search.pstatic.net/menu.jpg", delay: 150 * time.Millisecond}
	ext := &mockExtractor{responses: []string{weeklyJSON}}
	f := newFixture(t, loc, ext, 1)
	f.app.cfg.RetryBackoff = 100 * time.Millisecond

	if _, err := f.app.RefreshMenu(context.Background()); err != nil {
		t.Fatalf("RefreshMenu failed: %v", err)
	}
	if len(ext.calledAt) != 1 {
		t.Fatalf("Expected 1 extractor call, got %d", len(ext.calledAt))
	}
	// A slow locator must not use up the pause before the model call.
	if gap := ext.calledAt[0].Sub(loc.locatedAt); gap < 90*time.Millisecond {
		t.Errorf("Expected a pause of about 100ms after locating, got %v", gap)
	}
}

func TestRetryPolicyCanceled(t *testing.T) {
	p := RetryPolicy{Attempts: 3, Backoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := p.do(ctx, p.newLimiter(), "test", func(ctx context.Context) error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatal("Expected an error for a canceled context")
	}
	if calls != 0 {
		t.Errorf("Expected no attempts, got %d", calls)
	}
}

func TestPublishMenu(t *testing.T) {
	store, _ := storage.NewMenuStore(filepath.Join(t.TempDir(), "weekly_menu.json"))
	doc, err := menu.ParseModelOutput(weeklyJSON)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(doc); err != nil {
		t.Fatal(err)
	}

	gc := &mockGhostClient{}
	a := NewApp(nil, nil, store, nil, gc, &config.Config{})
	a.SetOutput(&bytes.Buffer{})

	post, err := a.PublishMenu(context.Background())
	if err != nil {
		t.Fatalf("PublishMenu failed: %v", err)
	}
	if post.ID != "p1" {
		t.Errorf("Expected post id 'p1', got '%s'", post.ID)
	}
	if gc.created.Title != "정반식당 주간 식단표" || gc.created.Status != ghost.StatusDraft {
		t.Errorf("Unexpected post %+v", gc.created)
	}

	html := gc.created.HTML
	for _, want := range []string{"<h2>월요일</h2>", "<li>제육볶음</li>", "<h3>PLUS</h3>", "<li>계란말이</li>", "<h3>프레쉬 박스</h3>", "<li>비빔밥</li>"} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected html to contain %q, got:\n%s", want, html)
		}
	}
	// Tuesday has no plus dishes, so only Monday renders the block.
	if strings.Count(html, "<h3>PLUS</h3>") != 1 {
		t.Errorf("Expected a single PLUS block, got:\n%s", html)
	}
}

func TestPublishMenuWithoutGhost(t *testing.T) {
	store, _ := storage.NewMenuStore(filepath.Join(t.TempDir(), "weekly_menu.json"))
	a := NewApp(nil, nil, store, nil, nil, &config.Config{})
	if _, err := a.PublishMenu(context.Background()); err == nil {
		t.Fatal("Expected an error without a ghost client")
	}
}
