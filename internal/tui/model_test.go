package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lunch-menu/internal/app"
	"lunch-menu/internal/menu"
	"lunch-menu/internal/storage"

	tea "github.com/charmbracelet/bubbletea"
)

// 2026-10-13 is a Tuesday.
var tuesday = time.Date(2026, 10, 13, 11, 0, 0, 0, time.Local)

func newTestModel(t *testing.T) (Model, *storage.MenuStore) {
	t.Helper()
	store, err := storage.NewMenuStore(filepath.Join(t.TempDir(), "weekly_menu.json"))
	if err != nil {
		t.Fatal(err)
	}
	doc := &menu.Document{Days: []menu.DayEntry{
		{DayName: "Mon", Menu: menu.MenuContent{MainLunch: []string{"Kimchi stew"}, Plus: []string{"Egg roll"}}},
		{DayName: "Tue", Menu: menu.MenuContent{MainLunch: []string{"Bibimbap"}}},
		{DayName: "Wed", Menu: menu.MenuContent{MainLunch: []string{"Udon"}}},
	}}
	if err := store.Save(doc); err != nil {
		t.Fatal(err)
	}
	return New(app.NewComments(store), tuesday), store
}

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDefaultDayAndSwitching(t *testing.T) {
	m, _ := newTestModel(t)
	if m.currentDay().DayName != "Tue" {
		t.Fatalf("Expected Tue to be selected, got %s", m.currentDay().DayName)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if m.currentDay().DayName != "Wed" {
		t.Errorf("Expected Wed after right, got %s", m.currentDay().DayName)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.currentDay().DayName != "Mon" {
		t.Errorf("Expected tab to wrap to Mon, got %s", m.currentDay().DayName)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.currentDay().DayName != "Wed" {
		t.Errorf("Expected left to wrap to Wed, got %s", m.currentDay().DayName)
	}
}

func TestViewPlusBlock(t *testing.T) {
	m, _ := newTestModel(t)
	if out := m.View(); strings.Contains(out, "플러스 반찬") || !strings.Contains(out, "Bibimbap") {
		t.Errorf("Expected Tuesday without a plus block, got:\n%s", out)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if out := m.View(); !strings.Contains(out, "플러스 반찬: Egg roll") {
		t.Errorf("Expected Monday's plus block, got:\n%s", out)
	}
}

func TestAddAndDeleteComment(t *testing.T) {
	m, store := newTestModel(t)

	m = press(m, runes("a"))
	if !m.adding {
		t.Fatal("Expected add mode")
	}
	m = press(m, runes("Too spicy today!"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.adding {
		t.Error("Expected add mode to end after saving")
	}

	doc, _ := store.Load()
	day, _ := doc.Day("Tue")
	if len(day.Comments) != 1 || day.Comments[0].Text != "Too spicy today!" {
		t.Fatalf("Expected the comment to be saved immediately, got %+v", day.Comments)
	}
	if !strings.Contains(m.View(), "Too spicy today!") {
		t.Error("Expected the view to show the new comment")
	}

	m = press(m, runes("a"), runes("second"), tea.KeyMsg{Type: tea.KeyEnter})
	// newest first: "second" is selected; move to the older one and delete it
	m = press(m, tea.KeyMsg{Type: tea.KeyDown}, runes("d"))

	doc, _ = store.Load()
	day, _ = doc.Day("Tue")
	if len(day.Comments) != 1 || day.Comments[0].Text != "second" {
		t.Errorf("Expected only 'second' to remain, got %+v", day.Comments)
	}
}

func TestEmptyCommentRejected(t *testing.T) {
	m, store := newTestModel(t)

	m = press(m, runes("a"), tea.KeyMsg{Type: tea.KeyEnter})
	if !m.adding || !m.statusErr {
		t.Error("Expected to stay in add mode with an error")
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.adding {
		t.Error("Expected esc to cancel")
	}

	doc, _ := store.Load()
	if doc.CommentCount() != 0 {
		t.Errorf("Expected no comments, got %d", doc.CommentCount())
	}
}

func TestMissingFile(t *testing.T) {
	store, _ := storage.NewMenuStore(filepath.Join(t.TempDir(), "weekly_menu.json"))
	m := New(app.NewComments(store), tuesday)

	if out := m.View(); !strings.Contains(out, "does not exist") {
		t.Errorf("Expected an error state, got:\n%s", out)
	}
	// Navigation must not panic without a document.
	press(m, tea.KeyMsg{Type: tea.KeyRight}, runes("a"), runes("d"))
}

func TestDeleteAlreadyRemoved(t *testing.T) {
	m, store := newTestModel(t)
	m = press(m, runes("a"), runes("gone soon"), tea.KeyMsg{Type: tea.KeyEnter})

	// Another viewer removes the comment while this one still shows it.
	if _, err := store.Update(func(doc *menu.Document) error {
		day, _ := doc.Day("Tue")
		day.Comments = nil
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	m = press(m, runes("d"))
	if m.status != "nothing removed" || !m.statusErr {
		t.Errorf("Expected a nothing removed error, got %q (err=%v)", m.status, m.statusErr)
	}
}

func TestReloadFailure(t *testing.T) {
	m, store := newTestModel(t)
	if err := os.Remove(store.Path()); err != nil {
		t.Fatal(err)
	}

	m = press(m, runes("r"))
	if m.doc != nil || !m.statusErr || !strings.HasPrefix(m.status, "reload failed") {
		t.Errorf("Expected a failed reload, got status %q (err=%v)", m.status, m.statusErr)
	}
	if out := m.View(); !strings.Contains(out, "does not exist") {
		t.Errorf("Expected the error panel, got:\n%s", out)
	}
}
