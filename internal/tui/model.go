package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lunch-menu/internal/app"
	"lunch-menu/internal/menu"
	"lunch-menu/internal/storage"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the terminal viewer. Every add or delete is saved before the
// view refreshes.
type Model struct {
	comments *app.Comments
	doc      *menu.Document
	loadErr  error

	dayIndex int
	selected int // position in the newest-first comment list

	adding bool
	ti     textinput.Model
	help   help.Model

	status    string
	statusErr bool
	width     int
}

// New loads the document and selects today's day.
func New(comments *app.Comments, now time.Time) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "오늘 제육은 좀 맵네요!"
	ti.CharLimit = 500

	m := Model{
		comments: comments,
		ti:       ti,
		help:     help.New(),
		width:    80,
	}
	m.reload()
	if m.doc != nil {
		m.dayIndex = menu.DefaultDayIndex(now, len(m.doc.Days))
	}
	return m
}

// Run starts the viewer on the alternate screen.
func Run(comments *app.Comments) error {
	_, err := tea.NewProgram(New(comments, time.Now()), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.help.Width = size.Width
		return m, nil
	}

	if m.adding {
		return m.updateAdding(msg)
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(k, keys.Quit):
		return m, tea.Quit
	case key.Matches(k, keys.Reload):
		m.reload()
		if m.loadErr != nil {
			m.setStatus("reload failed: "+m.loadErr.Error(), true)
		} else {
			m.setStatus("reloaded", false)
		}
		return m, nil
	}

	if m.doc == nil {
		return m, nil
	}

	switch {
	case key.Matches(k, keys.NextDay):
		m.dayIndex = (m.dayIndex + 1) % len(m.doc.Days)
		m.selected = 0
	case key.Matches(k, keys.PrevDay):
		m.dayIndex = (m.dayIndex - 1 + len(m.doc.Days)) % len(m.doc.Days)
		m.selected = 0
	case key.Matches(k, keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(k, keys.Down):
		if m.selected < len(m.currentDay().Comments)-1 {
			m.selected++
		}
	case key.Matches(k, keys.Add):
		m.adding = true
		m.ti.SetValue("")
		cmd := m.ti.Focus()
		return m, cmd
	case key.Matches(k, keys.Delete):
		m.deleteSelected()
	}
	return m, nil
}

func (m Model) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			_, err := m.comments.Post(m.currentDay().DayName, m.ti.Value())
			if errors.Is(err, menu.ErrEmptyComment) {
				m.setStatus("comment text is empty", true)
				return m, nil
			}
			m.adding = false
			m.ti.Blur()
			m.ti.SetValue("")
			if err != nil {
				m.setStatus(err.Error(), true)
				return m, nil
			}
			m.reload()
			m.selected = 0
			m.setStatus("comment saved", false)
			return m, nil
		case "esc":
			m.adding = false
			m.ti.Blur()
			m.ti.SetValue("")
			m.status = ""
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) deleteSelected() {
	view := m.currentDay().View()
	if m.selected < 0 || m.selected >= len(view.Comments) {
		return
	}
	target := view.Comments[m.selected]
	removed, err := m.comments.Delete(view.DayName, target.ID)
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.reload()
	if removed == 0 {
		m.setStatus("nothing removed", true)
		return
	}
	if n := len(m.currentDay().Comments); m.selected >= n && n > 0 {
		m.selected = n - 1
	}
	m.setStatus("comment deleted", false)
}

func (m *Model) reload() {
	doc, err := m.comments.Load()
	if err == nil && len(doc.Days) == 0 {
		err = storage.ErrCorrupt
	}
	if err != nil {
		m.doc, m.loadErr = nil, err
		return
	}
	m.doc, m.loadErr = doc, nil
	if m.dayIndex >= len(doc.Days) {
		m.dayIndex = 0
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func (m Model) currentDay() *menu.DayEntry {
	return &m.doc.Days[m.dayIndex]
}

func (m Model) View() string {
	if m.doc == nil {
		msg := "weekly menu could not be loaded"
		if errors.Is(m.loadErr, storage.ErrNotFound) {
			msg = "weekly menu file does not exist yet"
		}
		return panelStyle.Render(errorStyle.Render("✖ "+msg) + "\n\n" + mutedStyle.Render("r reload • q quit"))
	}

	var b strings.Builder

	title := "🍱 주간 식단표"
	if m.doc.RestaurantName != "" {
		title = "🍱 " + m.doc.RestaurantName + " 주간 식단표"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	tabs := make([]string, 0, len(m.doc.Days))
	for i, name := range m.doc.DayNames() {
		if i == m.dayIndex {
			tabs = append(tabs, activeDay.Render(name))
		} else {
			tabs = append(tabs, dayStyle.Render(name))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	day := m.currentDay()
	view := day.View()
	b.WriteString(accentStyle.Render("🏠 "+view.DayName+" 추천 점심") + "\n")
	if len(view.MainLunch) == 0 {
		b.WriteString(mutedStyle.Render("  등록된 메뉴가 없습니다.") + "\n")
	}
	for _, item := range view.MainLunch {
		b.WriteString("  👉 " + item + "\n")
	}

	if view.ShowPlus {
		b.WriteString("\n" + plusStyle.Render("➕ 오늘의 플러스 반찬: "+strings.Join(view.Plus, ", ")) + "\n")
	}

	for _, g := range day.Menu.ExtraGroups() {
		b.WriteString("\n" + accentStyle.Render(g.Name) + "\n")
		for _, item := range g.Items {
			b.WriteString("  • " + item + "\n")
		}
	}

	b.WriteString("\n" + accentStyle.Render(fmt.Sprintf("💬 익명 후기 (%d)", len(view.Comments))) + "\n")
	if len(view.Comments) == 0 {
		b.WriteString(mutedStyle.Render("  아직 후기가 없어요. 첫 번째 후기를 남겨보세요!") + "\n")
	}
	for i, c := range view.Comments {
		line := fmt.Sprintf("👤 %s %s  %s", c.Author, mutedStyle.Render("("+c.Time+")"), c.Text)
		if i == m.selected {
			b.WriteString(selectedStyle.Render(">") + " " + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	if m.adding {
		b.WriteString("\n" + panelStyle.Render("Add comment\n"+m.ti.View()) + "\n")
	}

	if m.status != "" {
		style := successStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}

	b.WriteString("\n" + m.help.View(keys))
	return panelStyle.Render(b.String())
}
