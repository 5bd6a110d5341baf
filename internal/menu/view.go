package menu

import "time"

// DayView is what every viewer renders for a selected day.
type DayView struct {
	DayName   string    `json:"day"`
	MainLunch []string  `json:"main_lunch"`
	Plus      []string  `json:"plus"`
	ShowPlus  bool      `json:"show_plus"`
	Comments  []Comment `json:"comments"` // newest first
}

// View prepares the day for display.
func (d DayEntry) View() DayView {
	comments := make([]Comment, 0, len(d.Comments))
	for i := len(d.Comments) - 1; i >= 0; i-- {
		comments = append(comments, d.Comments[i])
	}
	return DayView{
		DayName:   d.DayName,
		MainLunch: nonNil(d.Menu.MainLunch),
		Plus:      nonNil(d.Menu.Plus),
		ShowPlus:  len(d.Menu.Plus) > 0,
		Comments:  comments,
	}
}

// DefaultDayIndex maps now to a position in a Monday-first list of n days.
// Weekends and short weeks fall back to the first day.
func DefaultDayIndex(now time.Time, n int) int {
	idx := (int(now.Weekday()) + 6) % 7
	if idx >= n {
		return 0
	}
	return idx
}
