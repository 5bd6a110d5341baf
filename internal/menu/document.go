package menu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Persisted keys. They match the prompt we send to the model, so the document
// the model returns can be stored without renaming anything.
const (
	keyRestaurant = "식당_이름"
	keyDays       = "주간_식단표"
	keyDaysLegacy = "주간식단표"
	keyMainLunch  = "마음까지_든_한_점심"
	keyPlus       = "PLUS"
)

var (
	ErrUnknownDay  = errors.New("day not found in weekly menu")
	ErrInvalidMenu = errors.New("invalid weekly menu")
)

// Document is one restaurant-week: the menu of every weekday plus the
// comments left on each day.
type Document struct {
	RestaurantName string     `json:"식당_이름,omitempty"`
	Days           []DayEntry `json:"주간_식단표"`
}

// DayEntry holds a single weekday. DayName is the lookup key.
type DayEntry struct {
	DayName  string      `json:"요일"`
	Menu     MenuContent `json:"식단"`
	Comments []Comment   `json:"comments,omitempty"`
}

// MenuContent is the categorized dish list of a day. Groups other than the
// main lunch and the plus side dishes are kept verbatim in Extra.
type MenuContent struct {
	MainLunch []string
	Plus      []string
	Extra     map[string]json.RawMessage
}

// Comment is an anonymous note left on a day.
type Comment struct {
	ID     string `json:"id,omitempty"`
	Author string `json:"user"`
	Text   string `json:"text"`
	Time   string `json:"time"`
}

// ItemGroup is a named list of dishes, used for groups without dedicated
// display logic.
type ItemGroup struct {
	Name  string
	Items []string
}

// UnmarshalJSON accepts the canonical object, the legacy "주간식단표" key and a
// bare array of days.
func (d *Document) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var days []DayEntry
		if err := json.Unmarshal(trimmed, &days); err != nil {
			return err
		}
		*d = Document{Days: days}
		d.fillCommentIDs()
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	var doc Document
	if v, ok := raw[keyRestaurant]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &doc.RestaurantName); err != nil {
			return fmt.Errorf("%s: %w", keyRestaurant, err)
		}
	}

	daysRaw, ok := raw[keyDays]
	if !ok {
		daysRaw, ok = raw[keyDaysLegacy]
	}
	if ok && !isNull(daysRaw) {
		if err := json.Unmarshal(daysRaw, &doc.Days); err != nil {
			return fmt.Errorf("%s: %w", keyDays, err)
		}
	}

	*d = doc
	d.fillCommentIDs()
	return nil
}

// MarshalJSON writes the main and plus groups under their fixed keys and
// every other group untouched.
func (m MenuContent) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	out[keyMainLunch] = nonNil(m.MainLunch)
	out[keyPlus] = nonNil(m.Plus)
	return marshalNoEscape(out)
}

func (m *MenuContent) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*m = MenuContent{}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var mc MenuContent
	var err error
	if mc.MainLunch, err = decodeItems(raw[keyMainLunch]); err != nil {
		return fmt.Errorf("%s: %w", keyMainLunch, err)
	}
	if mc.Plus, err = decodeItems(raw[keyPlus]); err != nil {
		return fmt.Errorf("%s: %w", keyPlus, err)
	}
	delete(raw, keyMainLunch)
	delete(raw, keyPlus)
	if len(raw) > 0 {
		mc.Extra = raw
	}

	*m = mc
	return nil
}

// ExtraGroups returns the pass-through groups that decode as dish lists,
// sorted by name.
func (m MenuContent) ExtraGroups() []ItemGroup {
	names := make([]string, 0, len(m.Extra))
	for k := range m.Extra {
		names = append(names, k)
	}
	sort.Strings(names)

	var groups []ItemGroup
	for _, name := range names {
		items, err := decodeItems(m.Extra[name])
		if err != nil || len(items) == 0 {
			continue
		}
		groups = append(groups, ItemGroup{Name: strings.ReplaceAll(name, "_", " "), Items: items})
	}
	return groups
}

// Validate checks the invariants a document must hold before it is stored.
func (d *Document) Validate() error {
	if len(d.Days) == 0 {
		return fmt.Errorf("%w: no days", ErrInvalidMenu)
	}
	seen := make(map[string]struct{}, len(d.Days))
	for i, day := range d.Days {
		name := strings.TrimSpace(day.DayName)
		if name == "" {
			return fmt.Errorf("%w: day %d has no name", ErrInvalidMenu, i+1)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate day %q", ErrInvalidMenu, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Day returns the entry named name. The pointer aliases the document, so
// mutations through it are visible to a later save.
func (d *Document) Day(name string) (*DayEntry, error) {
	for i := range d.Days {
		if d.Days[i].DayName == name {
			return &d.Days[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDay, name)
}

// DayNames lists the days in document order.
func (d *Document) DayNames() []string {
	names := make([]string, 0, len(d.Days))
	for _, day := range d.Days {
		names = append(names, day.DayName)
	}
	return names
}

// CommentCount is the number of comments across all days.
func (d *Document) CommentCount() int {
	n := 0
	for _, day := range d.Days {
		n += len(day.Comments)
	}
	return n
}

// Encode renders the document the way it is persisted: two-space indent,
// non-ASCII and HTML characters left as-is.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a persisted document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func decodeItems(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	// Models sometimes collapse a one-dish group into a plain string.
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("expected a list of dish names")
	}
	if strings.TrimSpace(single) == "" {
		return nil, nil
	}
	return []string{single}, nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
