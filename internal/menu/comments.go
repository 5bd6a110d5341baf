package menu

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the display precision of comment timestamps.
const TimeLayout = "2006-01-02 15:04"

var ErrEmptyComment = errors.New("comment text is empty")

var (
	authorAdjectives = []string{
		"배고픈", "수상한", "조용한", "성실한", "졸린", "용감한",
		"까다로운", "행복한", "바쁜", "느긋한", "매운맛", "단골",
	}
	authorNouns = []string{
		"뱀띠", "미식가", "직장인", "막내", "팀장님", "개발자",
		"디자이너", "인턴", "점심요정", "부장님", "신입", "고양이",
	}
)

// AuthorName builds an anonymous display name such as "배고픈 뱀띠_42".
func AuthorName(rng *rand.Rand) string {
	adj := authorAdjectives[rng.IntN(len(authorAdjectives))]
	noun := authorNouns[rng.IntN(len(authorNouns))]
	return fmt.Sprintf("%s %s_%02d", adj, noun, rng.IntN(100))
}

// NewComment validates text and stamps it with a generated author, a
// time-ordered id and the creation time.
func NewComment(text string, now time.Time, rng *rand.Rand) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyComment
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Comment{}, fmt.Errorf("failed to generate comment id: %w", err)
	}

	return Comment{
		ID:     id.String(),
		Author: AuthorName(rng),
		Text:   text,
		Time:   now.Format(TimeLayout),
	}, nil
}

// legacyCommentNamespace derives ids for comments stored without one.
var legacyCommentNamespace = uuid.MustParse("6f1c2a8e-5b3d-4c7a-9e21-0d4b8f6a3c15")

// fillCommentIDs gives every id-less comment a name-based id. The id depends
// only on the day, the position and the content, so repeated loads of the
// same file agree until the next write persists it.
func (d *Document) fillCommentIDs() {
	for i := range d.Days {
		day := &d.Days[i]
		for j := range day.Comments {
			c := &day.Comments[j]
			if c.ID != "" {
				continue
			}
			key := fmt.Sprintf("%s\x00%d\x00%s\x00%s\x00%s", day.DayName, j, c.Author, c.Text, c.Time)
			c.ID = uuid.NewSHA1(legacyCommentNamespace, []byte(key)).String()
		}
	}
}

// AddComment appends c to the day in submission order.
func (d *DayEntry) AddComment(c Comment) {
	d.Comments = append(d.Comments, c)
}

// DeleteComment removes every comment carrying id and reports how many were
// removed. Unknown ids leave the day untouched.
func (d *DayEntry) DeleteComment(id string) int {
	if id == "" {
		return 0
	}
	kept := make([]Comment, 0, len(d.Comments))
	for _, c := range d.Comments {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	removed := len(d.Comments) - len(kept)
	if removed == 0 {
		return 0
	}
	if len(kept) == 0 {
		kept = nil
	}
	d.Comments = kept
	return removed
}
