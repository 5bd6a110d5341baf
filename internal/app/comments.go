package app

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"lunch-menu/internal/menu"
	"lunch-menu/internal/storage"
)

// Comments is the read/write contract every viewer uses. Each mutation is a
// single locked load, mutate and save of the whole document.
type Comments struct {
	store *storage.MenuStore
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewComments creates the comment service for store.
func NewComments(store *storage.MenuStore) *Comments {
	seed := uint64(time.Now().UnixNano())
	return &Comments{
		store: store,
		now:   time.Now,
		rng:   rand.New(rand.NewPCG(seed, seed>>32|1)),
	}
}

// Load returns the current document.
func (c *Comments) Load() (*menu.Document, error) {
	return c.store.Load()
}

// Post appends an anonymous comment to day. Empty text is rejected with
// menu.ErrEmptyComment before the file is touched.
func (c *Comments) Post(day, text string) (menu.Comment, error) {
	c.mu.Lock()
	comment, err := menu.NewComment(text, c.now(), c.rng)
	c.mu.Unlock()
	if err != nil {
		return menu.Comment{}, err
	}

	_, err = c.store.Update(func(doc *menu.Document) error {
		entry, err := doc.Day(day)
		if err != nil {
			return err
		}
		entry.AddComment(comment)
		return nil
	})
	if err != nil {
		return menu.Comment{}, fmt.Errorf("failed to save comment: %w", err)
	}
	return comment, nil
}

// Delete removes the comment with id from day and reports how many were
// removed. An unknown id is not an error.
func (c *Comments) Delete(day, id string) (int, error) {
	removed := 0
	_, err := c.store.Update(func(doc *menu.Document) error {
		entry, err := doc.Day(day)
		if err != nil {
			return err
		}
		removed = entry.DeleteComment(id)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete comment: %w", err)
	}
	return removed, nil
}
