package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lunch-menu/internal/menu"

	"github.com/gofrs/flock"
)

var (
	ErrNotFound = errors.New("weekly menu file does not exist")
	ErrCorrupt  = errors.New("weekly menu file is not a valid document")
)

// MenuStore keeps the weekly menu as a single JSON file. Writers hold an
// exclusive lock on a sibling ".lock" file and replace the document through
// a rename, so readers never observe a partial write.
type MenuStore struct {
	path string
	mu   sync.Mutex // flock does not exclude goroutines sharing one handle
	lock *flock.Flock
}

// NewMenuStore creates a MenuStore and ensures the parent directory exists.
func NewMenuStore(path string) (*MenuStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &MenuStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the location of the document on disk.
func (s *MenuStore) Path() string {
	return s.path
}

// Exists checks whether a document has been written yet.
func (s *MenuStore) Exists() bool {
	_, err := os.Stat(s.path)
	return !os.IsNotExist(err)
}

// Load reads and parses the document.
func (s *MenuStore) Load() (*menu.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to read menu file: %w", err)
	}

	doc, err := menu.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return doc, nil
}

// Save overwrites the whole document.
func (s *MenuStore) Save(doc *menu.Document) error {
	unlock, err := s.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	return s.write(doc)
}

// Replace overwrites the whole document and returns the one it replaced, or
// nil when there was no readable previous document.
func (s *MenuStore) Replace(doc *menu.Document) (*menu.Document, error) {
	unlock, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()

	prev, err := s.Load()
	if err != nil {
		prev = nil
	}
	if err := s.write(doc); err != nil {
		return nil, err
	}
	return prev, nil
}

// Update loads the document, applies fn and saves the result while holding
// the lock. If fn returns an error nothing is written.
func (s *MenuStore) Update(fn func(doc *menu.Document) error) (*menu.Document, error) {
	unlock, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := s.write(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *MenuStore) acquire() (func(), error) {
	s.mu.Lock()
	if err := s.lock.Lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to lock menu file: %w", err)
	}
	return func() {
		s.lock.Unlock()
		s.mu.Unlock()
	}, nil
}

func (s *MenuStore) write(doc *menu.Document) error {
	data, err := menu.Encode(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal menu: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write menu file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync menu file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close menu file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set menu file mode: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace menu file: %w", err)
	}
	return nil
}
