// Package quota tracks how many imports a free user has left.
package quota

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"fiscampos/internal/logger"
)

// ErrLimitReached is returned when a non-subscribed user has used every free import.
var ErrLimitReached = errors.New("free import limit reached")

// State is the persisted quota state.
type State struct {
	ImportCount int  `toml:"import_count"`
	Subscribed  bool `toml:"subscribed"`
}

// Store is a TOML-file backed import counter.
type Store struct {
	mu    sync.Mutex
	path  string
	limit int
	state State
	log   zerolog.Logger
}

// NewStore opens the state file at path, creating its directory if needed.
// A missing file starts a fresh state.
func NewStore(path string, limit int) (*Store, error) {
	const op = "NewStore"

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%s: failed to create state directory: %w", op, err)
	}

	s := &Store{
		path:  path,
		limit: limit,
		log:   logger.WithComponent("quota"),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Limit returns the number of free imports.
func (s *Store) Limit() int {
	return s.limit
}

// Allow reports whether another import may run.
func (s *Store) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Subscribed || s.state.ImportCount < s.limit
}

// Remaining returns the free imports left, or -1 when subscribed.
func (s *Store) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Subscribed {
		return -1
	}
	if left := s.limit - s.state.ImportCount; left > 0 {
		return left
	}
	return 0
}

// Check returns ErrLimitReached when no import is allowed.
func (s *Store) Check() error {
	if !s.Allow() {
		return fmt.Errorf("%w (%d of %d used)", ErrLimitReached, s.State().ImportCount, s.limit)
	}
	return nil
}

// RecordImport counts a finished batch. Batches without records and
// subscribed users are not counted.
func (s *Store) RecordImport(records int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if records == 0 || s.state.Subscribed {
		return nil
	}
	s.state.ImportCount++

	s.log.Debug().
		Int("import_count", s.state.ImportCount).
		Int("limit", s.limit).
		Msg("Import counted")

	return s.save()
}

// Reset sets the import counter back to zero.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ImportCount = 0
	return s.save()
}

// SetSubscribed marks the user as subscribed (unlimited imports) or not.
func (s *Store) SetSubscribed(subscribed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Subscribed = subscribed
	return s.save()
}

// load reads the state file (caller must hold lock or own s exclusively).
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.state = State{}
			return nil
		}
		return fmt.Errorf("failed to read state: %w", err)
	}

	var state State
	if err := toml.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state %s: %w", s.path, err)
	}
	if state.ImportCount < 0 {
		state.ImportCount = 0
	}
	s.state = state
	return nil
}

// save writes the state file (caller must hold lock).
func (s *Store) save() error {
	data, err := toml.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}
