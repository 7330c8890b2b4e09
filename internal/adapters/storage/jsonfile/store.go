// Package jsonfile persists the whole user mapping as one JSON document on
// disk. This file layout is the durable contract: a top-level object keyed by
// user id, each value holding sessions per persona, total_exp and the mood
// calendar.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/commaworks/comma/internal/domain"
	"github.com/commaworks/comma/internal/observability"
)

// Store reads and writes the backing document whole. A single mutex
// serializes every read-modify-write cycle; there is no finer-grained
// locking and no protection against a second process writing the same file.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a store over the given file path. The file is created lazily
// on first load.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) LoadAll() (map[string]*domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) SaveAll(all map[string]*domain.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(all)
}

func (s *Store) Update(fn func(all map[string]*domain.UserRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return err
	}
	if err := fn(all); err != nil {
		return err
	}
	return s.saveLocked(all)
}

func (s *Store) Experience(userID domain.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return 0, err
	}
	rec, ok := all[string(userID)]
	if !ok {
		return 0, nil
	}
	return rec.TotalExp, nil
}

func (s *Store) AddExperience(userID domain.UserID, delta int) (int, error) {
	if delta < 0 {
		return 0, fmt.Errorf("experience delta must be non-negative, got %d", delta)
	}

	var total int
	err := s.Update(func(all map[string]*domain.UserRecord) error {
		rec := ensureRecord(all, userID)
		rec.TotalExp += delta
		total = rec.TotalExp
		return nil
	})
	return total, err
}

func (s *Store) UpsertMoodEntry(userID domain.UserID, date string, entry domain.MoodEntry) error {
	return s.Update(func(all map[string]*domain.UserRecord) error {
		rec := ensureRecord(all, userID)
		rec.MoodCalendar[date] = entry
		return nil
	})
}

func (s *Store) MoodCalendar(userID domain.UserID) (map[string]domain.MoodEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	rec, ok := all[string(userID)]
	if !ok {
		return map[string]domain.MoodEntry{}, nil
	}
	out := make(map[string]domain.MoodEntry, len(rec.MoodCalendar))
	for date, e := range rec.MoodCalendar {
		out[date] = e
	}
	return out, nil
}

// loadLocked reads the backing file. A missing file establishes an empty
// baseline; an unparseable file is treated as empty rather than surfacing a
// fatal error, so callers always continue with usable state.
func (s *Store) loadLocked() (map[string]*domain.UserRecord, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		empty := map[string]*domain.UserRecord{}
		if err := s.saveLocked(empty); err != nil {
			return nil, err
		}
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	all := map[string]*domain.UserRecord{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &all); err != nil {
			observability.Logger().Warn("user data file unparseable, starting empty",
				"path", s.path, "error", err)
			return map[string]*domain.UserRecord{}, nil
		}
	}
	for _, rec := range all {
		if rec == nil {
			continue
		}
		rec.Normalize()
	}
	return all, nil
}

// saveLocked writes the whole document via temp-file-and-rename so a crash
// mid-write never truncates the previous state.
func (s *Store) saveLocked(all map[string]*domain.UserRecord) error {
	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding user data: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".users_data-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

func ensureRecord(all map[string]*domain.UserRecord, userID domain.UserID) *domain.UserRecord {
	rec, ok := all[string(userID)]
	if !ok || rec == nil {
		rec = domain.NewUserRecord()
		all[string(userID)] = rec
	}
	rec.Normalize()
	return rec
}
