// Package memory implements the store port in process memory. It is NOT
// persistent and is only suitable for development / tests.
package memory

import (
	"fmt"
	"sync"

	"github.com/commaworks/comma/internal/domain"
)

type Store struct {
	mu  sync.RWMutex
	all map[string]*domain.UserRecord
}

func NewStore() *Store {
	return &Store{all: make(map[string]*domain.UserRecord)}
}

func (s *Store) LoadAll() (map[string]*domain.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.all), nil
}

func (s *Store) SaveAll(all map[string]*domain.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = cloneAll(all)
	return nil
}

func (s *Store) Update(fn func(all map[string]*domain.UserRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := cloneAll(s.all)
	if err := fn(work); err != nil {
		return err
	}
	s.all = work
	return nil
}

func (s *Store) Experience(userID domain.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.all[string(userID)]
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
		rec, ok := all[string(userID)]
		if !ok {
			rec = domain.NewUserRecord()
			all[string(userID)] = rec
		}
		rec.TotalExp += delta
		total = rec.TotalExp
		return nil
	})
	return total, err
}

func (s *Store) UpsertMoodEntry(userID domain.UserID, date string, entry domain.MoodEntry) error {
	return s.Update(func(all map[string]*domain.UserRecord) error {
		rec, ok := all[string(userID)]
		if !ok {
			rec = domain.NewUserRecord()
			all[string(userID)] = rec
		}
		rec.MoodCalendar[date] = entry
		return nil
	})
}

func (s *Store) MoodCalendar(userID domain.UserID) (map[string]domain.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]domain.MoodEntry{}
	rec, ok := s.all[string(userID)]
	if !ok {
		return out, nil
	}
	for date, e := range rec.MoodCalendar {
		out[date] = e
	}
	return out, nil
}

func cloneAll(all map[string]*domain.UserRecord) map[string]*domain.UserRecord {
	out := make(map[string]*domain.UserRecord, len(all))
	for id, rec := range all {
		out[id] = rec.Clone()
	}
	return out
}
