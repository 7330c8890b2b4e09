// Package garden turns accumulated experience into the mind-garden view:
// a tree level derived from fixed breakpoints plus the recent mood calendar.
package garden

import (
	"context"
	"sort"
	"time"

	"github.com/commaworks/comma/internal/domain"
)

// Level is the display tier for a cumulative experience value.
type Level struct {
	Tier    int    `json:"tier"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// ComputeLevel maps cumulative experience onto the fixed tier breakpoints.
// Pure and total: every e >= 0 lands in exactly one tier.
func ComputeLevel(experience int) Level {
	switch {
	case experience < 50:
		return Level{Tier: 0, Label: "🌱 씨앗", Message: "시작이 반이에요."}
	case experience < 150:
		return Level{Tier: 1, Label: "🌿 새싹", Message: "마음의 싹이 트고 있어요."}
	case experience < 300:
		return Level{Tier: 2, Label: "🌳 묘목", Message: "줄기가 단단해지고 있어요."}
	default:
		return Level{Tier: 3, Label: "🌲 나무", Message: "당신의 마음은 숲이 되었습니다."}
	}
}

// DateKey renders an instant as the mood calendar's ISO date key.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DatedMood pairs a calendar date with its entry for display.
type DatedMood struct {
	Date  string           `json:"date"`
	Entry domain.MoodEntry `json:"entry"`
}

// Status is the garden screen's data: total experience, derived level and
// the recent mood window.
type Status struct {
	TotalExperience int         `json:"total_experience"`
	Level           Level       `json:"level"`
	RecentMoods     []DatedMood `json:"recent_moods"`
}

// MoodWindowSize is how many recent dated entries the calendar view shows.
const MoodWindowSize = 7

type Service struct {
	store domain.Store
}

func NewService(store domain.Store) *Service {
	return &Service{store: store}
}

// Status assembles the garden view for one user.
func (s *Service) Status(ctx context.Context, userID domain.UserID) (*Status, error) {
	exp, err := s.store.Experience(userID)
	if err != nil {
		return nil, err
	}
	moods, err := s.MoodWindow(ctx, userID, MoodWindowSize)
	if err != nil {
		return nil, err
	}
	return &Status{
		TotalExperience: exp,
		Level:           ComputeLevel(exp),
		RecentMoods:     moods,
	}, nil
}

// RecordMood writes the entry for the given date, overwriting any earlier
// entry for that date.
func (s *Service) RecordMood(ctx context.Context, userID domain.UserID, date string, entry domain.MoodEntry) error {
	return s.store.UpsertMoodEntry(userID, date, entry)
}

// MoodWindow returns the user's most recent n dated entries, oldest to
// newest within that window.
func (s *Service) MoodWindow(ctx context.Context, userID domain.UserID, n int) ([]DatedMood, error) {
	calendar, err := s.store.MoodCalendar(userID)
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(calendar))
	for date := range calendar {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	if n > 0 && len(dates) > n {
		dates = dates[len(dates)-n:]
	}

	out := make([]DatedMood, 0, len(dates))
	for _, date := range dates {
		out = append(out, DatedMood{Date: date, Entry: calendar[date]})
	}
	return out, nil
}
