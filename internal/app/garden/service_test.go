package garden_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commaworks/comma/internal/adapters/storage/memory"
	"github.com/commaworks/comma/internal/app/garden"
	"github.com/commaworks/comma/internal/domain"
)

func TestComputeLevelBoundaries(t *testing.T) {
	cases := []struct {
		experience int
		wantTier   int
	}{
		{0, 0},
		{49, 0},
		{50, 1},
		{149, 1},
		{150, 2},
		{299, 2},
		{300, 3},
		{100000, 3},
	}
	for _, tc := range cases {
		lvl := garden.ComputeLevel(tc.experience)
		assert.Equal(t, tc.wantTier, lvl.Tier, "experience=%d", tc.experience)
		assert.NotEmpty(t, lvl.Label, "experience=%d", tc.experience)
		assert.NotEmpty(t, lvl.Message, "experience=%d", tc.experience)
	}
}

func TestMoodEntryLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := garden.NewService(store)
	userID := domain.UserID("User_mood0001")

	require.NoError(t, svc.RecordMood(ctx, userID, "2024-01-01", domain.MoodEntry{Color: "#FF5733", Emotion: "열정"}))
	require.NoError(t, svc.RecordMood(ctx, userID, "2024-01-01", domain.MoodEntry{Color: "#E3F2FD", Emotion: "평온"}))

	calendar, err := store.MoodCalendar(userID)
	require.NoError(t, err)
	require.Len(t, calendar, 1)
	assert.Equal(t, "평온", calendar["2024-01-01"].Emotion)
	assert.Equal(t, "#E3F2FD", calendar["2024-01-01"].Color)
}

func TestMoodWindowReturnsLastSevenAscending(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := garden.NewService(store)
	userID := domain.UserID("User_mood0002")

	for day := 1; day <= 10; day++ {
		date := fmt.Sprintf("2024-03-%02d", day)
		require.NoError(t, svc.RecordMood(ctx, userID, date, domain.MoodEntry{Color: "#AAAAAA", Emotion: date}))
	}

	window, err := svc.MoodWindow(ctx, userID, garden.MoodWindowSize)
	require.NoError(t, err)
	require.Len(t, window, 7)

	assert.Equal(t, "2024-03-04", window[0].Date)
	assert.Equal(t, "2024-03-10", window[6].Date)
	for i := 1; i < len(window); i++ {
		assert.Less(t, window[i-1].Date, window[i].Date)
	}
}

func TestStatusCombinesExperienceAndMoods(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := garden.NewService(store)
	userID := domain.UserID("User_mood0003")

	_, err := store.AddExperience(userID, 160)
	require.NoError(t, err)
	require.NoError(t, svc.RecordMood(ctx, userID, "2024-04-01", domain.MoodEntry{Color: "#A5D6A7", Emotion: "안도"}))

	status, err := svc.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 160, status.TotalExperience)
	assert.Equal(t, 2, status.Level.Tier)
	require.Len(t, status.RecentMoods, 1)
	assert.Equal(t, "2024-04-01", status.RecentMoods[0].Date)
}
