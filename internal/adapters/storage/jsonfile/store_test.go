package jsonfile_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commaworks/comma/internal/adapters/storage/jsonfile"
	"github.com/commaworks/comma/internal/domain"
)

func newTestStore(t *testing.T) (*jsonfile.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users_data.json")
	return jsonfile.New(path), path
}

func TestLoadAllEstablishesEmptyBaseline(t *testing.T) {
	store, path := newTestStore(t)

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)

	// The baseline file now exists on disk.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(raw))
}

func TestLoadAllTreatsCorruptFileAsEmpty(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json at all"), 0o644))

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	createdA := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	createdB := time.Date(2024, 1, 12, 21, 5, 0, 0, time.UTC)

	rec := domain.NewUserRecord()
	rec.TotalExp = 42
	rec.MoodCalendar["2024-01-01"] = domain.MoodEntry{Color: "#FF5733", Emotion: "열정"}
	rec.Sessions["부처님"] = []*domain.Session{
		{
			ID:          "sess-open",
			CreatedAt:   createdB,
			Title:       "새로운 상담",
			IsCompleted: false,
			Messages: []domain.Message{
				{Role: domain.RoleAssistant, Content: "어서 오세요."},
			},
		},
		{
			ID:          "sess-done",
			CreatedAt:   createdA,
			Title:       "출근길 걱정",
			IsCompleted: true,
			Messages: []domain.Message{
				{Role: domain.RoleAssistant, Content: "어서 오세요."},
				{Role: domain.RoleUser, Content: "회사 가기가 무서워요."},
				{Role: domain.RoleAssistant, Content: "그 마음을 더 들려주세요."},
				{Role: domain.RoleUser, Content: "조금 나아졌어요."},
			},
		},
	}

	require.NoError(t, store.SaveAll(map[string]*domain.UserRecord{"User_abc12345": rec}))

	reloaded, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, reloaded, 1)

	got := reloaded["User_abc12345"]
	require.NotNil(t, got)
	assert.Equal(t, 42, got.TotalExp)
	assert.Equal(t, rec.MoodCalendar, got.MoodCalendar)

	sessions := got.Sessions["부처님"]
	require.Len(t, sessions, 2)

	for i, want := range rec.Sessions["부처님"] {
		assert.Equal(t, want.ID, sessions[i].ID)
		assert.Equal(t, want.Title, sessions[i].Title)
		assert.Equal(t, want.IsCompleted, sessions[i].IsCompleted)
		assert.Equal(t, want.Messages, sessions[i].Messages)
		assert.True(t, want.CreatedAt.Equal(sessions[i].CreatedAt),
			"session %d created_at: want %v, got %v", i, want.CreatedAt, sessions[i].CreatedAt)
	}
}

func TestExperienceDefaultsToZero(t *testing.T) {
	store, _ := newTestStore(t)

	exp, err := store.Experience("User_nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, exp)
}

func TestAddExperienceAccumulates(t *testing.T) {
	store, _ := newTestStore(t)

	total, err := store.AddExperience("User_exp00001", 12)
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	total, err = store.AddExperience("User_exp00001", 30)
	require.NoError(t, err)
	assert.Equal(t, 42, total)

	_, err = store.AddExperience("User_exp00001", -1)
	require.Error(t, err)

	exp, err := store.Experience("User_exp00001")
	require.NoError(t, err)
	assert.Equal(t, 42, exp)
}

func TestUpsertMoodEntryOverwrites(t *testing.T) {
	store, _ := newTestStore(t)
	userID := domain.UserID("User_mood0009")

	require.NoError(t, store.UpsertMoodEntry(userID, "2024-02-14", domain.MoodEntry{Color: "#000000", Emotion: "우울"}))
	require.NoError(t, store.UpsertMoodEntry(userID, "2024-02-14", domain.MoodEntry{Color: "#FFD54F", Emotion: "기대"}))

	calendar, err := store.MoodCalendar(userID)
	require.NoError(t, err)
	require.Len(t, calendar, 1)
	assert.Equal(t, "기대", calendar["2024-02-14"].Emotion)
}

func TestUpdatePersistsAcrossStoreInstances(t *testing.T) {
	store, path := newTestStore(t)

	err := store.Update(func(all map[string]*domain.UserRecord) error {
		rec := domain.NewUserRecord()
		rec.TotalExp = 7
		all["User_persist1"] = rec
		return nil
	})
	require.NoError(t, err)

	other := jsonfile.New(path)
	exp, err := other.Experience("User_persist1")
	require.NoError(t, err)
	assert.Equal(t, 7, exp)
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.AddExperience("User_persist2", 5)
	require.NoError(t, err)

	boom := assert.AnError
	err = store.Update(func(all map[string]*domain.UserRecord) error {
		all["User_persist2"].TotalExp = 999
		return boom
	})
	require.ErrorIs(t, err, boom)

	exp, err := store.Experience("User_persist2")
	require.NoError(t, err)
	assert.Equal(t, 5, exp)
}
