package domain

import (
	"context"
	"iter"
)

// LLMClient defines how the core application interacts with the
// text-generation backend.
type LLMClient interface {
	// StreamReply produces the assistant's next turn as a finite,
	// non-restartable sequence of text chunks. history is every message
	// before the new user input, in conversation order. Any mid-stream
	// failure is yielded as the error of the final element.
	StreamReply(ctx context.Context, persona Persona, history []Message, userMessage string) iter.Seq2[string, error]

	// GenerateText returns a whole response for a one-shot prompt
	// (title generation).
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateJSON returns the raw bytes of a structured JSON response
	// (reward analysis, third-party analysis). Callers own parsing and
	// the fallback when the bytes are not the shape they asked for.
	GenerateJSON(ctx context.Context, prompt string) ([]byte, error)
}

// Store is the persistence port. The backing representation is a single
// document keyed by user id; every mutation is a read-modify-write of the
// whole document, serialized by the implementation.
type Store interface {
	// LoadAll returns the full mapping. A missing backing document yields
	// an empty mapping (and establishes it as the durable baseline); an
	// unparseable one is treated as empty rather than failing.
	LoadAll() (map[string]*UserRecord, error)

	// SaveAll persists the entire mapping as one unit, atomically,
	// overwriting prior content.
	SaveAll(all map[string]*UserRecord) error

	// Update runs fn against the loaded mapping and persists the result,
	// all under the store's single writer lock. If fn returns an error
	// nothing is written.
	Update(fn func(all map[string]*UserRecord) error) error

	// Experience returns the user's cumulative experience, 0 if absent.
	Experience(userID UserID) (int, error)

	// AddExperience adds a non-negative delta and returns the new total.
	AddExperience(userID UserID, delta int) (int, error)

	// UpsertMoodEntry writes the entry for an ISO date, overwriting any
	// earlier entry for the same date.
	UpsertMoodEntry(userID UserID, date string, entry MoodEntry) error

	// MoodCalendar returns the user's full date-to-mood mapping.
	MoodCalendar(userID UserID) (map[string]MoodEntry, error)
}
