package domain

// Message is one turn in a session transcript. Messages are immutable once
// appended; their order is conversation order and is replayed verbatim as
// generation-backend history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is one conversation thread between a user and one persona.
// Once IsCompleted flips to true the session is a read-only artifact:
// no message appends, no title changes.
type Session struct {
	ID          SessionID `json:"id"`
	CreatedAt   Timestamp `json:"created_at"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"is_completed"`
	Messages    []Message `json:"messages"`

	// ContextNote is an optional per-session override the user supplies
	// (background for the counselor, or a self-declared relationship role
	// for the family persona). It is folded into the system instruction.
	ContextNote string `json:"context_note,omitempty"`
}

// DisplayDate renders the creation instant the way the session list shows it.
func (s *Session) DisplayDate() string {
	return s.CreatedAt.Format("01/02")
}

// Clone returns a deep copy so callers can hand sessions across the store
// boundary without aliasing the durable state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Messages = make([]Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return &cp
}

// SessionSummary is the listing projection of a session (no transcript).
type SessionSummary struct {
	ID          SessionID `json:"id"`
	Title       string    `json:"title"`
	CreatedAt   Timestamp `json:"created_at"`
	IsCompleted bool      `json:"is_completed"`
}

// MoodEntry is the per-date mood record on the user's calendar.
// At most one entry per date; a later write for the same date wins.
type MoodEntry struct {
	Color   string `json:"color"`
	Emotion string `json:"emotion"`
}

// UserRecord is the full durable state of one user. The JSON shape here is
// the persistence contract: a top-level document maps user id to this record.
type UserRecord struct {
	Sessions     map[string][]*Session `json:"sessions"`
	TotalExp     int                   `json:"total_exp"`
	MoodCalendar map[string]MoodEntry  `json:"mood_calendar"`
}

// NewUserRecord returns an empty record with all maps initialized.
func NewUserRecord() *UserRecord {
	return &UserRecord{
		Sessions:     make(map[string][]*Session),
		MoodCalendar: make(map[string]MoodEntry),
	}
}

// Normalize fills in maps that an older or hand-edited document may omit,
// so lookups never hit a nil map after load.
func (r *UserRecord) Normalize() {
	if r.Sessions == nil {
		r.Sessions = make(map[string][]*Session)
	}
	if r.MoodCalendar == nil {
		r.MoodCalendar = make(map[string]MoodEntry)
	}
}

// Clone deep-copies the record, sessions included.
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	cp := NewUserRecord()
	cp.TotalExp = r.TotalExp
	for persona, sessions := range r.Sessions {
		list := make([]*Session, len(sessions))
		for i, s := range sessions {
			list[i] = s.Clone()
		}
		cp.Sessions[persona] = list
	}
	for date, entry := range r.MoodCalendar {
		cp.MoodCalendar[date] = entry
	}
	return cp
}

// RewardArtifact is the ephemeral output of completing a session. Only its
// effects (experience total, mood calendar) are persisted; the artifact
// itself lives just long enough to render the reward screen.
type RewardArtifact struct {
	Summary          string `json:"summary"`
	Emotion          string `json:"emotion"`
	Color            string `json:"color"`
	Mission          string `json:"mission"`
	EarnedExperience int    `json:"earned_experience"`
}

// OtherAnalysis is the result of the third-party psychology analysis.
type OtherAnalysis struct {
	HiddenMind string `json:"hidden_mind"`
	Reason     string `json:"reason"`
	Advice     string `json:"advice"`
}
