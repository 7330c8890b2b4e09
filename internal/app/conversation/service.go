// Package conversation owns the session lifecycle: creating, listing,
// completing and deleting chat sessions per (user, persona) pair, appending
// messages, and deriving the title and reward artifacts.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/commaworks/comma/internal/adapters/llm"
	"github.com/commaworks/comma/internal/app/garden"
	"github.com/commaworks/comma/internal/domain"
	"github.com/commaworks/comma/internal/observability"
	"github.com/commaworks/comma/internal/persona"
)

// Product tuning constants carried over from observed UX behavior. They are
// thresholds, not semantics; adjust freely.
const (
	// DefaultTitle is the title every new session starts with.
	DefaultTitle = "새로운 상담"

	// TitleLimit caps generated titles, in runes.
	TitleLimit = 10

	// TitleFallbackRunes is how much of the first message the deterministic
	// fallback title keeps.
	TitleFallbackRunes = 8

	// CompletionThreshold is the minimum message count before a session may
	// be completed.
	CompletionThreshold = 3

	// ExperiencePerMessage is the reward rate at completion time.
	ExperiencePerMessage = 3

	// AnalysisWindow is how many trailing messages the reward analysis sees.
	AnalysisWindow = 10
)

// DefaultArtifact is the reward produced when the backend cannot enrich a
// completed session. Completion must succeed even when enrichment fails.
var DefaultArtifact = domain.RewardArtifact{
	Summary: "well done",
	Emotion: "calm",
	Color:   "#E3F2FD",
	Mission: "take a breath",
}

type Service struct {
	llm     domain.LLMClient
	store   domain.Store
	catalog *persona.Catalog
	now     func() time.Time
	newID   func() domain.SessionID

	// replyTimeout bounds one streamed assistant turn; zero means no bound.
	replyTimeout time.Duration
}

func NewService(llmClient domain.LLMClient, store domain.Store, catalog *persona.Catalog, replyTimeout time.Duration) *Service {
	return &Service{
		llm:          llmClient,
		store:        store,
		catalog:      catalog,
		now:          time.Now,
		newID:        func() domain.SessionID { return domain.SessionID(uuid.NewString()) },
		replyTimeout: replyTimeout,
	}
}

// CreateSession starts a fresh session for the user+persona pair, seeds the
// persona's greeting as the opening assistant message, inserts it at the
// front of the list and persists immediately.
func (s *Service) CreateSession(ctx context.Context, userID domain.UserID, personaName string) (*domain.Session, error) {
	p, ok := s.catalog.Find(personaName)
	if !ok {
		return nil, fmt.Errorf("%q: %w", personaName, domain.ErrPersonaNotFound)
	}

	log := observability.LoggerFromContext(ctx).With(
		"user_id", userID,
		"persona", personaName,
	)

	session := &domain.Session{
		ID:        s.newID(),
		CreatedAt: s.now(),
		Title:     DefaultTitle,
		Messages: []domain.Message{
			{Role: domain.RoleAssistant, Content: p.Greeting},
		},
	}

	err := s.store.Update(func(all map[string]*domain.UserRecord) error {
		rec := ensureRecord(all, userID)
		rec.Sessions[personaName] = append([]*domain.Session{session.Clone()}, rec.Sessions[personaName]...)
		return nil
	})
	if err != nil {
		log.Error("failed to create session", "error", err)
		return nil, err
	}

	log.Info("session created", "session_id", session.ID)
	return session, nil
}

// ListSessions returns session summaries for the user+persona pair, newest
// first.
func (s *Service) ListSessions(ctx context.Context, userID domain.UserID, personaName string) ([]domain.SessionSummary, error) {
	all, err := s.store.LoadAll()
	if err != nil {
		return nil, err
	}

	rec, ok := all[string(userID)]
	if !ok {
		return []domain.SessionSummary{}, nil
	}

	sessions := rec.Sessions[personaName]
	out := make([]domain.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, domain.SessionSummary{
			ID:          sess.ID,
			Title:       sess.Title,
			CreatedAt:   sess.CreatedAt,
			IsCompleted: sess.IsCompleted,
		})
	}
	return out, nil
}

// GetSession returns a copy of the full session, transcript included.
func (s *Service) GetSession(ctx context.Context, userID domain.UserID, personaName string, sessionID domain.SessionID) (*domain.Session, error) {
	all, err := s.store.LoadAll()
	if err != nil {
		return nil, err
	}
	sess := findSession(all, userID, personaName, sessionID)
	if sess == nil {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// DeleteSession removes the session from its list and persists. There is no
// soft delete and no undo; callers holding it as their active session must
// clear that reference.
func (s *Service) DeleteSession(ctx context.Context, userID domain.UserID, personaName string, sessionID domain.SessionID) error {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", userID,
		"persona", personaName,
		"session_id", sessionID,
	)

	err := s.store.Update(func(all map[string]*domain.UserRecord) error {
		rec, ok := all[string(userID)]
		if !ok {
			return domain.ErrSessionNotFound
		}
		sessions := rec.Sessions[personaName]
		for i, sess := range sessions {
			if sess.ID == sessionID {
				rec.Sessions[personaName] = append(sessions[:i:i], sessions[i+1:]...)
				return nil
			}
		}
		return domain.ErrSessionNotFound
	})
	if err != nil {
		return err
	}

	log.Info("session deleted")
	return nil
}

// AppendUserMessage appends a user turn to an open session and persists. On
// the first user turn (the session's 2nd message overall, after the greeting)
// it also derives the session title; title failure is swallowed, never
// surfaced.
func (s *Service) AppendUserMessage(ctx context.Context, userID domain.UserID, personaName string, sessionID domain.SessionID, text string) (*domain.Session, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &domain.ValidationError{Field: "text", Reason: "message text is required"}
	}

	log := observability.LoggerFromContext(ctx).With(
		"user_id", userID,
		"session_id", sessionID,
	)

	var updated *domain.Session
	var firstUserTurn bool
	err := s.store.Update(func(all map[string]*domain.UserRecord) error {
		sess := findSession(all, userID, personaName, sessionID)
		if sess == nil {
			return domain.ErrSessionNotFound
		}
		if sess.IsCompleted {
			return domain.ErrSessionLocked
		}
		sess.Messages = append(sess.Messages, domain.Message{Role: domain.RoleUser, Content: text})
		firstUserTurn = len(sess.Messages) == 2
		updated = sess.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if firstUserTurn {
		title := s.GenerateTitle(ctx, text)
		if err := s.setTitle(userID, personaName, sessionID, title); err != nil {
			log.Warn("failed to persist generated title", "error", err)
		} else {
			updated.Title = title
		}
	}

	log.Info("user message appended", "message_count", len(updated.Messages))
	return updated, nil
}

// ReplyInput drives one streamed assistant turn. OnChunk, when set, is
// invoked for every text chunk as it arrives so the caller can render
// incrementally.
type ReplyInput struct {
	UserID      domain.UserID
	PersonaName string
	SessionID   domain.SessionID
	OnChunk     func(chunk string)
}

// RequestAssistantReply replays the session history against the backend and
// streams the next assistant turn. The concatenation of all chunks is
// committed as the final assistant message exactly once, on clean stream end.
// On any mid-stream failure the turn is dropped: nothing is appended and the
// error surfaces as a BackendError.
func (s *Service) RequestAssistantReply(ctx context.Context, in ReplyInput) (*domain.Message, error) {
	all, err := s.store.LoadAll()
	if err != nil {
		return nil, err
	}
	sess := findSession(all, in.UserID, in.PersonaName, in.SessionID)
	if sess == nil {
		return nil, domain.ErrSessionNotFound
	}
	if sess.IsCompleted {
		return nil, domain.ErrSessionLocked
	}
	if len(sess.Messages) == 0 || sess.Messages[len(sess.Messages)-1].Role != domain.RoleUser {
		return nil, &domain.ValidationError{Field: "session", Reason: "no pending user message to reply to"}
	}

	p, ok := s.catalog.Find(in.PersonaName)
	if !ok {
		return nil, fmt.Errorf("%q: %w", in.PersonaName, domain.ErrPersonaNotFound)
	}
	if sess.ContextNote != "" {
		p.SystemPrompt += "\n\n[상담 배경]\n" + sess.ContextNote
	}

	log := observability.LoggerFromContext(ctx).With(
		"user_id", in.UserID,
		"session_id", in.SessionID,
		"persona", in.PersonaName,
	)
	log.Info("requesting assistant reply", "history_len", len(sess.Messages))

	if s.replyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.replyTimeout)
		defer cancel()
	}

	history := sess.Messages[:len(sess.Messages)-1]
	userMessage := sess.Messages[len(sess.Messages)-1].Content

	var full strings.Builder
	for chunk, err := range s.llm.StreamReply(ctx, p, history, userMessage) {
		if err != nil {
			log.Error("assistant stream failed, dropping turn", "error", err)
			return nil, &domain.BackendError{Op: "reply", Err: err}
		}
		full.WriteString(chunk)
		if in.OnChunk != nil {
			in.OnChunk(chunk)
		}
	}

	text := full.String()
	if text == "" {
		log.Error("assistant stream ended empty, dropping turn")
		return nil, &domain.BackendError{Op: "reply", Err: errors.New("empty reply")}
	}

	msg := domain.Message{Role: domain.RoleAssistant, Content: text}
	err = s.store.Update(func(all map[string]*domain.UserRecord) error {
		sess := findSession(all, in.UserID, in.PersonaName, in.SessionID)
		if sess == nil {
			return domain.ErrSessionNotFound
		}
		if sess.IsCompleted {
			return domain.ErrSessionLocked
		}
		sess.Messages = append(sess.Messages, msg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("assistant reply committed", "chars", len(text))
	return &msg, nil
}

// GenerateTitle derives a short label from the first user message. On any
// backend failure it falls back deterministically to a truncated prefix of
// the message; the failure itself is swallowed.
func (s *Service) GenerateTitle(ctx context.Context, firstUserMessage string) string {
	text, err := s.llm.GenerateText(ctx, llm.TitlePrompt(firstUserMessage))
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("title generation failed, using fallback", "error", err)
		return fallbackTitle(firstUserMessage)
	}
	return truncateRunes(strings.TrimSpace(text), TitleLimit, "")
}

// CompleteSession irreversibly closes the session, awards the experience,
// records today's mood and returns the reward artifact. The artifact comes
// from one structured backend call over the session's trailing messages; if
// that call fails or returns junk, the fixed default artifact is used so
// completion itself always succeeds.
func (s *Service) CompleteSession(ctx context.Context, userID domain.UserID, personaName string, sessionID domain.SessionID) (*domain.RewardArtifact, error) {
	all, err := s.store.LoadAll()
	if err != nil {
		return nil, err
	}
	sess := findSession(all, userID, personaName, sessionID)
	if sess == nil {
		return nil, domain.ErrSessionNotFound
	}
	if sess.IsCompleted {
		return nil, domain.ErrSessionCompleted
	}
	if len(sess.Messages) < CompletionThreshold {
		return nil, &domain.ValidationError{
			Field:  "messages",
			Reason: fmt.Sprintf("need at least %d messages to complete, have %d", CompletionThreshold, len(sess.Messages)),
		}
	}

	log := observability.LoggerFromContext(ctx).With(
		"user_id", userID,
		"session_id", sessionID,
	)

	earned := len(sess.Messages) * ExperiencePerMessage
	artifact := s.analyzeForGarden(ctx, sess.Messages)
	artifact.EarnedExperience = earned

	err = s.store.Update(func(all map[string]*domain.UserRecord) error {
		sess := findSession(all, userID, personaName, sessionID)
		if sess == nil {
			return domain.ErrSessionNotFound
		}
		if sess.IsCompleted {
			return domain.ErrSessionCompleted
		}
		sess.IsCompleted = true
		rec := ensureRecord(all, userID)
		rec.TotalExp += earned
		rec.MoodCalendar[garden.DateKey(s.now())] = domain.MoodEntry{
			Color:   artifact.Color,
			Emotion: artifact.Emotion,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("session completed", "earned_exp", earned, "emotion", artifact.Emotion)
	return &artifact, nil
}

// analyzeForGarden asks the backend for the summary/emotion/color/mission
// object. Every failure mode (call error, malformed JSON, missing fields)
// degrades to the fixed default, field by field.
func (s *Service) analyzeForGarden(ctx context.Context, messages []domain.Message) domain.RewardArtifact {
	window := messages
	if len(window) > AnalysisWindow {
		window = window[len(window)-AnalysisWindow:]
	}

	raw, err := s.llm.GenerateJSON(ctx, llm.GardenPrompt(window))
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("garden analysis failed, using default artifact", "error", err)
		return DefaultArtifact
	}

	var parsed domain.RewardArtifact
	if err := json.Unmarshal(raw, &parsed); err != nil {
		observability.LoggerFromContext(ctx).Warn("garden analysis unparseable, using default artifact", "error", err)
		return DefaultArtifact
	}

	if parsed.Summary == "" {
		parsed.Summary = DefaultArtifact.Summary
	}
	if parsed.Emotion == "" {
		parsed.Emotion = DefaultArtifact.Emotion
	}
	if parsed.Color == "" {
		parsed.Color = DefaultArtifact.Color
	}
	if parsed.Mission == "" {
		parsed.Mission = DefaultArtifact.Mission
	}
	return parsed
}

// SetContextNote stores the per-session override that steers the persona
// (extra background, or the caller's self-declared relationship role).
// Like every other mutation it is rejected once the session is completed.
func (s *Service) SetContextNote(ctx context.Context, userID domain.UserID, personaName string, sessionID domain.SessionID, note string) error {
	return s.store.Update(func(all map[string]*domain.UserRecord) error {
		sess := findSession(all, userID, personaName, sessionID)
		if sess == nil {
			return domain.ErrSessionNotFound
		}
		if sess.IsCompleted {
			return domain.ErrSessionLocked
		}
		sess.ContextNote = strings.TrimSpace(note)
		return nil
	})
}

func (s *Service) setTitle(userID domain.UserID, personaName string, sessionID domain.SessionID, title string) error {
	if title == "" {
		return nil
	}
	return s.store.Update(func(all map[string]*domain.UserRecord) error {
		sess := findSession(all, userID, personaName, sessionID)
		if sess == nil {
			return domain.ErrSessionNotFound
		}
		if sess.IsCompleted {
			return domain.ErrSessionLocked
		}
		sess.Title = title
		return nil
	})
}

func fallbackTitle(msg string) string {
	return truncateRunes(msg, TitleFallbackRunes, "…")
}

// truncateRunes shortens s to at most limit runes, appending marker only when
// something was cut.
func truncateRunes(s string, limit int, marker string) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + marker
}

func findSession(all map[string]*domain.UserRecord, userID domain.UserID, personaName string, sessionID domain.SessionID) *domain.Session {
	rec, ok := all[string(userID)]
	if !ok {
		return nil
	}
	for _, sess := range rec.Sessions[personaName] {
		if sess.ID == sessionID {
			return sess
		}
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
