// Package visit tracks one visitor's navigation state: which view is active
// and the context that view needs (selected persona, active session, pending
// transfer payload, pending reward). A State is created at visit start and
// discarded at visit end; it is never shared across visits and never
// persisted.
package visit

import (
	"strings"

	"github.com/google/uuid"

	"github.com/commaworks/comma/internal/domain"
)

// View identifies a screen.
type View string

const (
	ViewSplash   View = "SPLASH"
	ViewHome     View = "HOME"
	ViewList     View = "LIST"
	ViewChat     View = "CHAT"
	ViewGarden   View = "GARDEN"
	ViewRelation View = "RELATION"
)

// State is the per-visit session/navigation machine. The splash view is left
// exactly once; after that navigation moves among the five main views with
// guards that redirect instead of erroring when required context is missing.
type State struct {
	userID domain.UserID

	view       View
	splashDone bool

	selectedCategory string
	selectedPersona  string
	currentSessionID domain.SessionID

	transferSituation string
	pendingReward     *domain.RewardArtifact
}

// NewState starts a visit on the splash view. An empty userID gets a fresh
// anonymous identifier, so an unidentified visitor still owns durable state
// for the duration of the visit.
func NewState(userID domain.UserID) *State {
	if userID == "" {
		userID = AnonymousUserID()
	}
	return &State{
		userID: userID,
		view:   ViewSplash,
	}
}

// AnonymousUserID generates a visitor identifier in the stored-data format.
func AnonymousUserID() domain.UserID {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return domain.UserID("User_" + raw[:8])
}

func (s *State) UserID() domain.UserID { return s.userID }
func (s *State) View() View            { return s.view }

func (s *State) SelectedPersona() (category, name string) {
	return s.selectedCategory, s.selectedPersona
}

func (s *State) CurrentSessionID() domain.SessionID { return s.currentSessionID }

// EnterMain leaves the splash screen. One-way: later calls are no-ops and
// splash is never revisited.
func (s *State) EnterMain() View {
	if !s.splashDone {
		s.splashDone = true
		s.view = ViewHome
	}
	return s.view
}

// Navigate moves to the requested view, applying the entry guards: CHAT
// without an active session falls back to LIST, and LIST or CHAT without a
// selected persona falls back to HOME. Navigating before EnterMain keeps the
// splash. Leaving the garden discards any pending reward.
func (s *State) Navigate(target View) View {
	if !s.splashDone {
		return s.view
	}

	switch target {
	case ViewChat:
		if s.selectedPersona == "" {
			target = ViewHome
		} else if s.currentSessionID == "" {
			target = ViewList
		}
	case ViewList:
		if s.selectedPersona == "" {
			target = ViewHome
		}
	case ViewHome, ViewGarden, ViewRelation:
		// always reachable
	default:
		return s.view
	}

	if s.view == ViewGarden && target != ViewGarden {
		s.pendingReward = nil
	}
	s.view = target
	return s.view
}

// SelectPersona records the picker choice and moves to the session list.
func (s *State) SelectPersona(category, name string) View {
	s.selectedCategory = category
	s.selectedPersona = name
	s.currentSessionID = ""
	return s.Navigate(ViewList)
}

// OpenSession activates a session and moves to chat.
func (s *State) OpenSession(id domain.SessionID) View {
	s.currentSessionID = id
	return s.Navigate(ViewChat)
}

// LeaveSession clears the active session and returns to the list.
func (s *State) LeaveSession() View {
	s.currentSessionID = ""
	return s.Navigate(ViewList)
}

// SessionDeleted drops the active-session reference when the deleted session
// was the one on screen.
func (s *State) SessionDeleted(id domain.SessionID) {
	if s.currentSessionID == id {
		s.currentSessionID = ""
	}
}

// FinishSession routes to the garden holding the completed session's reward
// for display. The reward lives only until the garden is left.
func (s *State) FinishSession(artifact *domain.RewardArtifact) View {
	s.currentSessionID = ""
	s.pendingReward = artifact
	return s.Navigate(ViewGarden)
}

// PendingReward returns the artifact to render on the garden screen, if any.
func (s *State) PendingReward() *domain.RewardArtifact {
	return s.pendingReward
}

// AcceptRelationShortcut routes to the relation view carrying the chat text
// that triggered the cue.
func (s *State) AcceptRelationShortcut(situation string) View {
	s.transferSituation = situation
	return s.Navigate(ViewRelation)
}

// TakeTransfer consumes the transfer payload; a second call returns empty.
func (s *State) TakeTransfer() string {
	out := s.transferSituation
	s.transferSituation = ""
	return out
}
