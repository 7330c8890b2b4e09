// Package httpadapter exposes the core operations over HTTP. It is a thin
// presentation shim: all invariants live in the services it fronts.
package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/commaworks/comma/internal/app/conversation"
	"github.com/commaworks/comma/internal/app/garden"
	"github.com/commaworks/comma/internal/app/relation"
	"github.com/commaworks/comma/internal/domain"
	"github.com/commaworks/comma/internal/persona"
)

type Server struct {
	conv     *conversation.Service
	relation *relation.Service
	garden   *garden.Service
	catalog  *persona.Catalog
}

func NewServer(conv *conversation.Service, rel *relation.Service, grd *garden.Service, catalog *persona.Catalog) http.Handler {
	s := &Server{
		conv:     conv,
		relation: rel,
		garden:   grd,
		catalog:  catalog,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /personas", s.handlePersonas)

	mux.HandleFunc("POST /users/{user}/personas/{persona}/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /users/{user}/personas/{persona}/sessions", s.handleListSessions)
	mux.HandleFunc("GET /users/{user}/personas/{persona}/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /users/{user}/personas/{persona}/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /users/{user}/personas/{persona}/sessions/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("POST /users/{user}/personas/{persona}/sessions/{id}/complete", s.handleCompleteSession)
	mux.HandleFunc("PUT /users/{user}/personas/{persona}/sessions/{id}/context", s.handleSetContext)

	mux.HandleFunc("POST /analysis", s.handleAnalysis)
	mux.HandleFunc("GET /users/{user}/garden", s.handleGarden)

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type personaResponse struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Greeting    string `json:"greeting"`
	Avatar      string `json:"avatar,omitempty"`
	Description string `json:"description,omitempty"`
}

type categoryResponse struct {
	Name     string            `json:"name"`
	Personas []personaResponse `json:"personas"`
}

type sessionResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	CreatedAt   time.Time        `json:"created_at"`
	DisplayDate string           `json:"display_date"`
	IsCompleted bool             `json:"is_completed"`
	ContextNote string           `json:"context_note,omitempty"`
	Messages    []domain.Message `json:"messages,omitempty"`
}

type sessionSummaryResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	IsCompleted bool      `json:"is_completed"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type setContextRequest struct {
	Note string `json:"note"`
}

type analysisRequest struct {
	Target    string `json:"target"`
	Situation string `json:"situation"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request) {
	var out []categoryResponse
	for _, cat := range s.catalog.Categories() {
		cr := categoryResponse{Name: cat.Name}
		for _, p := range cat.Personas {
			cr.Personas = append(cr.Personas, personaResponse{
				Name:        p.Name,
				Category:    p.Category,
				Greeting:    p.Greeting,
				Avatar:      p.Avatar,
				Description: p.Description,
			})
		}
		out = append(out, cr)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserID(r.PathValue("user"))
	personaName := r.PathValue("persona")

	sess, err := s.conv.CreateSession(r.Context(), userID, personaName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(sess, true))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserID(r.PathValue("user"))
	personaName := r.PathValue("persona")

	summaries, err := s.conv.ListSessions(r.Context(), userID, personaName)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]sessionSummaryResponse, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, sessionSummaryResponse{
			ID:          string(sum.ID),
			Title:       sum.Title,
			CreatedAt:   sum.CreatedAt,
			IsCompleted: sum.IsCompleted,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.conv.GetSession(r.Context(),
		domain.UserID(r.PathValue("user")),
		r.PathValue("persona"),
		domain.SessionID(r.PathValue("id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess, true))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	err := s.conv.DeleteSession(r.Context(),
		domain.UserID(r.PathValue("user")),
		r.PathValue("persona"),
		domain.SessionID(r.PathValue("id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSendMessage appends the user turn, then streams the assistant reply
// back as plain text chunks. The final message is already committed by the
// time the stream closes; a mid-stream backend failure ends the body early
// and the turn is not persisted.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserID(r.PathValue("user"))
	personaName := r.PathValue("persona")
	sessionID := domain.SessionID(r.PathValue("id"))

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	if _, err := s.conv.AppendUserMessage(r.Context(), userID, personaName, sessionID, req.Text); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	flusher, _ := w.(http.Flusher)

	_, err := s.conv.RequestAssistantReply(r.Context(), conversation.ReplyInput{
		UserID:      userID,
		PersonaName: personaName,
		SessionID:   sessionID,
		OnChunk: func(chunk string) {
			_, _ = w.Write([]byte(chunk))
			if flusher != nil {
				flusher.Flush()
			}
		},
	})
	if err != nil {
		// Headers already went out; cutting the body short is the only
		// signal left. The client treats an aborted stream as a dropped turn.
		return
	}
}

func (s *Server) handleSetContext(w http.ResponseWriter, r *http.Request) {
	var req setContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	err := s.conv.SetContextNote(r.Context(),
		domain.UserID(r.PathValue("user")),
		r.PathValue("persona"),
		domain.SessionID(r.PathValue("id")),
		req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.conv.CompleteSession(r.Context(),
		domain.UserID(r.PathValue("user")),
		r.PathValue("persona"),
		domain.SessionID(r.PathValue("id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	analysis, err := s.relation.AnalyzeOther(r.Context(), req.Target, req.Situation)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleGarden(w http.ResponseWriter, r *http.Request) {
	status, err := s.garden.Status(r.Context(), domain.UserID(r.PathValue("user")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func toSessionResponse(sess *domain.Session, withMessages bool) sessionResponse {
	out := sessionResponse{
		ID:          string(sess.ID),
		Title:       sess.Title,
		CreatedAt:   sess.CreatedAt,
		DisplayDate: sess.DisplayDate(),
		IsCompleted: sess.IsCompleted,
		ContextNote: sess.ContextNote,
	}
	if withMessages {
		out.Messages = sess.Messages
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrPersonaNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrSessionLocked), errors.Is(err, domain.ErrSessionCompleted):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
