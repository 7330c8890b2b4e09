package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	httpadapter "github.com/commaworks/comma/internal/adapters/http"
	"github.com/commaworks/comma/internal/adapters/llm"
	"github.com/commaworks/comma/internal/adapters/storage/memory"
	"github.com/commaworks/comma/internal/app/conversation"
	"github.com/commaworks/comma/internal/app/garden"
	"github.com/commaworks/comma/internal/app/relation"
	"github.com/commaworks/comma/internal/persona"
)

func newTestServer(t *testing.T) (http.Handler, *llm.MockLLM) {
	t.Helper()

	mock := llm.NewMockLLM()
	store := memory.NewStore()
	catalog := persona.Default()

	convSvc := conversation.NewService(mock, store, catalog, 0)
	relSvc := relation.NewService(mock, nil)
	gardenSvc := garden.NewService(store)

	return httpadapter.NewServer(convSvc, relSvc, gardenSvc, catalog), mock
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestPersonaCatalogEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/personas", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var categories []struct {
		Name     string `json:"name"`
		Personas []struct {
			Name string `json:"name"`
		} `json:"personas"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &categories); err != nil {
		t.Fatalf("decoding personas: %v", err)
	}
	if len(categories) == 0 || len(categories[0].Personas) == 0 {
		t.Fatalf("expected a populated catalog, got %s", w.Body.String())
	}
}

func TestChatFlowOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	base := "/users/User_http0001/personas/" + url.PathEscape("정신과 의사") + "/sessions"

	// Create a session.
	req := httptest.NewRequest(http.MethodPost, base, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}

	var created struct {
		ID       string `json:"id"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding created session: %v", err)
	}
	if created.ID == "" || len(created.Messages) != 1 {
		t.Fatalf("expected greeting-seeded session, got %s", w.Body.String())
	}

	// Send a message; the body is the streamed assistant reply.
	body := []byte(`{"text":"요즘 스트레스가 심해요"}`)
	req = httptest.NewRequest(http.MethodPost, base+"/"+created.ID+"/messages", bytes.NewReader(body))
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("send: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
	if w.Body.Len() == 0 {
		t.Fatal("expected streamed reply text in body")
	}

	// List shows the one session, title no longer the default.
	req = httptest.NewRequest(http.MethodGet, base, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var summaries []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decoding summaries: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != created.ID {
		t.Fatalf("expected the created session listed, got %s", w.Body.String())
	}

	// Complete: greeting + user + reply = 3 messages, threshold met.
	req = httptest.NewRequest(http.MethodPost, base+"/"+created.ID+"/complete", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
	var artifact struct {
		Summary          string `json:"summary"`
		EarnedExperience int    `json:"earned_experience"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &artifact); err != nil {
		t.Fatalf("decoding artifact: %v", err)
	}
	if artifact.EarnedExperience != 9 {
		t.Fatalf("expected 9 earned exp, got %d", artifact.EarnedExperience)
	}

	// Completing again conflicts.
	req = httptest.NewRequest(http.MethodPost, base+"/"+created.ID+"/complete", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("re-complete: expected 409, got %d", w.Code)
	}

	// Garden reflects the award.
	req = httptest.NewRequest(http.MethodGet, "/users/User_http0001/garden", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("garden: expected 200, got %d", w.Code)
	}
	var status struct {
		TotalExperience int `json:"total_experience"`
		Level           struct {
			Tier int `json:"tier"`
		} `json:"level"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding garden status: %v", err)
	}
	if status.TotalExperience != 9 || status.Level.Tier != 0 {
		t.Fatalf("unexpected garden status: %s", w.Body.String())
	}
}

func TestAnalysisEndpointValidatesInput(t *testing.T) {
	srv, mock := newTestServer(t)

	body := []byte(`{"target":"","situation":"동생이 연락을 피해요"}`)
	req := httptest.NewRequest(http.MethodPost, "/analysis", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if mock.Calls() != 0 {
		t.Fatalf("expected zero backend calls, got %d", mock.Calls())
	}
}

func TestSetContextEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	base := "/users/User_http0003/personas/" + url.PathEscape("소크라테스") + "/sessions"

	req := httptest.NewRequest(http.MethodPost, base, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", w.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding created session: %v", err)
	}

	body := []byte(`{"note":"저는 대학원생이에요"}`)
	req = httptest.NewRequest(http.MethodPut, base+"/"+created.ID+"/context", bytes.NewReader(body))
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("set context: expected 204, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPut, base+"/missing/context", bytes.NewReader(body))
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("set context on missing session: expected 404, got %d", w.Code)
	}
}

func TestDeleteSessionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	base := "/users/User_http0002/personas/" + url.PathEscape("부처님") + "/sessions"

	req := httptest.NewRequest(http.MethodPost, base, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", w.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding created session: %v", err)
	}

	req = httptest.NewRequest(http.MethodDelete, base+"/"+created.ID, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, base+"/"+created.ID, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}
}
