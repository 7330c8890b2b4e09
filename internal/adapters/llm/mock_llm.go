package llm

import (
	"context"
	"iter"

	"github.com/commaworks/comma/internal/domain"
)

// MockLLM is a canned backend for local development and tests. Every call is
// counted so tests can assert how often (or that never) the backend was hit,
// and Err makes all calls fail to exercise the fallback paths.
type MockLLM struct {
	Reply string
	Text  string
	JSON  []byte
	Err   error

	StreamCalls int
	TextCalls   int
	JSONCalls   int

	// LastPersona is the persona passed to the most recent StreamReply call,
	// instruction overrides included.
	LastPersona domain.Persona
}

func NewMockLLM() *MockLLM {
	return &MockLLM{
		Reply: "그랬군요. 그 이야기를 조금 더 들려주시겠어요?",
		Text:  "마음 기록",
		JSON:  []byte(`{"summary":"오늘도 잘 버텼어요","emotion":"안도","color":"#A5D6A7","mission":"따뜻한 차 한 잔"}`),
	}
}

// Calls returns the total number of backend invocations.
func (m *MockLLM) Calls() int {
	return m.StreamCalls + m.TextCalls + m.JSONCalls
}

func (m *MockLLM) StreamReply(
	ctx context.Context,
	persona domain.Persona,
	history []domain.Message,
	userMessage string,
) iter.Seq2[string, error] {
	m.StreamCalls++
	m.LastPersona = persona
	return func(yield func(string, error) bool) {
		if m.Err != nil {
			yield("", m.Err)
			return
		}
		// Yield word by word so consumers see more than one chunk.
		words := splitChunks(m.Reply)
		for i, w := range words {
			if i > 0 {
				w = " " + w
			}
			if !yield(w, nil) {
				return
			}
		}
	}
}

func (m *MockLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.TextCalls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

func (m *MockLLM) GenerateJSON(ctx context.Context, prompt string) ([]byte, error) {
	m.JSONCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.JSON, nil
}

func splitChunks(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}
