// Package relation extracts "third-party psychology" analysis from free-text
// descriptions of someone else's behavior, and hosts the lexical cue that
// offers a shortcut into it from chat.
package relation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/commaworks/comma/internal/adapters/llm"
	"github.com/commaworks/comma/internal/domain"
	"github.com/commaworks/comma/internal/observability"
)

// DefaultKeywords is the relationship-cue lexicon: family terms, relational
// terms and conflict verbs. A substring hit on any of them offers the
// analysis shortcut. This is a heuristic, not a classifier; false positives
// and negatives are acceptable.
var DefaultKeywords = []string{
	// family
	"엄마", "아빠", "부모님", "언니", "오빠", "누나", "동생", "가족",
	// relations
	"친구", "남친", "여친", "남자친구", "여자친구", "애인", "상사", "동료", "회사", "선배", "후배",
	// conflict
	"싸웠", "싸움", "다퉜", "갈등", "짜증", "서운", "화났", "미워",
	// english equivalents
	"mom", "dad", "friend", "boyfriend", "girlfriend", "boss", "coworker", "family", "fight", "argued",
}

// FallbackAnalysis is returned whenever the backend cannot produce one.
var FallbackAnalysis = domain.OtherAnalysis{
	HiddenMind: "분석에 실패했어요",
	Reason:     "네트워크 오류",
	Advice:     "잠시 후 다시 시도해주세요",
}

type Service struct {
	llm      domain.LLMClient
	keywords []string
}

// NewService builds the analysis service. A nil keyword list selects
// DefaultKeywords.
func NewService(llmClient domain.LLMClient, keywords []string) *Service {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	return &Service{llm: llmClient, keywords: keywords}
}

// AnalyzeOther asks the backend what the named person's behavior may mean.
// Empty inputs are rejected before any backend call; a failing backend
// degrades to the fixed fallback instead of failing the operation.
func (s *Service) AnalyzeOther(ctx context.Context, targetName, situationText string) (*domain.OtherAnalysis, error) {
	if strings.TrimSpace(targetName) == "" {
		return nil, &domain.ValidationError{Field: "target", Reason: "target name is required"}
	}
	if strings.TrimSpace(situationText) == "" {
		return nil, &domain.ValidationError{Field: "situation", Reason: "situation text is required"}
	}

	log := observability.LoggerFromContext(ctx).With("target", targetName)

	raw, err := s.llm.GenerateJSON(ctx, llm.RelationPrompt(targetName, situationText))
	if err != nil {
		log.Warn("relation analysis failed, using fallback", "error", err)
		out := FallbackAnalysis
		return &out, nil
	}

	var parsed domain.OtherAnalysis
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Warn("relation analysis unparseable, using fallback", "error", err)
		out := FallbackAnalysis
		return &out, nil
	}

	if parsed.HiddenMind == "" {
		parsed.HiddenMind = FallbackAnalysis.HiddenMind
	}
	if parsed.Reason == "" {
		parsed.Reason = FallbackAnalysis.Reason
	}
	if parsed.Advice == "" {
		parsed.Advice = FallbackAnalysis.Advice
	}

	log.Info("relation analysis done")
	return &parsed, nil
}

// DetectRelationshipCue reports whether the text mentions any configured
// relationship or conflict keyword.
func (s *Service) DetectRelationshipCue(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range s.keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
