package llm

import (
	"fmt"
	"strings"

	"github.com/commaworks/comma/internal/domain"
)

// TitlePrompt asks for a short noun-phrase title for a session's first
// user message.
func TitlePrompt(firstUserMessage string) string {
	return fmt.Sprintf("'%s'를 10자 이내의 명사형 제목으로 요약해줘. 제목만 출력해.", firstUserMessage)
}

// GardenPrompt asks for the end-of-session analysis as a JSON object with
// summary, emotion, color and mission fields.
func GardenPrompt(messages []domain.Message) string {
	var b strings.Builder
	b.WriteString("다음 대화를 읽고 JSON 객체 하나로만 답해줘. 필드: ")
	b.WriteString(`"summary"(한 문장 격려 요약), "emotion"(감정 단어 하나), `)
	b.WriteString(`"color"(감정에 어울리는 HEX 색상), "mission"(오늘 해볼 작은 행동 하나).`)
	b.WriteString("\n\n대화:\n")
	b.WriteString(Transcript(messages))
	return b.String()
}

// RelationPrompt asks for the third-party psychology analysis as a JSON
// object with hidden_mind, reason and advice fields.
func RelationPrompt(target, situation string) string {
	return fmt.Sprintf(
		"[%s]의 행동 [%s]에 대해 JSON 객체 하나로만 분석해줘. 필드: "+
			`"hidden_mind"(그 사람의 속마음), "reason"(그렇게 행동한 원인), `+
			`"advice"(내가 할 수 있는 대처법).`,
		target, situation,
	)
}

// Transcript flattens messages into "role: content" lines for analysis
// prompts.
func Transcript(messages []domain.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, string(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
