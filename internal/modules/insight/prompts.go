package insight

import (
	"fmt"
	"strings"

	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/models"
)

const (
	correctionTemperature = 0.2
	analysisTemperature   = 0.5
)

const correctionSystemPrompt = `You are a meticulous meeting-transcript corrector. You receive a raw, automatically transcribed meeting transcript together with context about the meeting. Produce a corrected version of the transcript, applying these priorities in order:

1. Fix misrecognized words using the meeting context (subject, keywords, speakers, terminology) to resolve ambiguity.
2. Consolidate fragmented speaker turns: merge consecutive fragments by the same speaker into one coherent turn.
3. Clean up sentence boundaries: add punctuation and break run-on passages into readable sentences.
4. Remove filler and disfluencies (false starts, repeated words) while preserving natural speech particles that carry meaning or tone.
5. Simplify timestamps: keep at most one timestamp per speaking turn, dropping intra-turn timestamps.

Output only the corrected transcript. Do not summarize, annotate, or add commentary.`

const analysisSystemPrompt = `You are an expert meeting-insight analyst. You receive a corrected meeting transcript and a specific analysis task. Ground every claim in the transcript. Answer in the same language the transcript is written in. Format your entire answer as Markdown.`

// Metadata carries the free-text context fields interpolated into the
// correction prompt. Values pass through verbatim, no escaping beyond
// JSON transport encoding.
type Metadata struct {
	Subject      string
	Keywords     string
	Speakers     string
	Terminology  string
	TargetLength string
}

func MetadataFromMeeting(m *models.MeetingModel) Metadata {
	return Metadata{
		Subject:      m.Subject,
		Keywords:     m.Keywords,
		Speakers:     m.Speakers,
		Terminology:  m.Terminology,
		TargetLength: m.TargetLength,
	}
}

// BuildCorrectionRequest assembles the single-turn correction call.
func BuildCorrectionRequest(meta Metadata, rawTranscript string) (string, []GatewayMessage) {
	var b strings.Builder
	b.WriteString("Meeting context:\n")
	fmt.Fprintf(&b, "- Subject: %s\n", orNone(meta.Subject))
	fmt.Fprintf(&b, "- Keywords: %s\n", orNone(meta.Keywords))
	fmt.Fprintf(&b, "- Speakers: %s\n", orNone(meta.Speakers))
	fmt.Fprintf(&b, "- Terminology: %s\n", orNone(meta.Terminology))
	fmt.Fprintf(&b, "- Target length: %s\n", orNone(meta.TargetLength))
	b.WriteString("\nRaw transcript:\n")
	b.WriteString(rawTranscript)

	return correctionSystemPrompt, []GatewayMessage{{Role: "user", Content: b.String()}}
}

// seedUserMessage is the transcript-bearing user turn that opens every
// analysis thread. It is sent on the first call and synthesized again for
// history replay, but never stored as a chat message.
func seedUserMessage(correctedTranscript string, spec ModuleSpec) string {
	var b strings.Builder
	b.WriteString("Corrected meeting transcript:\n")
	b.WriteString(correctedTranscript)
	b.WriteString("\n\n")
	b.WriteString(spec.Task)
	return b.String()
}

// BuildAnalysisRequest assembles the first turn of a fresh analysis thread.
func BuildAnalysisRequest(correctedTranscript string, spec ModuleSpec) (string, []GatewayMessage) {
	return analysisSystemPrompt, []GatewayMessage{
		{Role: "user", Content: seedUserMessage(correctedTranscript, spec)},
	}
}

// BuildChatRequest replays an analysis thread's history for a follow-up
// turn. Stored threads open with the model's result because the seeding
// user turn was never persisted, so when history starts with a model
// message the seed is synthesized and prepended again. Without it the
// model loses the transcript from the second turn on.
func BuildChatRequest(correctedTranscript string, spec ModuleSpec, history []models.ChatMessageModel) (string, []GatewayMessage) {
	messages := make([]GatewayMessage, 0, len(history)+1)
	if len(history) > 0 && history[0].Role == models.RoleModel {
		messages = append(messages, GatewayMessage{
			Role:    "user",
			Content: seedUserMessage(correctedTranscript, spec),
		})
	}
	for _, m := range history {
		messages = append(messages, GatewayMessage{
			Role:    gatewayRole(m.Role),
			Content: m.Content,
		})
	}
	return analysisSystemPrompt, messages
}

func gatewayRole(stored string) string {
	if stored == models.RoleModel {
		return "assistant"
	}
	return "user"
}

func orNone(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(not provided)"
	}
	return v
}
