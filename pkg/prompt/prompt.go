// Package prompt builds and parses Llama 3 instruct-style chat prompts.
// The runtime consumes raw prompts, so the template markers here must match
// the ones the target tokenizer was trained with.
package prompt

import "strings"

// Persona is the system instruction shared by every companion prompt. It is
// identical across training, testing, and comparison so that responses stay
// comparable between the base model and the fine-tuned adapter.
const Persona = "You are a compassionate and knowledgeable Ketamine Therapy Companion AI assistant."

// Llama 3 instruct template markers.
const (
	BeginMarker    = "<|begin_of_text|>"
	TurnTerminator = "<|eot_id|>"

	headerOpen  = "<|start_header_id|>"
	headerClose = "<|end_header_id|>"
)

// Conversation roles recognized by the template.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AssistantMarker is the assistant turn header. Generation prompts end with
// it so the model continues from the assistant position; ExtractResponse
// splits decoded output on it.
const AssistantMarker = headerOpen + RoleAssistant + headerClose

func header(role string) string {
	return headerOpen + role + headerClose + "\n\n"
}

// Format assembles a single-turn chat prompt. With assistantText empty the
// prompt ends at the assistant header and the model is expected to produce
// the continuation (generation mode). With assistantText set, the assistant
// turn and its terminator are appended (training label mode).
//
// contextText is optional: when empty, no Context line is emitted at all.
func Format(personaText, contextText, userText, assistantText string) string {
	var b strings.Builder

	b.WriteString(BeginMarker)
	b.WriteString(header(RoleSystem))
	b.WriteString(personaText)
	if contextText != "" {
		b.WriteString("\nContext: ")
		b.WriteString(contextText)
	}
	b.WriteString(TurnTerminator)

	b.WriteString(header(RoleUser))
	b.WriteString(userText)
	b.WriteString(TurnTerminator)

	b.WriteString(header(RoleAssistant))
	if assistantText != "" {
		b.WriteString(assistantText)
		b.WriteString(TurnTerminator)
	}

	return b.String()
}

// ForGeneration builds a prompt ready for model continuation.
func ForGeneration(contextText, userText string) string {
	return Format(Persona, contextText, userText, "")
}

// ForTraining builds a fully labelled prompt for one training example.
func ForTraining(contextText, userText, assistantText string) string {
	return Format(Persona, contextText, userText, assistantText)
}

// ExtractResponse isolates the assistant reply from decoded model output.
// It takes everything after the last occurrence of the assistant header,
// drops a trailing turn terminator if the runtime left one in, and trims
// surrounding whitespace. The last occurrence wins because the marker can
// also appear verbatim inside user-supplied text earlier in the prompt.
// If the marker is absent the trimmed input is returned unchanged.
func ExtractResponse(decoded string) string {
	idx := strings.LastIndex(decoded, AssistantMarker)
	if idx == -1 {
		return strings.TrimSpace(decoded)
	}

	tail := decoded[idx+len(AssistantMarker):]
	if end := strings.Index(tail, TurnTerminator); end >= 0 {
		tail = tail[:end]
	}
	return strings.TrimSpace(tail)
}
