package services

import "strings"

// Intent is the closed set of chat intents. Anything the classifier
// produces outside this set is coerced to IntentExplainTopic.
type Intent string

const (
	IntentTeachFromStart    Intent = "teach_from_start"
	IntentExplainTopic      Intent = "explain_topic"
	IntentExplainDetail     Intent = "explain_detail"
	IntentRevise            Intent = "revise"
	IntentGenerateQuestions Intent = "generate_questions"
)

var validIntents = map[Intent]bool{
	IntentTeachFromStart:    true,
	IntentExplainTopic:      true,
	IntentExplainDetail:     true,
	IntentRevise:            true,
	IntentGenerateQuestions: true,
}

// coerceIntent normalizes raw classifier output into the closed set.
func coerceIntent(raw string) Intent {
	normalized := Intent(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_"))
	if validIntents[normalized] {
		return normalized
	}
	return IntentExplainTopic
}
