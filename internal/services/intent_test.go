package services

import (
	"strings"
	"testing"
)

func TestCoerceIntent(t *testing.T) {
	cases := []struct {
		raw  string
		want Intent
	}{
		{"explain_detail", IntentExplainDetail},
		{"  Explain_Detail \n", IntentExplainDetail},
		{"teach from start", IntentTeachFromStart},
		{"GENERATE_QUESTIONS", IntentGenerateQuestions},
		{"revise", IntentRevise},
		{"summarize", IntentExplainTopic},
		{"", IntentExplainTopic},
	}
	for _, tc := range cases {
		if got := coerceIntent(tc.raw); got != tc.want {
			t.Fatalf("coerceIntent(%q): want=%s got=%s", tc.raw, tc.want, got)
		}
	}
}

func TestRenderPromptFillsPlaceholders(t *testing.T) {
	out := renderPrompt(intentClassificationPrompt, map[string]string{
		"message":      "what is a neuron",
		"subject_name": "Biology",
		"unit_title":   "The Brain",
		"topic_title":  "Neurons",
	})
	for _, want := range []string{"what is a neuron", "Biology", "The Brain", "Neurons"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered prompt missing %q", want)
		}
	}
	if strings.Contains(out, "{message}") || strings.Contains(out, "{subject_name}") {
		t.Fatalf("unfilled placeholder left in prompt: %s", out)
	}
}

func TestChatPromptTemplateDefaults(t *testing.T) {
	if chatPromptTemplate(Intent("nonsense")) != explainTopicPrompt {
		t.Fatal("unknown intent should map to the topic explanation template")
	}
	if chatPromptTemplate(IntentGenerateQuestions) != generateQuestionsPrompt {
		t.Fatal("generate_questions should map to its own template")
	}
}
