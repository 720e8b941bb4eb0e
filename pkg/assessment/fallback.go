package assessment

import (
	"fmt"
	"strings"

	"ai-reading-be/pkg/tutor"
)

const fallbackFeedback = "Thanks for finishing the quiz. Detailed grading is not available right now, so this score is an estimate. Review the chapter and try again later."

var fallbackTemplates = []string{
	"What is the main idea of %s?",
	"Explain one important term from %s in your own words.",
	"Give an everyday example of something you read about in %s.",
	"What was the most surprising thing in %s?",
	"How would you explain %s to a friend?",
	"What question do you still have about %s?",
}

// FallbackQuestions builds count generic questions for when the tutor cannot generate any.
// The result is deterministic for a given topic and count.
func FallbackQuestions(topic tutor.Topic, count int) []string {
	count = max(count, 1)

	subject := strings.TrimSpace(topic.Chapter)
	if subject == "" {
		subject = strings.TrimSpace(topic.Subject)
	}
	if subject == "" {
		subject = "this section"
	}

	questions := make([]string, count)
	for i := range questions {
		questions[i] = fmt.Sprintf(fallbackTemplates[i%len(fallbackTemplates)], subject)
	}
	return questions
}
