package tutor

import (
	"fmt"
	"strings"

	"ai-reading-be/pkg/annotation"
)

const (
	tutorSystemPromptV1 = `You are a patient tutor for a %s student reading %s, chapter "%s".
Explain at the level of that class. Use short paragraphs and plain words.
Never invent facts that are not part of the topic. If the selection is unreadable, say so in one sentence.`

	questionPromptV1 = `Write %d short oral quiz questions about the chapter "%s" of %s for a %s student.
Each question must be answerable in one or two spoken sentences.

Respond with ONLY valid JSON:
{"questions": ["question one", "question two"]}`

	evaluationPromptV1 = `Grade a spoken quiz for a %s student on %s, chapter "%s".
Score every answer from 0 to 100, then give an overall score from 0 to 100 and two sentences of encouraging feedback.

%s
Respond with ONLY valid JSON:
{"score": 80, "feedback": "...", "breakdown": [{"question_index": 0, "score": 80, "feedback": "..."}]}`
)

var actionInstructions = map[annotation.Action]string{
	annotation.ActionDefine:    "Give a precise definition of the selected term or idea.",
	annotation.ActionElaborate: "Elaborate on the selection, adding the missing background.",
	annotation.ActionVisualize: "Describe a simple diagram that shows the selection. If a public image URL fits, add it as a markdown image.",
	annotation.ActionSimplify:  "Rewrite the selection in simpler words.",
	annotation.ActionMeaning:   "Explain what the selection means in context.",
	annotation.ActionExample:   "Give one concrete, everyday example of the selection.",
	annotation.ActionStory:     "Tell a very short story that makes the selection memorable.",
	annotation.ActionSummary:   "Summarize the selection in at most three sentences.",
}

func systemPrompt(t Topic) string {
	return fmt.Sprintf(tutorSystemPromptV1, orDefault(t.ClassLevel, "school"), orDefault(t.Subject, "a textbook"), orDefault(t.Chapter, "unknown"))
}

func questionPrompt(t Topic, count int) string {
	return fmt.Sprintf(questionPromptV1, count, orDefault(t.Chapter, "unknown"), orDefault(t.Subject, "the textbook"), orDefault(t.ClassLevel, "school"))
}

func evaluationPrompt(b Batch) string {
	var qa strings.Builder
	for i, q := range b.Questions {
		answer := ""
		if i < len(b.Answers) {
			answer = b.Answers[i]
		}
		fmt.Fprintf(&qa, "Question %d: %s\nAnswer %d: %s\n\n", i, q, i, answer)
	}
	return fmt.Sprintf(evaluationPromptV1, orDefault(b.Topic.ClassLevel, "school"), orDefault(b.Topic.Subject, "the textbook"), orDefault(b.Topic.Chapter, "unknown"), qa.String())
}

func actionPrompt(req AIActionRequest) string {
	var prompt strings.Builder
	prompt.WriteString(actionInstructions[req.Action])
	prompt.WriteString("\n\n")
	if req.Text != "" {
		prompt.WriteString("Selection:\n")
		prompt.WriteString(req.Text)
		prompt.WriteString("\n")
	}
	if len(req.Image) > 0 {
		prompt.WriteString("The selection is the attached image cut from the page.\n")
	}
	return prompt.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
