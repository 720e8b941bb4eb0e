package tutor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var markdownImage = regexp.MustCompile(`!\[[^\]]*\]\((https?://[^)\s]+)\)`)

// extractJSON isolates the outermost JSON object in a model reply.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

func parseQuestions(response string, count int) ([]string, error) {
	content := extractJSON(response)
	if content == "" {
		return nil, fmt.Errorf("%w: no JSON found", ErrMalformedResponse)
	}

	var out struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	questions := make([]string, 0, len(out.Questions))
	for _, q := range out.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if count > 0 && len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

func parseEvaluation(response string, questions int) (*Evaluation, error) {
	content := extractJSON(response)
	if content == "" {
		return nil, fmt.Errorf("%w: no JSON found", ErrMalformedResponse)
	}

	var eval Evaluation
	if err := json.Unmarshal([]byte(content), &eval); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	eval.Score = clampScore(eval.Score)
	eval.Feedback = strings.TrimSpace(eval.Feedback)

	breakdown := eval.Breakdown[:0]
	for _, qs := range eval.Breakdown {
		if qs.QuestionIndex < 0 || qs.QuestionIndex >= questions {
			continue
		}
		qs.Score = clampScore(qs.Score)
		breakdown = append(breakdown, qs)
	}
	eval.Breakdown = breakdown

	return &eval, nil
}

// splitImageRef pulls the first markdown image URL out of an answer.
func splitImageRef(answer string) (string, string) {
	m := markdownImage.FindStringSubmatchIndex(answer)
	if m == nil {
		return strings.TrimSpace(answer), ""
	}
	ref := answer[m[2]:m[3]]
	text := answer[:m[0]] + answer[m[1]:]
	return strings.TrimSpace(text), ref
}

func clampScore(s int) int {
	return max(0, min(100, s))
}
