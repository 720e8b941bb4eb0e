package events

const (
	TypePageChanged         = "READER_PAGE_CHANGED"
	TypeAssessmentAvailable = "ASSESSMENT_AVAILABLE"
	TypeAssessmentCompleted = "ASSESSMENT_COMPLETED"
)

func PageChanged(userID, documentID string, page, pageCount, lastMilestone int) BaseEvent {
	return newEvent(TypePageChanged, map[string]interface{}{
		"user_id":        userID,
		"document_id":    documentID,
		"page":           page,
		"page_count":     pageCount,
		"last_milestone": lastMilestone,
	})
}

func AssessmentAvailable(userID, documentID, title string, fromPage, toPage int) BaseEvent {
	return newEvent(TypeAssessmentAvailable, map[string]interface{}{
		"user_id":     userID,
		"document_id": documentID,
		"title":       title,
		"from_page":   fromPage,
		"to_page":     toPage,
		"entity_type": "document",
		"entity_id":   documentID,
	})
}

func AssessmentCompleted(userID, resultID, documentID string, score int, fallback bool) BaseEvent {
	return newEvent(TypeAssessmentCompleted, map[string]interface{}{
		"user_id":     userID,
		"result_id":   resultID,
		"document_id": documentID,
		"score":       score,
		"fallback":    fallback,
		"entity_type": "assessment",
		"entity_id":   resultID,
	})
}
