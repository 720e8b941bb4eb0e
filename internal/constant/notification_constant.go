package constant

// NotificationType describes how an event is rendered in the learner's inbox.
// Template placeholders are payload keys in braces.
type NotificationType struct {
	Code     string
	Title    string
	Template string
}

var NotificationTypes = map[string]NotificationType{
	"ASSESSMENT_AVAILABLE": {
		Code:     "ASSESSMENT_AVAILABLE",
		Title:    "Time for a quick check",
		Template: "You finished pages {from_page} to {to_page} of {title}. Ready for a short spoken quiz?",
	},
	"ASSESSMENT_COMPLETED": {
		Code:     "ASSESSMENT_COMPLETED",
		Title:    "Assessment complete",
		Template: "You scored {score} out of 100.",
	},
}
