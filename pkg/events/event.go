package events

import "time"

// Event is what travels over the reader bus. The type code doubles as the NATS subject
// suffix and as the notification type.
type Event interface {
	EventType() string
	// Payload only holds JSON friendly values; numbers come back as float64 after a hop
	// through NATS, so read them with Int.
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func newEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Int reads a numeric payload field whether it was built in process or decoded from JSON.
func Int(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func String(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}
