package event

const RequestQueue string = "request_events"

type RequestEvent struct {
	ID          string           `json:"id"`
	EventType   RequestEventType `json:"event_type"`
	UserID      string           `json:"user_id"`
	UserPhone   string           `json:"user_phone"`
	RequestID   string           `json:"request_id"`
	RequestType string           `json:"request_type"`
	Additional  map[string]any   `json:"additional"`
}

type RequestEventType string

const (
	RequestCreated       RequestEventType = "request_created"
	RequestStatusChanged RequestEventType = "request_status_changed"
)
