package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventTicketCreated       EventType = "TICKET_CREATED"
	EventTicketUpdated       EventType = "TICKET_UPDATED"
	EventCommentAdded        EventType = "COMMENT_ADDED"
	EventNotificationCreated EventType = "NOTIFICATION_CREATED"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type     EventType   `json:"type"`
	Payload  interface{} `json:"payload"`
	TicketID int64       `json:"ticketId"` // Used for routing to specific ticket "rooms"
}
