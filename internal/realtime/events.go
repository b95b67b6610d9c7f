package realtime

// EventKind names a message pushed to live sessions.
type EventKind string

const (
	EventConnected      EventKind = "connected"
	EventTaskCreated    EventKind = "task_created"
	EventTaskUpdated    EventKind = "task_updated"
	EventTaskDeleted    EventKind = "task_deleted"
	EventTaskSummary    EventKind = "task_summary"
	EventTasksReordered EventKind = "tasks_reordered"
	EventPing           EventKind = "ping"
	EventPong           EventKind = "pong"
)

// Message is the frame written to a live session.
type Message struct {
	Event EventKind   `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// ClientMessage is a frame received from a live session.
type ClientMessage struct {
	Type string `json:"type"`
}
