package realtime

import "time"

const (
	EventClipAdded      = "clip_added"
	EventTaskStatus     = "task_status"
	EventFilterModified = "filter_modified"
)

// Event represents a message sent to websocket clients and broker subscribers
type Event struct {
	Type      string                 `json:"type"`
	ProjectID *uint                  `json:"project_id,omitempty"`
	FilterID  *uint                  `json:"filter_id,omitempty"`
	ClipID    *uint                  `json:"clip_id,omitempty"`
	Task      string                 `json:"task,omitempty"`
	Status    string                 `json:"status,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// Publisher delivers events to interested parties. Publish must not block
// on slow consumers.
type Publisher interface {
	Publish(event Event)
}

// Fanout publishes every event to each of its publishers in order
type Fanout []Publisher

func (f Fanout) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	for _, p := range f {
		if p != nil {
			p.Publish(event)
		}
	}
}

// Discard is a Publisher that drops everything
type Discard struct{}

func (Discard) Publish(Event) {}

// ClipEvent builds an event about a single clip
func ClipEvent(eventType string, clipID uint) Event {
	return Event{Type: eventType, ClipID: &clipID, Timestamp: time.Now().Unix()}
}

// TaskEvent builds a task_status event for a clip task
func TaskEvent(clipID uint, task, status string, err error) Event {
	event := ClipEvent(EventTaskStatus, clipID)
	event.Task = task
	event.Status = status
	if err != nil {
		event.Error = err.Error()
	}
	return event
}

// FilterEvent builds a filter_modified event
func FilterEvent(projectID, filterID uint) Event {
	return Event{
		Type:      EventFilterModified,
		ProjectID: &projectID,
		FilterID:  &filterID,
		Timestamp: time.Now().Unix(),
	}
}
