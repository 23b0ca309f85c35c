package notify

import (
	"encoding/json"
	"fmt"

	"tableflip.dev/zeit/pkg/entry"
)

// Event types pushed by the server.
const (
	TimerStarted   = "timer_started"
	TimerStopped   = "timer_stopped"
	EntryCreated   = "entry_created"
	EntryUpdated   = "entry_updated"
	EntryDeleted   = "entry_deleted"
	ProjectCreated = "project_created"
	ProjectUpdated = "project_updated"
	ProjectDeleted = "project_deleted"

	// Any subscribes a handler to every event.
	Any = "*"
)

// Event is one frame from the channel.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decode unmarshals the event data into v.
func (e Event) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%s: %w", e.Type, err)
	}
	return nil
}

// TimerStartedData is the payload of timer_started.
type TimerStartedData struct {
	ID          int             `json:"id"`
	Project     string          `json:"project"`
	Description string          `json:"description"`
	StartTime   entry.Timestamp `json:"start_time"`
}

// TimerStoppedData is the payload of timer_stopped.
type TimerStoppedData struct {
	ID       int             `json:"id"`
	Duration float64         `json:"duration"`
	EndTime  entry.Timestamp `json:"end_time"`
}

// EntryChangedData is the payload of entry_created, entry_updated and
// entry_deleted. Deletions carry only the id.
type EntryChangedData struct {
	ID          int     `json:"id"`
	Project     string  `json:"project"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
}

// ProjectChangedData is the payload of the project events. Deletions carry
// only the id.
type ProjectChangedData struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Color          string `json:"color"`
	OldName        string `json:"old_name"`
	UpdatedEntries int    `json:"updated_entries"`
}
