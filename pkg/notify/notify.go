// Package notify surfaces outcomes to the user: a transient alert banner,
// a blocking modal, and a bounded log feed.
package notify

import (
	"fmt"
	"time"
)

// Severity tags alerts and log entries.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IsError reports whether the severity should be styled as a failure.
func (s Severity) IsError() bool {
	return s == SeverityError || s == SeverityWarning
}

// Notifier is the capability the controllers report through.
type Notifier interface {
	// Notify shows a transient alert.
	Notify(sev Severity, message string)

	// Log appends a persistent log entry.
	Log(sev Severity, message string)

	// Block shows a modal that the user cannot dismiss.
	Block(message string)
}

// Entry is one line of the log feed.
type Entry struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// String renders the entry as "[15:04:05] message".
func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}

// EventType identifies what changed in a published Event.
type EventType string

const (
	EventAlert       EventType = "alert"
	EventAlertHidden EventType = "alert_hidden"
	EventLog         EventType = "log"
	EventModal       EventType = "modal"
)

// Event is broadcast to connected clients whenever the notification
// surface changes.
type Event struct {
	Type  EventType   `json:"type"`
	Alert *AlertState `json:"alert,omitempty"`
	Entry *Entry      `json:"entry,omitempty"`
	Modal string      `json:"modal,omitempty"`
}

// Publisher fans events out to observers, typically a websocket hub.
type Publisher interface {
	BroadcastJSON(v interface{}) error
}
