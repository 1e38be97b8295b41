// Package events publishes ledger changes to interested consumers.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types, also used as AMQP routing keys.
const (
	RecordCreated     = "record.created"
	RecordDeleted     = "record.deleted"
	MemberPaidUpdated = "member.paid_updated"
	WeekArchived      = "week.archived"
	RecordsPurged     = "records.purged"
)

// Event describes one change to the ledger.
type Event struct {
	Type      string    `json:"type"`
	RecordID  int64     `json:"record_id,omitempty"`
	Week      string    `json:"week,omitempty"`
	Member    string    `json:"member,omitempty"`
	Paid      *bool     `json:"paid,omitempty"`
	Count     int64     `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New returns an event of the given type stamped with the current time.
func New(eventType string) Event {
	return Event{Type: eventType, Timestamp: time.Now().UTC()}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event from JSON bytes
func FromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
