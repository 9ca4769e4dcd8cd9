// Package notify publishes committed change sets to in-process subscribers
// and Redis.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// Notifier receives the change set of a committed transaction.
type Notifier interface {
	Notify(ctx context.Context, changes []domain.Change) error
}

// Event is the wire form of one committed change.
type Event struct {
	Entity domain.EntityType `json:"entity"`
	Action domain.Action     `json:"action"`
	ID     string            `json:"id"`
	At     time.Time         `json:"at"`
	Data   json.RawMessage   `json:"data,omitempty"`
}

// EventsFromChanges converts changes to events stamped with at. Deletes carry
// the last known state.
func EventsFromChanges(changes []domain.Change, at time.Time) []Event {
	events := make([]Event, 0, len(changes))
	for _, change := range changes {
		payload := change.After
		if payload.IsEmpty() {
			payload = change.Before
		}
		ev := Event{Entity: change.Entity, Action: change.Action, At: at}
		if !payload.IsEmpty() {
			ev.Data = payload.Raw()
			var ref struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(ev.Data, &ref); err == nil {
				ev.ID = ref.ID
			}
		}
		events = append(events, ev)
	}
	return events
}

// Multi fans a change set out to several notifiers and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, changes []domain.Change) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, changes); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
