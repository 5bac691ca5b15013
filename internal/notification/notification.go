// Package notification stores and fans out in-app notifications for
// patients, dentists and the assistant team.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type tags the event a notification was raised for.
type Type string

const (
	TypeAppointmentRequest   Type = "appointment_request"
	TypeAppointmentConfirmed Type = "appointment_confirmed"
	TypeNewAppointment       Type = "new_appointment"
	TypeStatusChanged        Type = "appointment_status_changed"
	TypeAppointmentCancelled Type = "appointment_cancelled"
	TypeRequestDeclined      Type = "appointment_request_declined"
)

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type Notification struct {
	ID          uuid.UUID  `json:"id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Type        Type       `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	RelatedID   *uuid.UUID `json:"related_id,omitempty"`
	Priority    Priority   `json:"priority"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Content is the recipient independent part of a notification.
type Content struct {
	Title     string
	Message   string
	RelatedID uuid.UUID
	Priority  Priority
}

// Sink persists or publishes a single notification.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// AssistantDirectory lists every assistant that should see staff-wide notifications.
type AssistantDirectory interface {
	ListAssistantIDs(ctx context.Context) ([]uuid.UUID, error)
}

var ErrNoRecipient = errors.New("notification recipient is required")

type Dispatcher struct {
	sink       Sink
	assistants AssistantDirectory
	now        func() time.Time
}

func NewDispatcher(sink Sink, assistants AssistantDirectory) *Dispatcher {
	return &Dispatcher{
		sink:       sink,
		assistants: assistants,
		now:        time.Now,
	}
}

// Notify delivers one notification to one recipient.
func (d *Dispatcher) Notify(ctx context.Context, recipientID uuid.UUID, typ Type, c Content) error {
	if recipientID == uuid.Nil {
		return ErrNoRecipient
	}

	n := Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Type:        typ,
		Title:       c.Title,
		Message:     c.Message,
		Priority:    c.Priority,
		CreatedAt:   d.now(),
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	if c.RelatedID != uuid.Nil {
		related := c.RelatedID
		n.RelatedID = &related
	}

	if err := d.sink.Deliver(ctx, n); err != nil {
		return fmt.Errorf("deliver %s to %s: %w", typ, recipientID, err)
	}
	return nil
}

// NotifyAssistants fans a notification out to every assistant. A failed
// delivery does not stop the remaining ones; all failures are joined.
func (d *Dispatcher) NotifyAssistants(ctx context.Context, typ Type, c Content) error {
	ids, err := d.assistants.ListAssistantIDs(ctx)
	if err != nil {
		return fmt.Errorf("list assistants: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if err := d.Notify(ctx, id, typ, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
