package kafka

import (
	"time"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/google/uuid"
)

const (
	EventReservationCreated   = "reservation_created"
	EventReservationConfirmed = "reservation_confirmed"
	EventReservationCancelled = "reservation_cancelled"
	EventReservationAmended   = "reservation_amended"
	EventEscalationRequested  = "escalation_requested"
)

type ReservationEvent struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	ReservationID int64     `json:"reservation_id"`
	TableID       int64     `json:"table_id,omitempty"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	PartySize     int       `json:"party_size"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewReservationEvent(eventType string, r *domain.Reservation) ReservationEvent {
	e := ReservationEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		ReservationID: r.ID,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Date:          r.Date,
		Time:          r.Time,
		PartySize:     r.PartySize,
		Status:        string(r.Status),
		Notes:         r.Notes,
		OccurredAt:    time.Now().UTC(),
	}
	if r.TableID != nil {
		e.TableID = *r.TableID
	}
	return e
}

type EscalationEvent struct {
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id"`
	Kind           string    `json:"kind"`
	Score          float64   `json:"score"`
	Reasons        []string  `json:"reasons"`
	UserText       string    `json:"user_text"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewEscalationEvent(issue *domain.Issue) EscalationEvent {
	return EscalationEvent{
		EventID:        uuid.NewString(),
		Type:           EventEscalationRequested,
		ConversationID: issue.ConversationID,
		Kind:           string(issue.Kind),
		Score:          issue.Score,
		Reasons:        issue.Reasons,
		UserText:       issue.UserText,
		OccurredAt:     time.Now().UTC(),
	}
}
