package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Domenick1991/tablebot/internal/kafka"
)

// Sender delivers guest confirmations and staff handoff notices. Delivery is a
// log line for now; the worker is the single place to plug SMS or chat later.
type Sender struct {
	out        io.Writer
	restaurant string
}

func NewSender(restaurant string) *Sender {
	return &Sender{out: os.Stdout, restaurant: restaurant}
}

func (s *Sender) SendReservation(ctx context.Context, event kafka.ReservationEvent) error {
	msg := reservationMessage(s.restaurant, event)
	if msg == "" {
		log.Printf("notify: skip event %s type=%s", event.EventID, event.Type)
		return nil
	}
	_, err := fmt.Fprintf(s.out, "sms to %s: %s\n", maskPhone(event.CustomerPhone), msg)
	return err
}

func (s *Sender) SendEscalation(ctx context.Context, event kafka.EscalationEvent) error {
	_, err := fmt.Fprintf(s.out, "staff handoff: conversation=%s kind=%s score=%.2f reasons=%v text=%q\n",
		event.ConversationID, event.Kind, event.Score, event.Reasons, event.UserText)
	return err
}

func reservationMessage(restaurant string, e kafka.ReservationEvent) string {
	switch e.Type {
	case kafka.EventReservationCreated:
		return fmt.Sprintf("%s: %s, your table for %d on %s at %s is reserved (#%d).", restaurant, e.CustomerName, e.PartySize, e.Date, e.Time, e.ReservationID)
	case kafka.EventReservationConfirmed:
		return fmt.Sprintf("%s: reservation #%d on %s at %s is confirmed.", restaurant, e.ReservationID, e.Date, e.Time)
	case kafka.EventReservationCancelled:
		return fmt.Sprintf("%s: reservation #%d on %s at %s was cancelled.", restaurant, e.ReservationID, e.Date, e.Time)
	case kafka.EventReservationAmended:
		return fmt.Sprintf("%s: reservation #%d now is %s at %s for %d.", restaurant, e.ReservationID, e.Date, e.Time, e.PartySize)
	}
	return ""
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	masked := make([]byte, len(phone))
	for i := range phone {
		if i < len(phone)-4 {
			masked[i] = '*'
		} else {
			masked[i] = phone[i]
		}
	}
	return string(masked)
}
