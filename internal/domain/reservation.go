package domain

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type ReservationStatus string

const (
	ReservationStatusNew       ReservationStatus = "new"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Reservation holds a claimed slot. At most one non-cancelled reservation
// may reference a given (TableID, Date, Time).
type Reservation struct {
	ID            int64
	TableID       *int64
	CustomerName  string
	CustomerPhone string
	Date          string
	Time          string
	PartySize     int
	Status        ReservationStatus
	Notes         string
	CreatedAt     time.Time
}

func (r Reservation) Active() bool {
	return r.Status != ReservationStatusCancelled
}

// Slot is the exclusivity key of a reservation.
type Slot struct {
	TableID int64
	Date    string
	Time    string
}

func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func ValidTime(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil && len(s) == len(TimeLayout)
}
