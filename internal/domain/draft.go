package domain

import (
	"fmt"
	"time"
)

// BookingDraft accumulates booking intent for one conversation. Zero values mean unset.
type BookingDraft struct {
	Name            string
	Phone           string
	PartySize       int
	Date            string
	Time            string
	Zone            Zone
	SpecialRequests []string
}

// Complete reports whether the draft carries enough to attempt a reservation.
// Date and time are defaulted later.
func (d BookingDraft) Complete() bool {
	return d.Name != "" && d.Phone != "" && d.PartySize > 0
}

// Missing lists the unset required slots in a stable order.
func (d BookingDraft) Missing() []string {
	var missing []string
	if d.Name == "" {
		missing = append(missing, "name")
	}
	if d.Phone == "" {
		missing = append(missing, "phone")
	}
	if d.PartySize == 0 {
		missing = append(missing, "party_size")
	}
	return missing
}

// WithDefaults returns a copy with date defaulting to the day after now and
// time to defaultTime.
func (d BookingDraft) WithDefaults(now time.Time, defaultTime string) BookingDraft {
	out := d
	if out.Date == "" {
		out.Date = now.AddDate(0, 0, 1).Format(DateLayout)
	}
	if out.Time == "" {
		out.Time = defaultTime
	}
	return out
}

// Merge overlays the set fields of newer onto d. Zone and special requests are
// replaced wholesale since they describe the newest utterance only.
func (d BookingDraft) Merge(newer BookingDraft) BookingDraft {
	out := d
	if newer.Name != "" {
		out.Name = newer.Name
	}
	if newer.Phone != "" {
		out.Phone = newer.Phone
	}
	if newer.PartySize != 0 {
		out.PartySize = newer.PartySize
	}
	if newer.Date != "" {
		out.Date = newer.Date
	}
	if newer.Time != "" {
		out.Time = newer.Time
	}
	out.Zone = newer.Zone
	out.SpecialRequests = newer.SpecialRequests
	return out
}

// Identity keeps only the customer contact slots.
func (d BookingDraft) Identity() BookingDraft {
	return BookingDraft{Name: d.Name, Phone: d.Phone}
}

func (d BookingDraft) Equal(o BookingDraft) bool {
	if d.Name != o.Name || d.Phone != o.Phone || d.PartySize != o.PartySize ||
		d.Date != o.Date || d.Time != o.Time || d.Zone != o.Zone ||
		len(d.SpecialRequests) != len(o.SpecialRequests) {
		return false
	}
	for i := range d.SpecialRequests {
		if d.SpecialRequests[i] != o.SpecialRequests[i] {
			return false
		}
	}
	return true
}

func (d BookingDraft) String() string {
	return fmt.Sprintf("name=%q phone=%q party=%d date=%q time=%q zone=%q requests=%v",
		d.Name, d.Phone, d.PartySize, d.Date, d.Time, d.Zone, d.SpecialRequests)
}
