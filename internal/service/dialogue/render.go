package dialogue

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/service/availability"
	"github.com/Domenick1991/tablebot/internal/service/booking"
)

func describeTable(t domain.Table) string {
	return fmt.Sprintf("%s (%d seats, %s)", t.Label, t.Capacity, t.Zone)
}

func describeTables(tables []domain.Table) string {
	parts := make([]string, len(tables))
	for i, t := range tables {
		parts[i] = describeTable(t)
	}
	return strings.Join(parts, ", ")
}

func describeAvailability(q availability.Query, s *availability.Suggestions) string {
	if len(s.Exact) > 0 {
		return fmt.Sprintf("Free tables for %d on %s at %s: %s.", q.PartySize, q.Date, q.Time, describeTables(s.Exact))
	}
	return describeShortage(q, s)
}

// describeShortage explains that nothing matched and lists the alternatives.
func describeShortage(q availability.Query, s *availability.Suggestions) string {
	var b strings.Builder
	if q.Zone != "" {
		fmt.Fprintf(&b, "All %s tables for %d guests are taken on %s at %s.", q.Zone, q.PartySize, q.Date, q.Time)
	} else {
		fmt.Fprintf(&b, "All tables for %d guests are taken on %s at %s.", q.PartySize, q.Date, q.Time)
	}
	if len(s.Alternatives) == 0 {
		b.WriteString(" Please choose another date or time and I will check again.")
		return b.String()
	}
	b.WriteString(" I can offer")
	for i, alt := range s.Alternatives {
		if i > 0 {
			b.WriteString(", or")
		}
		switch alt.Kind {
		case availability.AlternativeBigger:
			fmt.Fprintf(&b, " a larger table: %s", describeTables(alt.Tables))
		case availability.AlternativeDifferentZone:
			fmt.Fprintf(&b, " another zone: %s", describeTables(alt.Tables))
		}
	}
	b.WriteString(". Tell me which zone or time suits you and I will book it.")
	return b.String()
}

func describeConfirmation(c *booking.Confirmation) string {
	r := c.Reservation
	text := fmt.Sprintf("Done, %s! Table %s is reserved for %d guests on %s at %s. Your reservation number is %d.",
		r.CustomerName, describeTable(c.Table), r.PartySize, r.Date, r.Time, r.ID)
	if r.Notes != "" {
		text += fmt.Sprintf(" We noted: %s.", r.Notes)
	}
	return text
}

func describeMissing(missing []string) string {
	labels := map[string]string{
		"name":       "your name",
		"phone":      "a phone number",
		"party_size": "the number of guests",
	}
	parts := make([]string, len(missing))
	for i, m := range missing {
		parts[i] = labels[m]
		if parts[i] == "" {
			parts[i] = m
		}
	}
	return strings.Join(parts, ", ")
}
