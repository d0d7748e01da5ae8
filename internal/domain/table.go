package domain

type Zone string

const (
	ZoneWindow  Zone = "window"
	ZoneQuiet   Zone = "quiet"
	ZoneCenter  Zone = "center"
	ZoneVIP     Zone = "vip"
	ZoneStage   Zone = "stage"
	ZoneBar     Zone = "bar"
	ZoneTerrace Zone = "terrace"
	ZoneBanquet Zone = "banquet"
)

var zones = []Zone{ZoneWindow, ZoneQuiet, ZoneCenter, ZoneVIP, ZoneStage, ZoneBar, ZoneTerrace, ZoneBanquet}

// Zones returns every known zone in declaration order.
func Zones() []Zone {
	out := make([]Zone, len(zones))
	copy(out, zones)
	return out
}

func ParseZone(s string) (Zone, bool) {
	for _, z := range zones {
		if string(z) == s {
			return z, true
		}
	}
	return "", false
}

type TableStatus string

const (
	TableStatusActive  TableStatus = "active"
	TableStatusRetired TableStatus = "retired"
)

type Table struct {
	ID          int64
	Label       string
	Capacity    int
	Zone        Zone
	Description string
	Status      TableStatus
}

func (t Table) Active() bool {
	return t.Status == TableStatusActive
}

func (t Table) Fits(partySize int) bool {
	return t.Capacity >= partySize
}
