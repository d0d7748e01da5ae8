package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/oracle"
	"github.com/Domenick1991/tablebot/internal/service/availability"
	"github.com/Domenick1991/tablebot/internal/service/catalog"
)

const (
	ToolSearchTables   = "search_tables"
	ToolFindBookings   = "find_bookings"
	ToolRestaurantInfo = "get_restaurant_info"
	ToolMenu           = "get_menu"
)

type ReservationFinder interface {
	FindByPhone(ctx context.Context, phone string) ([]domain.Reservation, error)
}

type ZoneSummarizer interface {
	Summary(ctx context.Context) ([]catalog.ZoneSummary, error)
}

type MenuSource interface {
	List(ctx context.Context, category string) ([]domain.MenuItem, error)
}

// Toolbox runs the read-only lookups the oracle may request.
type Toolbox struct {
	availability availability.AvailabilityUseCase
	finder       ReservationFinder
	zones        ZoneSummarizer
	menu         MenuSource
	restaurant   domain.RestaurantInfo
	defaultTime  string
}

func NewToolbox(avail availability.AvailabilityUseCase, finder ReservationFinder, zones ZoneSummarizer, menu MenuSource, restaurant domain.RestaurantInfo, defaultTime string) *Toolbox {
	return &Toolbox{
		availability: avail,
		finder:       finder,
		zones:        zones,
		menu:         menu,
		restaurant:   restaurant,
		defaultTime:  defaultTime,
	}
}

func (t *Toolbox) Specs() []oracle.ToolSpec {
	return []oracle.ToolSpec{
		{
			Name:        ToolSearchTables,
			Description: "Find free tables for a date, time and party size, with alternatives when nothing matches.",
			Params: []oracle.Param{
				{Name: "date", Type: oracle.ParamString, Description: "Date in YYYY-MM-DD format", Required: true},
				{Name: "time", Type: oracle.ParamString, Description: "Time in HH:MM format"},
				{Name: "party_size", Type: oracle.ParamInteger, Description: "Number of guests", Required: true},
				{Name: "zone", Type: oracle.ParamString, Description: "Seating zone: " + zoneList()},
			},
		},
		{
			Name:        ToolFindBookings,
			Description: "List the latest reservations made with a phone number.",
			Params: []oracle.Param{
				{Name: "phone", Type: oracle.ParamString, Description: "Guest phone number", Required: true},
			},
		},
		{
			Name:        ToolRestaurantInfo,
			Description: "Restaurant contacts, working hours and seating zones.",
		},
		{
			Name:        ToolMenu,
			Description: "Dishes and drinks currently on the menu, with prices.",
			Params: []oracle.Param{
				{Name: "category", Type: oracle.ParamString, Description: "Menu category such as Salads, Mains, Soups, Desserts or Drinks; omit for the whole menu"},
			},
		},
	}
}

// Run executes call. Failures are reported inside the output so the oracle can explain them.
func (t *Toolbox) Run(ctx context.Context, call oracle.ToolCall, now time.Time) map[string]any {
	var (
		out map[string]any
		err error
	)
	switch call.Name {
	case ToolSearchTables:
		out, err = t.searchTables(ctx, call.Args, now)
	case ToolFindBookings:
		out, err = t.findBookings(ctx, call.Args)
	case ToolRestaurantInfo:
		out, err = t.restaurantInfo(ctx)
	case ToolMenu:
		out, err = t.menuItems(ctx, call.Args)
	default:
		err = fmt.Errorf("unknown tool %q", call.Name)
	}
	if err != nil {
		log.Printf("dialogue: tool %s: %v", call.Name, err)
		return map[string]any{"error": err.Error()}
	}
	return out
}

func (t *Toolbox) searchTables(ctx context.Context, args map[string]any, now time.Time) (map[string]any, error) {
	q := availability.Query{
		Date:      stringArg(args, "date"),
		Time:      stringArg(args, "time"),
		PartySize: intArg(args, "party_size"),
	}
	if q.Date == "" {
		q.Date = now.AddDate(0, 0, 1).Format(domain.DateLayout)
	}
	if q.Time == "" {
		q.Time = t.defaultTime
	}
	if z := stringArg(args, "zone"); z != "" {
		zone, ok := domain.ParseZone(strings.ToLower(z))
		if !ok {
			return nil, fmt.Errorf("unknown zone %q", z)
		}
		q.Zone = zone
	}

	sugg, err := t.availability.SuggestAlternatives(ctx, q)
	if err != nil {
		return nil, err
	}

	alternatives := make(map[string]any, len(sugg.Alternatives))
	for _, alt := range sugg.Alternatives {
		alternatives[alt.Kind] = tableViews(alt.Tables)
	}
	return map[string]any{
		"date":            q.Date,
		"time":            q.Time,
		"party_size":      q.PartySize,
		"tables":          tableViews(sugg.Exact),
		"alternatives":    alternatives,
		oracle.SummaryKey: describeAvailability(q, sugg),
	}, nil
}

func (t *Toolbox) findBookings(ctx context.Context, args map[string]any) (map[string]any, error) {
	reservations, err := t.finder.FindByPhone(ctx, stringArg(args, "phone"))
	if err != nil {
		return nil, err
	}

	views := make([]map[string]any, 0, len(reservations))
	lines := make([]string, 0, len(reservations))
	for _, r := range reservations {
		views = append(views, map[string]any{
			"id":         r.ID,
			"date":       r.Date,
			"time":       r.Time,
			"party_size": r.PartySize,
			"status":     string(r.Status),
		})
		lines = append(lines, fmt.Sprintf("#%d on %s at %s for %d (%s)", r.ID, r.Date, r.Time, r.PartySize, r.Status))
	}

	summary := "There are no reservations under this phone number yet."
	if len(lines) > 0 {
		summary = "Reservations under this phone number: " + strings.Join(lines, "; ") + "."
	}
	return map[string]any{"bookings": views, oracle.SummaryKey: summary}, nil
}

func (t *Toolbox) restaurantInfo(ctx context.Context) (map[string]any, error) {
	zones, err := t.zones.Summary(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]map[string]any, 0, len(zones))
	names := make([]string, 0, len(zones))
	for _, z := range zones {
		views = append(views, map[string]any{"zone": string(z.Zone), "tables": z.Tables, "seats": z.Seats})
		names = append(names, string(z.Zone))
	}

	r := t.restaurant
	summary := fmt.Sprintf("%s is open %s at %s. Phone: %s. Seating zones: %s.",
		r.Name, r.WorkingHours, r.Address, r.Phone, strings.Join(names, ", "))
	return map[string]any{
		"name":            r.Name,
		"phone":           r.Phone,
		"address":         r.Address,
		"working_hours":   r.WorkingHours,
		"zones":           views,
		oracle.SummaryKey: summary,
	}, nil
}

func (t *Toolbox) menuItems(ctx context.Context, args map[string]any) (map[string]any, error) {
	if t.menu == nil {
		return nil, errors.New("menu is not configured")
	}
	category := stringArg(args, "category")
	items, err := t.menu.List(ctx, category)
	if err != nil {
		return nil, err
	}

	views := make([]map[string]any, 0, len(items))
	lines := make([]string, 0, len(items))
	for _, m := range items {
		views = append(views, map[string]any{
			"id":          m.ID,
			"category":    m.Category,
			"name":        m.Name,
			"description": m.Description,
			"price":       m.Price,
		})
		lines = append(lines, fmt.Sprintf("%s (%s) %d", m.Name, m.Category, m.Price))
	}

	var summary string
	switch {
	case len(lines) > 0 && category != "":
		summary = fmt.Sprintf("%s on the menu: %s.", category, strings.Join(lines, "; "))
	case len(lines) > 0:
		summary = "On the menu: " + strings.Join(lines, "; ") + "."
	case category != "":
		summary = fmt.Sprintf("There is nothing in %q on the menu right now.", category)
	default:
		summary = "The menu is empty right now."
	}
	return map[string]any{"category": category, "items": views, oracle.SummaryKey: summary}, nil
}

func tableViews(tables []domain.Table) []map[string]any {
	out := make([]map[string]any, 0, len(tables))
	for _, tb := range tables {
		out = append(out, map[string]any{
			"id":          tb.ID,
			"label":       tb.Label,
			"zone":        string(tb.Zone),
			"capacity":    tb.Capacity,
			"description": tb.Description,
		})
	}
	return out
}

func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

func zoneList() string {
	zones := domain.Zones()
	names := make([]string, len(zones))
	for i, z := range zones {
		names[i] = string(z)
	}
	return strings.Join(names, ", ")
}
