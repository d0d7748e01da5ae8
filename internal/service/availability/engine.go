package availability

import (
	"context"
	"fmt"

	"github.com/Domenick1991/tablebot/internal/domain"
)

const (
	AlternativeBigger        = "bigger"
	AlternativeDifferentZone = "different_zone"

	maxSuggestions  = 3
	biggerPartyStep = 2
)

type AvailabilityUseCase interface {
	FindAvailable(ctx context.Context, q Query) ([]domain.Table, error)
	SuggestAlternatives(ctx context.Context, q Query) (*Suggestions, error)
}

type TableSource interface {
	List(ctx context.Context) ([]domain.Table, error)
}

// OccupancyIndex returns ids of tables held by non-cancelled reservations at
// exactly the given date and time.
type OccupancyIndex interface {
	Occupied(ctx context.Context, date, time string) (map[int64]struct{}, error)
}

type Query struct {
	Date      string
	Time      string
	PartySize int
	Zone      domain.Zone
}

type Alternative struct {
	Kind   string
	Tables []domain.Table
}

type Suggestions struct {
	Exact        []domain.Table
	Alternatives []Alternative
}

type Engine struct {
	catalog   TableSource
	occupancy OccupancyIndex
}

func NewEngine(catalog TableSource, occupancy OccupancyIndex) *Engine {
	return &Engine{catalog: catalog, occupancy: occupancy}
}

func (e *Engine) FindAvailable(ctx context.Context, q Query) ([]domain.Table, error) {
	tables, occupied, err := e.snapshot(ctx, q)
	if err != nil {
		return nil, err
	}
	return filter(tables, occupied, q.PartySize, q.Zone, "", 0), nil
}

func (e *Engine) SuggestAlternatives(ctx context.Context, q Query) (*Suggestions, error) {
	tables, occupied, err := e.snapshot(ctx, q)
	if err != nil {
		return nil, err
	}

	out := &Suggestions{Exact: filter(tables, occupied, q.PartySize, q.Zone, "", 0)}
	if len(out.Exact) > 0 {
		return out, nil
	}

	if bigger := filter(tables, occupied, q.PartySize+biggerPartyStep, "", "", maxSuggestions); len(bigger) > 0 {
		out.Alternatives = append(out.Alternatives, Alternative{Kind: AlternativeBigger, Tables: bigger})
	}
	if other := filter(tables, occupied, q.PartySize, "", q.Zone, maxSuggestions); len(other) > 0 {
		out.Alternatives = append(out.Alternatives, Alternative{Kind: AlternativeDifferentZone, Tables: other})
	}
	return out, nil
}

func (e *Engine) snapshot(ctx context.Context, q Query) ([]domain.Table, map[int64]struct{}, error) {
	if q.PartySize < 1 {
		return nil, nil, fmt.Errorf("%w: party size must be positive", domain.ErrInvalidInput)
	}
	if !domain.ValidDate(q.Date) || !domain.ValidTime(q.Time) {
		return nil, nil, fmt.Errorf("%w: date %q time %q", domain.ErrInvalidInput, q.Date, q.Time)
	}

	tables, err := e.catalog.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list tables: %w", err)
	}
	occupied, err := e.occupancy.Occupied(ctx, q.Date, q.Time)
	if err != nil {
		return nil, nil, fmt.Errorf("occupancy %s %s: %w", q.Date, q.Time, err)
	}
	return tables, occupied, nil
}

// filter keeps catalog order. An empty zone matches any zone; exclude drops
// one zone; limit 0 means unlimited.
func filter(tables []domain.Table, occupied map[int64]struct{}, party int, zone, exclude domain.Zone, limit int) []domain.Table {
	var out []domain.Table
	for _, t := range tables {
		if !t.Active() || !t.Fits(party) {
			continue
		}
		if zone != "" && t.Zone != zone {
			continue
		}
		if exclude != "" && t.Zone == exclude {
			continue
		}
		if _, taken := occupied[t.ID]; taken {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

var _ AvailabilityUseCase = (*Engine)(nil)
