package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTableSource struct {
	mock.Mock
}

func (m *MockTableSource) List(ctx context.Context) ([]domain.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Table), args.Error(1)
}

type MockOccupancy struct {
	mock.Mock
}

func (m *MockOccupancy) Occupied(ctx context.Context, date, time string) (map[int64]struct{}, error) {
	args := m.Called(ctx, date, time)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]struct{}), args.Error(1)
}

func catalog() []domain.Table {
	return []domain.Table{
		{ID: 1, Label: "1", Capacity: 2, Zone: domain.ZoneWindow, Status: domain.TableStatusActive},
		{ID: 2, Label: "2", Capacity: 4, Zone: domain.ZoneWindow, Status: domain.TableStatusActive},
		{ID: 3, Label: "3", Capacity: 6, Zone: domain.ZoneCenter, Status: domain.TableStatusActive},
		{ID: 4, Label: "4", Capacity: 2, Zone: domain.ZoneQuiet, Status: domain.TableStatusActive},
		{ID: 5, Label: "5", Capacity: 8, Zone: domain.ZoneVIP, Status: domain.TableStatusActive},
		{ID: 6, Label: "6", Capacity: 4, Zone: domain.ZoneStage, Status: domain.TableStatusActive},
		{ID: 7, Label: "7", Capacity: 2, Zone: domain.ZoneBar, Status: domain.TableStatusActive},
		{ID: 8, Label: "8", Capacity: 6, Zone: domain.ZoneTerrace, Status: domain.TableStatusActive},
		{ID: 9, Label: "9", Capacity: 4, Zone: domain.ZoneCenter, Status: domain.TableStatusActive},
		{ID: 10, Label: "10", Capacity: 10, Zone: domain.ZoneBanquet, Status: domain.TableStatusActive},
		{ID: 11, Label: "11", Capacity: 4, Zone: domain.ZoneWindow, Status: domain.TableStatusRetired},
	}
}

func ids(tables []domain.Table) []int64 {
	out := make([]int64, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.ID)
	}
	return out
}

func TestEngine_FindAvailable_WindowForFour(t *testing.T) {
	tables := &MockTableSource{}
	occ := &MockOccupancy{}
	engine := NewEngine(tables, occ)
	ctx := context.Background()

	tables.On("List", ctx).Return(catalog(), nil).Once()
	occ.On("Occupied", ctx, "2026-10-18", "19:00").Return(map[int64]struct{}{}, nil).Once()

	got, err := engine.FindAvailable(ctx, Query{Date: "2026-10-18", Time: "19:00", PartySize: 4, Zone: domain.ZoneWindow})

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(got))
	tables.AssertExpectations(t)
	occ.AssertExpectations(t)
}

func TestEngine_FindAvailable_SkipsOccupiedAndRetired(t *testing.T) {
	tables := &MockTableSource{}
	occ := &MockOccupancy{}
	engine := NewEngine(tables, occ)
	ctx := context.Background()

	tables.On("List", ctx).Return(catalog(), nil).Once()
	occ.On("Occupied", ctx, "2026-10-18", "19:00").Return(map[int64]struct{}{2: {}, 3: {}}, nil).Once()

	got, err := engine.FindAvailable(ctx, Query{Date: "2026-10-18", Time: "19:00", PartySize: 4})

	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6, 8, 9, 10}, ids(got))
}

func TestEngine_SuggestAlternatives_ExactMatch(t *testing.T) {
	tables := &MockTableSource{}
	occ := &MockOccupancy{}
	engine := NewEngine(tables, occ)
	ctx := context.Background()

	tables.On("List", ctx).Return(catalog(), nil).Once()
	occ.On("Occupied", ctx, "2026-10-18", "19:00").Return(map[int64]struct{}{}, nil).Once()

	got, err := engine.SuggestAlternatives(ctx, Query{Date: "2026-10-18", Time: "19:00", PartySize: 2, Zone: domain.ZoneQuiet})

	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids(got.Exact))
	assert.Empty(t, got.Alternatives)
}

func TestEngine_SuggestAlternatives_BiggerWhenZoneTaken(t *testing.T) {
	tables := &MockTableSource{}
	occ := &MockOccupancy{}
	engine := NewEngine(tables, occ)
	ctx := context.Background()

	tables.On("List", ctx).Return(catalog(), nil).Once()
	occ.On("Occupied", ctx, "2026-10-18", "19:00").Return(map[int64]struct{}{2: {}}, nil).Once()

	got, err := engine.SuggestAlternatives(ctx, Query{Date: "2026-10-18", Time: "19:00", PartySize: 4, Zone: domain.ZoneWindow})

	require.NoError(t, err)
	assert.Empty(t, got.Exact)
	require.Len(t, got.Alternatives, 2)

	assert.Equal(t, AlternativeBigger, got.Alternatives[0].Kind)
	assert.Equal(t, []int64{3, 5, 8}, ids(got.Alternatives[0].Tables))

	assert.Equal(t, AlternativeDifferentZone, got.Alternatives[1].Kind)
	assert.Equal(t, []int64{3, 5, 6}, ids(got.Alternatives[1].Tables))
	for _, tbl := range got.Alternatives[1].Tables {
		assert.NotEqual(t, domain.ZoneWindow, tbl.Zone)
	}
}

func TestEngine_SuggestAlternatives_OnlyBigger(t *testing.T) {
	tables := &MockTableSource{}
	occ := &MockOccupancy{}
	engine := NewEngine(tables, occ)
	ctx := context.Background()

	small := []domain.Table{
		{ID: 1, Capacity: 2, Zone: domain.ZoneWindow, Status: domain.TableStatusActive},
		{ID: 2, Capacity: 8, Zone: domain.ZoneWindow, Status: domain.TableStatusActive},
	}
	tables.On("List", ctx).Return(small, nil).Once()
	occ.On("Occupied", ctx, "2026-10-18", "19:00").Return(map[int64]struct{}{}, nil).Once()

	got, err := engine.SuggestAlternatives(ctx, Query{Date: "2026-10-18", Time: "19:00", PartySize: 4, Zone: domain.ZoneVIP})

	require.NoError(t, err)
	assert.Empty(t, got.Exact)
	require.Len(t, got.Alternatives, 2)
	assert.Equal(t, []int64{2}, ids(got.Alternatives[0].Tables))
	assert.Equal(t, []int64{2}, ids(got.Alternatives[1].Tables))
}

func TestEngine_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid query", func(t *testing.T) {
		engine := NewEngine(&MockTableSource{}, &MockOccupancy{})
		_, err := engine.FindAvailable(ctx, Query{Date: "tomorrow", Time: "19:00", PartySize: 2})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = engine.FindAvailable(ctx, Query{Date: "2026-10-18", Time: "19:00"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("catalog failure", func(t *testing.T) {
		tables := &MockTableSource{}
		engine := NewEngine(tables, &MockOccupancy{})
		tables.On("List", ctx).Return(nil, errors.New("db down")).Once()

		_, err := engine.SuggestAlternatives(ctx, Query{Date: "2026-10-18", Time: "19:00", PartySize: 2})
		assert.EqualError(t, err, "list tables: db down")
	})

	t.Run("occupancy failure", func(t *testing.T) {
		tables := &MockTableSource{}
		occ := &MockOccupancy{}
		engine := NewEngine(tables, occ)
		tables.On("List", ctx).Return(catalog(), nil).Once()
		occ.On("Occupied", ctx, "2026-10-18", "19:00").Return(nil, errors.New("timeout")).Once()

		_, err := engine.FindAvailable(ctx, Query{Date: "2026-10-18", Time: "19:00", PartySize: 2})
		assert.Error(t, err)
	})
}

func TestZoneTable_Infer(t *testing.T) {
	zt := DefaultZoneTable()

	tests := []struct {
		text string
		want domain.Zone
		ok   bool
	}{
		{"table for 4 tomorrow at 19:00, window view", domain.ZoneWindow, true},
		{"somewhere quiet please", domain.ZoneQuiet, true},
		{"near the stage with live music", domain.ZoneStage, true},
		{"хотим столик у окна", domain.ZoneWindow, true},
		{"на террасе", domain.ZoneTerrace, true},
		{"a quiet table by the window", domain.ZoneWindow, true},
		{"just a table", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := zt.Infer(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
