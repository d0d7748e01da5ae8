package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/tablebot/internal/domain"
)

// In-memory repositories back the "memory" database driver and tests. They
// enforce the same active-slot uniqueness as the postgres partial index.

type MemoryTableRepository struct {
	mu     sync.RWMutex
	tables map[int64]domain.Table
}

func NewMemoryTableRepository(tables ...domain.Table) *MemoryTableRepository {
	r := &MemoryTableRepository{tables: make(map[int64]domain.Table, len(tables))}
	for _, t := range tables {
		r.tables[t.ID] = t
	}
	return r
}

func (r *MemoryTableRepository) List(ctx context.Context) ([]domain.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryTableRepository) GetByID(ctx context.Context, id int64) (*domain.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *MemoryTableRepository) Upsert(ctx context.Context, t *domain.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == 0 {
		for id := range r.tables {
			if id > t.ID {
				t.ID = id
			}
		}
		t.ID++
	}
	r.tables[t.ID] = *t
	return nil
}

type MemoryReservationRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Reservation
	now    func() time.Time
}

func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{rows: make(map[int64]domain.Reservation), now: time.Now}
}

func (r *MemoryReservationRepository) CreateIfFree(ctx context.Context, res *domain.Reservation) error {
	if res.TableID == nil {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.takenLocked(domain.Slot{TableID: *res.TableID, Date: res.Date, Time: res.Time}, 0) {
		return domain.ErrSlotTaken
	}

	r.nextID++
	res.ID = r.nextID
	res.Status = domain.ReservationStatusNew
	res.CreatedAt = r.now()
	r.rows[res.ID] = copyReservation(*res)
	return nil
}

// takenLocked reports whether an active reservation other than skipID holds slot.
func (r *MemoryReservationRepository) takenLocked(slot domain.Slot, skipID int64) bool {
	for id, row := range r.rows {
		if id == skipID || !row.Active() || row.TableID == nil {
			continue
		}
		if *row.TableID == slot.TableID && row.Date == slot.Date && row.Time == slot.Time {
			return true
		}
	}
	return false
}

func (r *MemoryReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyReservation(row)
	return &out, nil
}

func (r *MemoryReservationRepository) Occupied(ctx context.Context, date, time string) (map[int64]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	occupied := make(map[int64]struct{})
	for _, row := range r.rows {
		if row.Active() && row.TableID != nil && row.Date == date && row.Time == time {
			occupied[*row.TableID] = struct{}{}
		}
	}
	return occupied, nil
}

func (r *MemoryReservationRepository) UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus, note string) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !row.Active() && status != domain.ReservationStatusCancelled && row.TableID != nil &&
		r.takenLocked(domain.Slot{TableID: *row.TableID, Date: row.Date, Time: row.Time}, id) {
		return nil, domain.ErrSlotTaken
	}
	row.Status = status
	row.Notes += note
	r.rows[id] = row
	out := copyReservation(row)
	return &out, nil
}

func (r *MemoryReservationRepository) Amend(ctx context.Context, id int64, patch ReservationPatch) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Date != nil {
		row.Date = *patch.Date
	}
	if patch.Time != nil {
		row.Time = *patch.Time
	}
	if patch.PartySize != nil {
		row.PartySize = *patch.PartySize
	}
	if row.Active() && row.TableID != nil &&
		r.takenLocked(domain.Slot{TableID: *row.TableID, Date: row.Date, Time: row.Time}, id) {
		return nil, domain.ErrSlotTaken
	}
	r.rows[id] = row
	out := copyReservation(row)
	return &out, nil
}

func (r *MemoryReservationRepository) FindByPhone(ctx context.Context, phone string, limit int) ([]domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Reservation
	for _, row := range r.rows {
		if row.CustomerPhone == phone {
			out = append(out, copyReservation(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyReservation(r domain.Reservation) domain.Reservation {
	if r.TableID != nil {
		id := *r.TableID
		r.TableID = &id
	}
	return r
}

type MemoryConversationRepository struct {
	mu     sync.RWMutex
	nextID int64
	turns  map[string][]domain.ConversationTurn
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{turns: make(map[string][]domain.ConversationTurn)}
}

func (r *MemoryConversationRepository) RecentTurns(ctx context.Context, conversationID string, limit int) ([]domain.ConversationTurn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.turns[conversationID]
	out := make([]domain.ConversationTurn, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *MemoryConversationRepository) Append(ctx context.Context, turn *domain.ConversationTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	turn.ID = r.nextID
	turn.CreatedAt = time.Now()
	r.turns[turn.ConversationID] = append(r.turns[turn.ConversationID], *turn)
	return nil
}

type MemoryIssueRepository struct {
	mu     sync.RWMutex
	issues []domain.Issue
}

func NewMemoryIssueRepository() *MemoryIssueRepository {
	return &MemoryIssueRepository{}
}

func (r *MemoryIssueRepository) Log(ctx context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue.ID = int64(len(r.issues) + 1)
	issue.CreatedAt = time.Now()
	r.issues = append(r.issues, *issue)
	return nil
}

func (r *MemoryIssueRepository) Recent(ctx context.Context, limit int) ([]domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Issue, 0, limit)
	for i := len(r.issues) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.issues[i])
	}
	return out, nil
}

type MemoryMenuRepository struct {
	mu    sync.RWMutex
	items map[int64]domain.MenuItem
}

func NewMemoryMenuRepository(items ...domain.MenuItem) *MemoryMenuRepository {
	r := &MemoryMenuRepository{items: make(map[int64]domain.MenuItem, len(items))}
	for _, m := range items {
		r.items[m.ID] = m
	}
	return r
}

func (r *MemoryMenuRepository) List(ctx context.Context, category string) ([]domain.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.MenuItem, 0)
	for _, m := range r.items {
		if m.Available && m.InCategory(category) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryMenuRepository) Upsert(ctx context.Context, m *domain.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID == 0 {
		for id := range r.items {
			if id > m.ID {
				m.ID = id
			}
		}
		m.ID++
	}
	r.items[m.ID] = *m
	return nil
}

var (
	_ TableRepository        = (*MemoryTableRepository)(nil)
	_ ReservationRepository  = (*MemoryReservationRepository)(nil)
	_ ConversationRepository = (*MemoryConversationRepository)(nil)
	_ IssueRepository        = (*MemoryIssueRepository)(nil)
	_ MenuRepository         = (*MemoryMenuRepository)(nil)
)
