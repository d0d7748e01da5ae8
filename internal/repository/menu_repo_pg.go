package repository

import (
	"context"
	"strings"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MenuRepository interface {
	// List returns available items, optionally limited to one category.
	List(ctx context.Context, category string) ([]domain.MenuItem, error)
	Upsert(ctx context.Context, item *domain.MenuItem) error
}

type PGMenuRepository struct {
	db *pgxpool.Pool
}

func NewMenuRepository(db *pgxpool.Pool) MenuRepository {
	return &PGMenuRepository{db: db}
}

func (r *PGMenuRepository) List(ctx context.Context, category string) ([]domain.MenuItem, error) {
	rows, err := r.db.Query(ctx, `SELECT id, category, name, description, price, available FROM menu_items
		WHERE available AND ($1 = '' OR lower(category) = lower($1))
		ORDER BY category, id`, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0)
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.Category, &m.Name, &m.Description, &m.Price, &m.Available); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *PGMenuRepository) Upsert(ctx context.Context, m *domain.MenuItem) error {
	if _, err := r.db.Exec(ctx, `INSERT INTO menu_items (id, category, name, description, price, available)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET category=EXCLUDED.category, name=EXCLUDED.name,
			description=EXCLUDED.description, price=EXCLUDED.price, available=EXCLUDED.available`,
		m.ID, m.Category, m.Name, m.Description, m.Price, m.Available); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `SELECT setval(pg_get_serial_sequence('menu_items', 'id'), (SELECT MAX(id) FROM menu_items))`)
	return err
}

var _ MenuRepository = (*PGMenuRepository)(nil)
