package repository

import (
	"context"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TableRepository interface {
	List(ctx context.Context) ([]domain.Table, error)
	GetByID(ctx context.Context, id int64) (*domain.Table, error)
	Upsert(ctx context.Context, table *domain.Table) error
}

type PGTableRepository struct {
	db *pgxpool.Pool
}

func NewTableRepository(db *pgxpool.Pool) TableRepository {
	return &PGTableRepository{db: db}
}

func (r *PGTableRepository) List(ctx context.Context) ([]domain.Table, error) {
	rows, err := r.db.Query(ctx, `SELECT id, label, capacity, zone, description, status FROM dining_tables ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]domain.Table, 0)
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.Label, &t.Capacity, &t.Zone, &t.Description, &t.Status); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (r *PGTableRepository) GetByID(ctx context.Context, id int64) (*domain.Table, error) {
	row := r.db.QueryRow(ctx, `SELECT id, label, capacity, zone, description, status FROM dining_tables WHERE id=$1`, id)
	var t domain.Table
	if err := row.Scan(&t.ID, &t.Label, &t.Capacity, &t.Zone, &t.Description, &t.Status); err != nil {
		return nil, mapPGError(err)
	}
	return &t, nil
}

// Upsert inserts a table with an explicit id or overwrites the existing row.
func (r *PGTableRepository) Upsert(ctx context.Context, t *domain.Table) error {
	if _, err := r.db.Exec(ctx, `INSERT INTO dining_tables (id, label, capacity, zone, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET label=EXCLUDED.label, capacity=EXCLUDED.capacity, zone=EXCLUDED.zone,
			description=EXCLUDED.description, status=EXCLUDED.status`,
		t.ID, t.Label, t.Capacity, t.Zone, t.Description, t.Status); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `SELECT setval(pg_get_serial_sequence('dining_tables', 'id'), (SELECT MAX(id) FROM dining_tables))`)
	return err
}

var _ TableRepository = (*PGTableRepository)(nil)
