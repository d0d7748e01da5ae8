package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository interface {
	// CreateIfFree inserts r unless an active reservation already holds the
	// same table, date and time, in which case it returns domain.ErrSlotTaken.
	CreateIfFree(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	Occupied(ctx context.Context, date, time string) (map[int64]struct{}, error)
	// UpdateStatus sets the status and appends note to the notes field.
	UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus, note string) (*domain.Reservation, error)
	Amend(ctx context.Context, id int64, patch ReservationPatch) (*domain.Reservation, error)
	FindByPhone(ctx context.Context, phone string, limit int) ([]domain.Reservation, error)
}

// ReservationPatch carries optional amendments; nil fields are left untouched.
type ReservationPatch struct {
	Date      *string
	Time      *string
	PartySize *int
}

func (p ReservationPatch) Empty() bool {
	return p.Date == nil && p.Time == nil && p.PartySize == nil
}

const reservationColumns = `id, table_id, customer_name, customer_phone,
	to_char(booking_date, 'YYYY-MM-DD'), to_char(booking_time, 'HH24:MI'),
	party_size, status, notes, created_at`

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var r domain.Reservation
	if err := row.Scan(&r.ID, &r.TableID, &r.CustomerName, &r.CustomerPhone, &r.Date, &r.Time,
		&r.PartySize, &r.Status, &r.Notes, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *PGReservationRepository) CreateIfFree(ctx context.Context, res *domain.Reservation) error {
	if res.TableID == nil {
		return fmt.Errorf("%w: reservation has no table", domain.ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	slotKey := fmt.Sprintf("%d|%s|%s", *res.TableID, res.Date, res.Time)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, slotKey); err != nil {
		return err
	}

	var taken bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reservations
		WHERE table_id=$1 AND booking_date=$2::date AND booking_time=$3::time AND status <> 'cancelled')`,
		*res.TableID, res.Date, res.Time).Scan(&taken); err != nil {
		return err
	}
	if taken {
		return domain.ErrSlotTaken
	}

	res.Status = domain.ReservationStatusNew
	if err := tx.QueryRow(ctx, `INSERT INTO reservations (table_id, customer_name, customer_phone, booking_date, booking_time, party_size, status, notes)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7, $8)
		RETURNING id, created_at`,
		*res.TableID, res.CustomerName, res.CustomerPhone, res.Date, res.Time, res.PartySize, res.Status, res.Notes).
		Scan(&res.ID, &res.CreatedAt); err != nil {
		return mapPGError(err)
	}

	return mapPGError(tx.Commit(ctx))
}

func (r *PGReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id))
	if err != nil {
		return nil, mapPGError(err)
	}
	return res, nil
}

func (r *PGReservationRepository) Occupied(ctx context.Context, date, time string) (map[int64]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT table_id FROM reservations
		WHERE booking_date=$1::date AND booking_time=$2::time AND status <> 'cancelled' AND table_id IS NOT NULL`, date, time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occupied := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		occupied[id] = struct{}{}
	}
	return occupied, rows.Err()
}

func (r *PGReservationRepository) UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus, note string) (*domain.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx, `UPDATE reservations SET status=$2, notes = notes || $3
		WHERE id=$1 RETURNING `+reservationColumns, id, status, note))
	if err != nil {
		return nil, mapPGError(err)
	}
	return res, nil
}

func (r *PGReservationRepository) Amend(ctx context.Context, id int64, patch ReservationPatch) (*domain.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx, `UPDATE reservations SET
			booking_date = COALESCE($2::date, booking_date),
			booking_time = COALESCE($3::time, booking_time),
			party_size   = COALESCE($4::int, party_size)
		WHERE id=$1 RETURNING `+reservationColumns, id, patch.Date, patch.Time, patch.PartySize))
	if err != nil {
		return nil, mapPGError(err)
	}
	return res, nil
}

func (r *PGReservationRepository) FindByPhone(ctx context.Context, phone string, limit int) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE customer_phone=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, phone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
