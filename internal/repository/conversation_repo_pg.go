package repository

import (
	"context"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationRepository interface {
	// RecentTurns returns at most limit turns, newest first.
	RecentTurns(ctx context.Context, conversationID string, limit int) ([]domain.ConversationTurn, error)
	Append(ctx context.Context, turn *domain.ConversationTurn) error
}

type PGConversationRepository struct {
	db *pgxpool.Pool
}

func NewConversationRepository(db *pgxpool.Pool) ConversationRepository {
	return &PGConversationRepository{db: db}
}

func (r *PGConversationRepository) RecentTurns(ctx context.Context, conversationID string, limit int) ([]domain.ConversationTurn, error) {
	rows, err := r.db.Query(ctx, `SELECT id, conversation_id, user_text, system_response, reservation_id, created_at
		FROM conversation_turns WHERE conversation_id=$1 ORDER BY id DESC LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := make([]domain.ConversationTurn, 0, limit)
	for rows.Next() {
		var t domain.ConversationTurn
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.UserText, &t.SystemResponse, &t.ReservationID, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (r *PGConversationRepository) Append(ctx context.Context, turn *domain.ConversationTurn) error {
	return r.db.QueryRow(ctx, `INSERT INTO conversation_turns (conversation_id, user_text, system_response, reservation_id)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		turn.ConversationID, turn.UserText, turn.SystemResponse, turn.ReservationID).
		Scan(&turn.ID, &turn.CreatedAt)
}

var _ ConversationRepository = (*PGConversationRepository)(nil)
