package repository

import (
	"context"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IssueRepository interface {
	Log(ctx context.Context, issue *domain.Issue) error
	Recent(ctx context.Context, limit int) ([]domain.Issue, error)
}

type PGIssueRepository struct {
	db *pgxpool.Pool
}

func NewIssueRepository(db *pgxpool.Pool) IssueRepository {
	return &PGIssueRepository{db: db}
}

func (r *PGIssueRepository) Log(ctx context.Context, issue *domain.Issue) error {
	reasons := issue.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return r.db.QueryRow(ctx, `INSERT INTO conversation_issues (conversation_id, user_text, system_response, kind, score, reasons)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		issue.ConversationID, issue.UserText, issue.SystemResponse, issue.Kind, issue.Score, reasons).
		Scan(&issue.ID, &issue.CreatedAt)
}

func (r *PGIssueRepository) Recent(ctx context.Context, limit int) ([]domain.Issue, error) {
	rows, err := r.db.Query(ctx, `SELECT id, conversation_id, user_text, system_response, kind, score, reasons, created_at
		FROM conversation_issues ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		var i domain.Issue
		if err := rows.Scan(&i.ID, &i.ConversationID, &i.UserText, &i.SystemResponse, &i.Kind, &i.Score, &i.Reasons, &i.CreatedAt); err != nil {
			return nil, err
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

var _ IssueRepository = (*PGIssueRepository)(nil)
