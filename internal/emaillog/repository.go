package emaillog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

// Repository persists email delivery outcomes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email log repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts a delivery outcome.
func (r *Repository) Record(ctx context.Context, entry *models.EmailLog) error {
	const q = `INSERT INTO email_logs (event_id, email_type, recipient_email, subject, status, sent_at, error_message)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, NULLIF($7,''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, entry.EventID, entry.EmailType, entry.RecipientEmail,
		entry.Subject, entry.Status, entry.SentAt, entry.ErrorMessage).
		Scan(&entry.ID, &entry.CreatedAt)
}

// ListByEvent returns delivery outcomes for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EmailLog, error) {
	const q = `SELECT id, event_id, email_type, recipient_email, COALESCE(subject,''), status, sent_at, COALESCE(error_message,''), created_at
		FROM email_logs WHERE event_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.EmailLog
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.EventID, &l.EmailType, &l.RecipientEmail, &l.Subject,
			&l.Status, &l.SentAt, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
