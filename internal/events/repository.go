package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

// ErrNotFound is returned when an event does not exist.
var ErrNotFound = errors.New("event not found")

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, title, description, starts_at, COALESCE(image_url,''), COALESCE(category,''), owner_id, owner_name, attendees_amount, invitees, place, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.ImageURL, &e.Category,
		&e.OwnerID, &e.OwnerName, &e.AttendeesAmount, &e.Invitees, &e.Place, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if e.Invitees == nil {
		e.Invitees = []string{}
	}
	return &e, nil
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (title, description, starts_at, image_url, category, owner_id, owner_name, attendees_amount, invitees, place)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	if e.Invitees == nil {
		e.Invitees = []string{}
	}
	return r.pool.QueryRow(ctx, q, e.Title, e.Description, e.StartsAt, e.ImageURL, e.Category,
		e.OwnerID, e.OwnerName, e.AttendeesAmount, e.Invitees, e.Place).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// List returns events owned by or inviting the given user email, newest first.
func (r *Repository) List(ctx context.Context, ownerID uuid.UUID, email string) ([]models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE owner_id = $1 OR $2 = ANY(invitees) ORDER BY starts_at DESC`
	rows, err := r.pool.Query(ctx, q, ownerID, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// UpdateParams holds optional event fields for partial update.
type UpdateParams struct {
	Title           *string
	Description     *string
	StartsAt        *time.Time
	ImageURL        *string
	Category        *string
	AttendeesAmount *int
	Invitees        []string
	Place           *string
}

// Update applies a partial update and returns the updated event.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Event, error) {
	const q = `UPDATE events SET
		title = COALESCE($2, title),
		description = COALESCE($3, description),
		starts_at = COALESCE($4, starts_at),
		image_url = COALESCE($5, image_url),
		category = COALESCE($6, category),
		attendees_amount = COALESCE($7, attendees_amount),
		invitees = COALESCE($8, invitees),
		place = COALESCE($9, place),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns
	return scanEvent(r.pool.QueryRow(ctx, q, id, p.Title, p.Description, p.StartsAt, p.ImageURL,
		p.Category, p.AttendeesAmount, p.Invitees, p.Place))
}

// Delete removes an event by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddInvitee appends a normalized email to the invitee list with set-union
// semantics in a single statement, so two racing additions cannot
// double-add. Returns the updated event and whether the email was newly
// added; false means it was already on the list when the statement ran.
func (r *Repository) AddInvitee(ctx context.Context, id uuid.UUID, email string) (*models.Event, bool, error) {
	normalized := models.NormalizeEmail(email)
	const q = `WITH prev AS (
			SELECT invitees AS prev_invitees FROM events WHERE id = $1 FOR UPDATE
		)
		UPDATE events SET
			invitees = CASE WHEN $2 = ANY(prev.prev_invitees) THEN events.invitees ELSE array_append(events.invitees, $2) END,
			updated_at = NOW()
		FROM prev
		WHERE events.id = $1
		RETURNING ` + eventColumns + `, NOT ($2 = ANY(prev.prev_invitees))`

	var e models.Event
	var added bool
	err := r.pool.QueryRow(ctx, q, id, normalized).Scan(
		&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.ImageURL, &e.Category,
		&e.OwnerID, &e.OwnerName, &e.AttendeesAmount, &e.Invitees, &e.Place,
		&e.CreatedAt, &e.UpdatedAt, &added)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrNotFound
		}
		return nil, false, err
	}
	return &e, added, nil
}
