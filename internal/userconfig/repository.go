package userconfig

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

// LookupBatchSize caps the number of emails per query to respect the
// store's "value in small batch" operator limit.
const LookupBatchSize = 10

// ErrNotFound is returned when a configuration does not exist.
var ErrNotFound = errors.New("user configuration not found")

// Repository handles user_configurations persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a user configuration repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const configColumns = `id, email, user_id, role, notifications_enabled, COALESCE(device_token,''), created_at, updated_at`

func scanConfig(row pgx.Row) (*models.UserConfiguration, error) {
	var c models.UserConfiguration
	err := row.Scan(&c.ID, &c.Email, &c.UserID, &c.Role, &c.NotificationsEnabled, &c.DeviceToken, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a notification profile for a newly registered account.
func (r *Repository) Create(ctx context.Context, c *models.UserConfiguration) error {
	const q = `INSERT INTO user_configurations (email, user_id, role, notifications_enabled, device_token)
		VALUES ($1, $2, $3, $4, NULLIF($5,''))
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, models.NormalizeEmail(c.Email), c.UserID, string(c.Role), c.NotificationsEnabled, c.DeviceToken).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetByEmail returns the configuration for a normalized email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.UserConfiguration, error) {
	return scanConfig(r.pool.QueryRow(ctx,
		`SELECT `+configColumns+` FROM user_configurations WHERE email = $1`,
		models.NormalizeEmail(email)))
}

// GetByUserID returns the configuration owned by a user.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserConfiguration, error) {
	return scanConfig(r.pool.QueryRow(ctx,
		`SELECT `+configColumns+` FROM user_configurations WHERE user_id = $1`, userID))
}

// GetByEmails returns configurations for the given emails, querying in
// batches of LookupBatchSize. Unknown emails are simply absent from the
// result.
func (r *Repository) GetByEmails(ctx context.Context, emails []string) ([]models.UserConfiguration, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	normalized := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		n := models.NormalizeEmail(e)
		if _, dup := seen[n]; dup || n == "" {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}

	var out []models.UserConfiguration
	for start := 0; start < len(normalized); start += LookupBatchSize {
		end := start + LookupBatchSize
		if end > len(normalized) {
			end = len(normalized)
		}
		rows, err := r.pool.Query(ctx,
			`SELECT `+configColumns+` FROM user_configurations WHERE email = ANY($1)`,
			normalized[start:end])
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			c, err := scanConfig(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, *c)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateSettings mutates the notification flag and/or device token.
func (r *Repository) UpdateSettings(ctx context.Context, userID uuid.UUID, enabled *bool, deviceToken *string) (*models.UserConfiguration, error) {
	const q = `UPDATE user_configurations SET
		notifications_enabled = COALESCE($2, notifications_enabled),
		device_token = COALESCE(NULLIF($3,''), device_token),
		updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + configColumns
	var token string
	if deviceToken != nil {
		token = *deviceToken
	}
	return scanConfig(r.pool.QueryRow(ctx, q, userID, enabled, token))
}
