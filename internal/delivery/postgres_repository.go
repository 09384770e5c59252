package delivery

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the deliveries table.
const Schema = `
CREATE TABLE IF NOT EXISTS deliveries (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	time_window TEXT NOT NULL DEFAULT '',
	address     TEXT NOT NULL,
	status      TEXT NOT NULL,
	accepted_at TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS deliveries_status_idx ON deliveries (status, accepted_at);
`

const selectColumns = `
	SELECT
		id, name, time_window, address, status,
		accepted_at, created_at, updated_at
	FROM deliveries
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL delivery repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the schema if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

// Get retrieves a delivery by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Delivery, error) {
	d, err := scanDelivery(r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// List returns deliveries in creation order.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]*Delivery, error) {
	query := selectColumns + ` WHERE ($1 = '' OR status = $1) ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, string(opts.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create creates a new delivery.
func (r *PostgresRepository) Create(ctx context.Context, d *Delivery) error {
	query := `
		INSERT INTO deliveries (
			id, name, time_window, address, status,
			accepted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		d.ID,
		d.Name,
		d.TimeWindow,
		d.Address,
		string(d.Status),
		d.AcceptedAt,
		d.CreatedAt,
		d.UpdatedAt,
	)
	return err
}

// Update updates an existing delivery.
func (r *PostgresRepository) Update(ctx context.Context, d *Delivery) error {
	query := `
		UPDATE deliveries SET
			name = $2,
			time_window = $3,
			address = $4,
			status = $5,
			accepted_at = $6,
			updated_at = $7
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		d.ID,
		d.Name,
		d.TimeWindow,
		d.Address,
		string(d.Status),
		d.AcceptedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a delivery by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM deliveries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDelivery(row pgx.Row) (*Delivery, error) {
	var (
		d      Delivery
		status string
	)
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.TimeWindow,
		&d.Address,
		&status,
		&d.AcceptedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Status = Status(status)
	return &d, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
