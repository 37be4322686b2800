package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
	"github.com/telhawk-systems/telhawk-watch/alerting/migrations"
	"github.com/telhawk-systems/telhawk-watch/common/database"
)

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool     *pgxpool.Pool
	timeouts database.Timeouts
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string, timeouts database.Timeouts) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool, timeouts: timeouts}, nil
}

// Migrate applies the embedded migrations to the database at connString.
// It returns the resulting schema version.
func Migrate(connString string) (uint, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, connString)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}
	version, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}

// ListActionNames returns the allow-list of every watch of tenant.
func (r *PostgresRepository) ListActionNames(ctx context.Context, tenant string) ([]models.WatchActionNames, error) {
	ctx, cancel := r.timeouts.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT watch_id, action_names
		FROM watch_definitions
		WHERE tenant = $1
		ORDER BY watch_id
	`
	rows, err := r.pool.Query(ctx, query, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to list watch definitions: %w", err)
	}
	defer rows.Close()

	defs := []models.WatchActionNames{}
	for rows.Next() {
		var def models.WatchActionNames
		if err := rows.Scan(&def.WatchID, &def.AllowedActionNames); err != nil {
			return nil, fmt.Errorf("failed to scan watch definition: %w", err)
		}
		if def.AllowedActionNames == nil {
			def.AllowedActionNames = []string{}
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watch definitions: %w", err)
	}
	return defs, nil
}

// UpsertDefinition stores the current action names of a watch.
func (r *PostgresRepository) UpsertDefinition(ctx context.Context, tenant string, def models.WatchActionNames) error {
	if err := ValidateDefinition(def); err != nil {
		return err
	}
	names := def.AllowedActionNames
	if names == nil {
		names = []string{}
	}

	ctx, cancel := r.timeouts.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO watch_definitions (tenant, watch_id, action_names)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant, watch_id)
		DO UPDATE SET action_names = EXCLUDED.action_names, updated_at = now()
	`
	if _, err := r.pool.Exec(ctx, query, tenant, def.WatchID, names); err != nil {
		return fmt.Errorf("failed to upsert watch definition: %w", err)
	}
	return nil
}

// DeleteDefinition removes a watch definition.
func (r *PostgresRepository) DeleteDefinition(ctx context.Context, tenant, watchID string) error {
	ctx, cancel := r.timeouts.WriteContext(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM watch_definitions WHERE tenant = $1 AND watch_id = $2`, tenant, watchID)
	if err != nil {
		return fmt.Errorf("failed to delete watch definition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDefinitionNotFound
	}
	return nil
}

// Ping checks the database connection.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
