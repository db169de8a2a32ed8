package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

var _ ports.PrincipalDirectory = (*PrincipalDirectory)(nil)

const uniqueViolation = "23505"

// PrincipalDirectory provides Postgres-backed persistence for principals.
type PrincipalDirectory struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against databaseURL and applies the schema.
func Connect(ctx context.Context, databaseURL string) (*PrincipalDirectory, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	d := &PrincipalDirectory{pool: pool}
	if err := d.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

// Close releases database resources.
func (d *PrincipalDirectory) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

// Ping checks connectivity.
func (d *PrincipalDirectory) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *PrincipalDirectory) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS principals (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS principals_email_unique_idx ON principals (email);`,
	}
	for _, stmt := range stmts {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const principalColumns = `id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at`

// Create inserts a new principal row.
func (d *PrincipalDirectory) Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	const query = `
		INSERT INTO principals (id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + principalColumns

	now := time.Now().UTC()
	row := d.pool.QueryRow(ctx, query,
		uuid.NewString(),
		domain.NormalizeEmail(p.Email),
		p.PasswordHash,
		p.FirstName,
		p.LastName,
		p.Role.String(),
		p.IsActive,
		now,
	)
	created, err := scanPrincipal(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert principal: %w", err)
	}
	return created, nil
}

// FindByEmail fetches a principal by normalized email.
func (d *PrincipalDirectory) FindByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE email = $1`, email)
	return scanPrincipal(row)
}

// FindByID fetches a principal by id.
func (d *PrincipalDirectory) FindByID(ctx context.Context, id string) (*domain.Principal, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
	return scanPrincipal(row)
}

// Update applies the non-nil fields of upd in a single statement.
func (d *PrincipalDirectory) Update(ctx context.Context, id string, upd ports.PrincipalUpdate) (*domain.Principal, error) {
	const query = `
		UPDATE principals SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			role       = COALESCE($4, role),
			is_active  = COALESCE($5, is_active),
			updated_at = $6
		WHERE id = $1
		RETURNING ` + principalColumns

	row := d.pool.QueryRow(ctx, query, updateArgs(id, upd, time.Now().UTC())...)
	updated, err := scanPrincipal(row)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update principal: %w", err)
	}
	return updated, nil
}

// updateArgs binds the update parameters; nil fields become NULL and keep the
// stored value through COALESCE.
func updateArgs(id string, upd ports.PrincipalUpdate, at time.Time) []any {
	var role *string
	if upd.Role != nil {
		r := upd.Role.String()
		role = &r
	}
	return []any{id, upd.FirstName, upd.LastName, role, upd.IsActive, at}
}

func scanPrincipal(row pgx.Row) (*domain.Principal, error) {
	var (
		p    domain.Principal
		role string
	)
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName, &role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, err
	}

	parsed, ok := domain.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("principal %s: unknown role %q", p.ID, role)
	}
	p.Role = parsed
	return &p, nil
}
