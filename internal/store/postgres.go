package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

// PostgresStore handles users, profiles and both listing tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS users (
		id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email           VARCHAR(255) UNIQUE NOT NULL,
		password        VARCHAR(255) NOT NULL,
		email_confirmed BOOLEAN      NOT NULL DEFAULT FALSE,
		created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id           UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		full_name    TEXT,
		phone_number TEXT,
		city         TEXT,
		user_type    TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sale_properties (
		id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id       UUID   NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title         TEXT   NOT NULL,
		description   TEXT,
		price         BIGINT NOT NULL CHECK (price > 0),
		property_type TEXT   NOT NULL,
		bedrooms      INTEGER,
		bathrooms     INTEGER,
		area          INTEGER,
		location      TEXT,
		address       TEXT,
		contact_name  TEXT,
		contact_phone TEXT,
		contact_email TEXT,
		images        TEXT[] NOT NULL DEFAULT '{}',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS rental_properties (
		id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id          UUID   NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title            TEXT   NOT NULL,
		description      TEXT,
		monthly_rent     BIGINT NOT NULL CHECK (monthly_rent > 0),
		security_deposit BIGINT,
		property_type    TEXT   NOT NULL,
		bedrooms         INTEGER,
		bathrooms        INTEGER,
		parking          INTEGER,
		area             INTEGER,
		furnished        TEXT CHECK (furnished IN ('fully', 'semi', 'unfurnished')),
		location         TEXT,
		address          TEXT,
		available_from   DATE,
		lease_duration   TEXT,
		contact_name     TEXT,
		contact_phone    TEXT,
		contact_email    TEXT,
		amenities        TEXT[] NOT NULL DEFAULT '{}',
		images           TEXT[] NOT NULL DEFAULT '{}',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS sale_properties_user_idx ON sale_properties (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS rental_properties_user_idx ON rental_properties (user_id, created_at DESC)`,
}

// Migrate creates the tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return classify("PostgresStore.Migrate", err)
		}
	}
	return nil
}

// Ping checks connectivity for the health endpoint.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return classify("PostgresStore.Ping", s.pool.Ping(ctx))
}

// classify maps driver errors onto the apperr taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFoundErr(op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &apperr.Error{Kind: apperr.Validation, Op: op, Message: "record already exists", Err: err}
		case "22P02":
			// malformed uuid in a lookup: no such row
			return apperr.NotFoundErr(op, err)
		case "23502", "23514":
			return &apperr.Error{Kind: apperr.Validation, Op: op, Message: "record violates a constraint", Err: err}
		}
		return apperr.Wrap(apperr.Internal, op, err)
	}
	return apperr.Wrap(apperr.Network, op, err)
}

// CreateUserWithProfile inserts the account and its profile in one transaction.
func (s *PostgresStore) CreateUserWithProfile(ctx context.Context, u *models.User, p *models.Profile) (*models.User, error) {
	const op = "PostgresStore.CreateUserWithProfile"
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, classify(op, err)
	}
	defer tx.Rollback(ctx)

	created := *u
	err = tx.QueryRow(ctx,
		`INSERT INTO users (email, password, email_confirmed)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		u.Email, u.Password, u.EmailConfirmed,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, &apperr.Error{Kind: apperr.Validation, Op: op, Field: "email", Message: "user already registered", Err: err}
		}
		return nil, classify(op, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO profiles (id, full_name, phone_number, city, user_type)
		 VALUES ($1, $2, $3, $4, $5)`,
		created.ID, p.FullName, p.PhoneNumber, p.City, p.UserType,
	)
	if err != nil {
		return nil, classify(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, classify(op, err)
	}
	return &created, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password, email_confirmed, created_at FROM users WHERE lower(email) = lower($1)`, email,
	).Scan(&u.ID, &u.Email, &u.Password, &u.EmailConfirmed, &u.CreatedAt)
	if err != nil {
		return nil, classify("PostgresStore.GetUserByEmail", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, email_confirmed, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.EmailConfirmed, &u.CreatedAt)
	if err != nil {
		return nil, classify("PostgresStore.GetUserByID", err)
	}
	return &u, nil
}

func (s *PostgresStore) ConfirmEmail(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET email_confirmed = TRUE WHERE id = $1`, userID)
	if err != nil {
		return classify("PostgresStore.ConfirmEmail", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundErr("PostgresStore.ConfirmEmail", nil)
	}
	return nil
}

// GetProfile returns the profile row of a user.
func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT id, full_name, phone_number, city, user_type, created_at, updated_at
		 FROM profiles WHERE id = $1`, userID,
	).Scan(&p.ID, &p.FullName, &p.PhoneNumber, &p.City, &p.UserType, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, classify("PostgresStore.GetProfile", err)
	}
	return &p, nil
}
