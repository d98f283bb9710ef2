// Package store is the record store adapter: one durable row per account,
// holding the backend-controlled authority columns plus the Account
// aggregate as a JSONB document. Writes replace the whole document; a
// version column rejects saves against a record that changed since load.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/minecloud/backend/internal/models"
	"github.com/minecloud/backend/internal/roles"
)

// Schema is the DDL for the profiles table.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id            uuid PRIMARY KEY,
	email         text NOT NULL UNIQUE,
	password_hash text NOT NULL,
	is_admin      boolean NOT NULL DEFAULT FALSE,
	role          text NOT NULL DEFAULT 'user',
	version       bigint NOT NULL DEFAULT 1,
	data          jsonb NOT NULL,
	created_at    timestamptz NOT NULL DEFAULT now(),
	updated_at    timestamptz NOT NULL DEFAULT now()
);
`

type ProfileRepo struct {
	pool   *pgxpool.Pool
	schema *jsonschema.Schema
}

func NewProfileRepo(pool *pgxpool.Pool) (*ProfileRepo, error) {
	schema, err := compileDocumentSchema()
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}
	return &ProfileRepo{pool: pool, schema: schema}, nil
}

// Migrate creates the profiles table if it does not exist.
func (r *ProfileRepo) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

// Create inserts a new profile with version 1.
func (r *ProfileRepo) Create(ctx context.Context, p *models.Profile, passwordHash string) error {
	data, err := json.Marshal(p.Account)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO profiles (id, email, password_hash, is_admin, role, version, data)
		VALUES ($1, $2, $3, $4, $5, 1, $6)
	`, p.ID, strings.ToLower(p.Email), passwordHash, p.IsAdmin, p.Role, data)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	p.Version = 1
	return nil
}

// GetByID loads one profile. The document blob is schema-checked before it
// is trusted, and the document's role label is overwritten with the
// authority resolved from the backend columns.
func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, is_admin, role, version, data
		FROM profiles WHERE id = $1
	`, id)
	return r.scanProfile(row)
}

// GetByEmail loads one profile by its lowercase email.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, is_admin, role, version, data
		FROM profiles WHERE email = $1
	`, strings.ToLower(email))
	return r.scanProfile(row)
}

// GetCredentialsByEmail returns the profile together with its password hash,
// for login.
func (r *ProfileRepo) GetCredentialsByEmail(ctx context.Context, email string) (*models.Profile, string, error) {
	var raw []byte
	var hash string
	p := &models.Profile{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, is_admin, role, version, password_hash, data
		FROM profiles WHERE email = $1
	`, strings.ToLower(email)).Scan(&p.ID, &p.Email, &p.IsAdmin, &p.Role, &p.Version, &hash, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	if err := r.unmarshalDocument(p, raw); err != nil {
		return nil, "", err
	}
	return p, hash, nil
}

// GetAuthority returns the backend-controlled authority columns without
// loading the document. Used per request by the auth middleware.
func (r *ProfileRepo) GetAuthority(ctx context.Context, id uuid.UUID) (email string, isAdmin bool, role string, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT email, is_admin, role FROM profiles WHERE id = $1
	`, id).Scan(&email, &isAdmin, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		err = ErrNotFound
	}
	return email, isAdmin, role, err
}

// Save replaces the whole document, guarded by the version loaded with the
// profile. A stale version writes nothing and returns ErrConflict.
func (r *ProfileRepo) Save(ctx context.Context, p *models.Profile) error {
	data, err := json.Marshal(p.Account)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET data = $1, email = $2, version = version + 1, updated_at = now()
		WHERE id = $3 AND version = $4
	`, data, strings.ToLower(p.Account.Email), p.ID, p.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	p.Version++
	return nil
}

// List returns all profiles, newest first. Admin tooling only.
func (r *ProfileRepo) List(ctx context.Context) ([]*models.Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, is_admin, role, version, data
		FROM profiles ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Profile
	for rows.Next() {
		p, err := r.scanProfile(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ListIDs returns every profile id. Used by the settle sweep.
func (r *ProfileRepo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM profiles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetRole updates the authority columns. Only admin tooling calls this; the
// document label is re-resolved on the next load.
func (r *ProfileRepo) SetRole(ctx context.Context, id uuid.UUID, isAdmin bool, role string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles SET is_admin = $2, role = $3, updated_at = now() WHERE id = $1
	`, id, isAdmin, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPasswordHash replaces the stored credential for an email.
func (r *ProfileRepo) SetPasswordHash(ctx context.Context, email, hash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles SET password_hash = $2, updated_at = now() WHERE email = $1
	`, strings.ToLower(email), hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EmailExists reports whether a profile with the email exists.
func (r *ProfileRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM profiles WHERE email = $1)
	`, strings.ToLower(email)).Scan(&exists)
	return exists, err
}

func (r *ProfileRepo) scanProfile(row pgx.Row) (*models.Profile, error) {
	var raw []byte
	p := &models.Profile{}
	err := row.Scan(&p.ID, &p.Email, &p.IsAdmin, &p.Role, &p.Version, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.unmarshalDocument(p, raw); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepo) unmarshalDocument(p *models.Profile, raw []byte) error {
	if err := validateDocument(r.schema, raw); err != nil {
		return fmt.Errorf("profile %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(raw, &p.Account); err != nil {
		return fmt.Errorf("profile %s: %w", p.ID, err)
	}
	// The client-visible label never survives a load.
	p.Account.Role = roles.Resolve(p.IsAdmin, p.Role)
	return nil
}
