package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// The auth table holds a single row: one Strava athlete per database.

// GetAuth returns the stored Strava login, or ErrNoAuth
func (db *DB) GetAuth(ctx context.Context) (*Auth, error) {
	var a Auth
	var expiresAt string
	err := db.QueryRowContext(ctx,
		`SELECT athlete_id, access_token, refresh_token, expires_at FROM auth WHERE id = 1`,
	).Scan(&a.AthleteID, &a.AccessToken, &a.RefreshToken, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAuth
	}
	if err != nil {
		return nil, err
	}
	if a.ExpiresAt, err = parseTime("expires_at", expiresAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAuth replaces the stored login
func (db *DB) SaveAuth(ctx context.Context, a *Auth) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO auth (id, athlete_id, access_token, refresh_token, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, a.AthleteID, a.AccessToken, a.RefreshToken, formatTime(a.ExpiresAt), formatTime(time.Now()))
	return err
}

// UpdateTokens stores a refreshed token pair; ErrNoAuth if nobody is logged in
func (db *DB) UpdateTokens(ctx context.Context, accessToken, refreshToken string, expiresAt time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE auth SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ? WHERE id = 1`,
		accessToken, refreshToken, formatTime(expiresAt), formatTime(time.Now()))
	if err != nil {
		return err
	}
	return requireRow(res, ErrNoAuth)
}

// DeleteAuth forgets the stored login; ErrNoAuth if there was none
func (db *DB) DeleteAuth(ctx context.Context) error {
	res, err := db.ExecContext(ctx, `DELETE FROM auth WHERE id = 1`)
	if err != nil {
		return err
	}
	return requireRow(res, ErrNoAuth)
}

// requireRow returns notFound when res touched no rows
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
