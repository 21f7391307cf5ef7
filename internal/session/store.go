package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foodrescue/foodrescued/internal/backend"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists sessions in Postgres. Sessions live until logout or until
// the TTL cutoff; the TTL exists only to bound the table, not as a security
// measure.
type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewStore creates a session store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	return &Store{pool: pool, ttl: ttl}
}

// Create opens a session for the given user and returns it together with the
// plaintext token for the cookie.
func (s *Store) Create(ctx context.Context, user *backend.User) (*Session, string, error) {
	plaintext, hash, err := GenerateToken()
	if err != nil {
		return nil, "", err
	}

	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		UserRole:  user.Rolle,
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, token_hash, user_id, user_name, user_email, user_role)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		sess.ID, hash, sess.UserID, sess.UserName, sess.UserEmail, sess.UserRole,
	).Scan(&sess.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("creating session: %w", err)
	}

	return sess, plaintext, nil
}

// Lookup resolves a plaintext token to its session. It returns (nil, nil)
// when no live session matches.
func (s *Store) Lookup(ctx context.Context, token string) (*Session, error) {
	cutoff := time.Now().Add(-s.ttl)

	sess := &Session{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, user_name, user_email, user_role, created_at
		 FROM sessions WHERE token_hash = $1 AND created_at > $2`,
		HashToken(token), cutoff,
	).Scan(&sess.ID, &sess.UserID, &sess.UserName, &sess.UserEmail, &sess.UserRole, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	return sess, nil
}

// Delete removes the session for the given token. Deleting an unknown token
// is not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, HashToken(token))
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpired prunes sessions older than the TTL cutoff.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE created_at <= $1`, time.Now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
