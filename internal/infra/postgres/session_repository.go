package postgres

import (
	"context"
	"time"

	"untrivially-api/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
)

const tokenColumns = `t.id::text, t.user_id::text, t.hashed_token, t.user_agent, t.ip_address, t.created_at, t.updated_at`

const userColumns = `u.id::text, u.email, u.name, u.avatar_url, u.created_at`

// SessionRepository stores refresh tokens with plain SQL on a pgx pool.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO refresh_tokens (user_id, hashed_token, user_agent, ip_address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id::text`,
		token.UserID, token.HashedToken, token.UserAgent, token.IPAddress, token.CreatedAt, token.UpdatedAt,
	).Scan(&token.ID)
	if err != nil {
		return errors.Wrap(err, "insert refresh token")
	}
	return nil
}

func (r *SessionRepository) FindByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+`, `+userColumns+`
		 FROM refresh_tokens t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.hashed_token = $1`,
		hash,
	)
	return scanTokenWithUser(row)
}

func (r *SessionRepository) TakeByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	row := r.pool.QueryRow(ctx,
		`WITH t AS (
		     DELETE FROM refresh_tokens WHERE hashed_token = $1
		     RETURNING id, user_id, hashed_token, user_agent, ip_address, created_at, updated_at
		 )
		 SELECT `+tokenColumns+`, `+userColumns+`
		 FROM t
		 JOIN users u ON u.id = t.user_id`,
		hash,
	)
	return scanTokenWithUser(row)
}

func (r *SessionRepository) DeleteByHash(ctx context.Context, hash string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE hashed_token = $1`, hash)
	if err != nil {
		return 0, errors.Wrap(err, "delete refresh token")
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tokenColumns+`
		 FROM refresh_tokens t
		 WHERE t.user_id = $1
		 ORDER BY t.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "select refresh tokens")
	}
	defer rows.Close()

	tokens := make([]domain.RefreshToken, 0)
	for rows.Next() {
		var t domain.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.HashedToken, &t.UserAgent, &t.IPAddress, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan refresh token")
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate refresh tokens")
	}
	return tokens, nil
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "delete user refresh tokens")
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "purge refresh tokens")
	}
	return tag.RowsAffected(), nil
}

func scanTokenWithUser(row pgx.Row) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := row.Scan(
		&t.ID, &t.UserID, &t.HashedToken, &t.UserAgent, &t.IPAddress, &t.CreatedAt, &t.UpdatedAt,
		&t.User.ID, &t.User.Email, &t.User.Name, &t.User.AvatarURL, &t.User.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RefreshToken{}, domain.ErrRefreshTokenNotFound
	}
	if err != nil {
		return domain.RefreshToken{}, errors.Wrap(err, "scan refresh token")
	}
	return t, nil
}
