package database

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/pawhncho/futurepulse/internal/domain"
)

// userColumns must match the Scan order in scanUser.
const userColumns = `id, username, email, password_hash, first_name, last_name, email_verified, created_at, updated_at`

const tokenKeyBytes = 20

// UserRepo implements domain.UserRepository backed by PostgreSQL.
type UserRepo struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

func NewUserRepo(pool *pgxpool.Pool, clock clockwork.Clock) *UserRepo {
	return &UserRepo{pool: pool, clock: clock}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.EmailVerified,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	defer observe(r.clock, "user_create")()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		username, email, passwordHash)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return nil, domain.ErrUsernameTaken
			case "users_email_key":
				return nil, domain.ErrEmailTaken
			}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	defer observe(r.clock, "user_get_by_id")()

	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	defer observe(r.clock, "user_get_by_username")()

	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer observe(r.clock, "user_get_by_email")()

	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	defer observe(r.clock, "user_update_password")()

	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	defer observe(r.clock, "user_mark_email_verified")()

	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) CreateToken(ctx context.Context, userID uuid.UUID) (*domain.APIToken, error) {
	defer observe(r.clock, "token_create")()

	raw := make([]byte, tokenKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	key := hex.EncodeToString(raw)

	var token domain.APIToken
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tokens (key, user_id)
		VALUES ($1, $2)
		RETURNING key, user_id, created_at`,
		key, userID).Scan(&token.Key, &token.UserID, &token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return &token, nil
}

func (r *UserRepo) GetUserByToken(ctx context.Context, key string) (*domain.User, error) {
	defer observe(r.clock, "user_get_by_token")()

	user, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT `+prefixedUserColumns("u")+`
		FROM users u
		JOIN tokens t ON t.user_id = u.id
		WHERE t.key = $1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by token: %w", err)
	}
	return user, nil
}

func prefixedUserColumns(alias string) string {
	return alias + ".id, " + alias + ".username, " + alias + ".email, " + alias + ".password_hash, " +
		alias + ".first_name, " + alias + ".last_name, " + alias + ".email_verified, " +
		alias + ".created_at, " + alias + ".updated_at"
}
