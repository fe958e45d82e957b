package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/qaportal/internal/domain/user"
	"github.com/geocoder89/qaportal/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row, u *user.User) error {
	return row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.prom.ObserveDB("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("users.create: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("users.get_by_email: %w", err)
	}
	return u, nil
}

// GetByID expects a canonical uuid; the column type rejects anything else.
func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("users.get_by_id: %w", err)
	}
	return u, nil
}

func (r *UsersRepo) ListByRole(ctx context.Context, role string) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.prom.ObserveDB("users.list_by_role", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at ASC, id ASC`, role)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var u user.User
			if err := scanUser(rows, &u); err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("users.list_by_role: %w", err)
	}
	return out, nil
}

func (r *UsersRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("users.update_password", func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
		return err
	})

	if err != nil {
		return fmt.Errorf("users.update_password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}
