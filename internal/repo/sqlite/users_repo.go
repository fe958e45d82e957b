package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/qaportal/internal/domain/user"
	"github.com/geocoder89/qaportal/internal/observability"
	"gorm.io/gorm"
)

type UsersRepo struct {
	db   *gorm.DB
	prom *observability.Prom
}

func NewUsersRepo(db *gorm.DB, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, prom: prom}
}

func toUserRow(u user.User) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r userRow) toDomain() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	row := toUserRow(u)

	err := r.prom.ObserveDB("users.create", func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("users.create: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.first(ctx, "users.get_by_email", "email = ?", email)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.first(ctx, "users.get_by_id", "id = ?", id)
}

func (r *UsersRepo) ListByRole(ctx context.Context, role string) ([]user.User, error) {
	var rows []userRow

	err := r.prom.ObserveDB("users.list_by_role", func() error {
		return r.db.WithContext(ctx).
			Where("role = ?", role).
			Order("created_at ASC").Order("id ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("users.list_by_role: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *UsersRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	var affected int64

	err := r.prom.ObserveDB("users.update_password", func() error {
		res := r.db.WithContext(ctx).Model(&userRow{}).
			Where("id = ?", id).
			Updates(map[string]any{"password_hash": hash, "updated_at": r.db.NowFunc()})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("users.update_password: %w", err)
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) first(ctx context.Context, op, cond string, arg any) (user.User, error) {
	var row userRow

	err := r.prom.ObserveDB(op, func() error {
		return r.db.WithContext(ctx).Where(cond, arg).Take(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return row.toDomain(), nil
}
