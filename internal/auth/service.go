package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/geocoder89/qaportal/internal/domain/user"
	"github.com/geocoder89/qaportal/internal/security"
	"github.com/google/uuid"
)

const MinPasswordLength = 6

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// Service registers accounts and checks credentials. It hands out a
// user.Session on login and keeps nothing about it afterwards.
type Service struct {
	users          UserStore
	bootstrapAdmin func(email string) bool
	now            func() time.Time
	log            *slog.Logger
}

type Option func(*Service)

// WithBootstrapAdmins marks emails that get the admin role when they register.
func WithBootstrapAdmins(isAdmin func(email string) bool) Option {
	return func(s *Service) { s.bootstrapAdmin = isAdmin }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(users UserStore, opts ...Option) *Service {
	s := &Service{
		users:          users,
		bootstrapAdmin: func(string) bool { return false },
		now:            time.Now,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Register(ctx context.Context, name, email, password string) (user.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	switch {
	case name == "" || email == "" || password == "":
		return user.User{}, fmt.Errorf("%w: name, email and password are required", user.ErrValidation)
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return user.User{}, fmt.Errorf("%w: password must be at least %d characters", user.ErrValidation, MinPasswordLength)
	case len(password) > security.MaxPasswordBytes:
		return user.User{}, fmt.Errorf("%w: password must be at most %d bytes", user.ErrValidation, security.MaxPasswordBytes)
	}

	// cheap pre-check; the unique index still decides under a race
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user.User{}, user.ErrEmailTaken
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	role := user.RoleUser
	if s.bootstrapAdmin(email) {
		role = user.RoleAdmin
	}

	now := s.now().UTC().Truncate(time.Microsecond)

	u, err := s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return user.User{}, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Login fails with ErrInvalidCredentials for unknown emails and wrong passwords alike.
func (s *Service) Login(ctx context.Context, email, password string) (user.Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Session{}, user.ErrInvalidCredentials
		}
		return user.Session{}, err
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return user.Session{}, user.ErrInvalidCredentials
	}

	if security.NeedsRehash(u.PasswordHash) {
		s.upgradeHash(ctx, u.ID, password)
	}

	return u.Session(), nil
}

// upgradeHash moves a legacy password to bcrypt. Failure only costs another try next login.
func (s *Service) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := security.HashPassword(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		s.log.WarnContext(ctx, "password rehash failed", "user_id", userID, "err", err)
		return
	}
	s.log.InfoContext(ctx, "legacy password upgraded", "user_id", userID)
}
