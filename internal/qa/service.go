package qa

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/qaportal/internal/domain/question"
	"github.com/geocoder89/qaportal/internal/domain/user"
	"github.com/geocoder89/qaportal/internal/utils"
)

type QuestionStore interface {
	List(ctx context.Context) ([]question.Question, error)
	ListByAuthor(ctx context.Context, authorID string) ([]question.Question, error)
	GetByID(ctx context.Context, id string) (question.Question, error)
	Create(ctx context.Context, q question.Question) (question.Question, error)
	Update(ctx context.Context, q question.Question) (question.Question, error)
	Delete(ctx context.Context, id string) (question.Question, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	ListByRole(ctx context.Context, role string) ([]user.User, error)
}

// CreateInput is the editable content of a question; updates take the same shape.
type CreateInput = question.Content

// Service owns the question records. Reads are open to anyone, every mutation
// looks the acting user up again and requires the admin role.
type Service struct {
	questions QuestionStore
	users     UserStore
	now       func() time.Time
	log       *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(questions QuestionStore, users UserStore, opts ...Option) *Service {
	s := &Service{
		questions: questions,
		users:     users,
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]question.Question, error) {
	return s.questions.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (question.Question, error) {
	id, ok := utils.CanonicalUUID(id)
	if !ok {
		return question.Question{}, question.ErrNotFound
	}
	return s.questions.GetByID(ctx, id)
}

// ListByAuthor returns an empty list for ids that cannot belong to anyone.
func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]question.Question, error) {
	authorID, ok := utils.CanonicalUUID(authorID)
	if !ok {
		return []question.Question{}, nil
	}
	return s.questions.ListByAuthor(ctx, authorID)
}

func (s *Service) ListAdmins(ctx context.Context) ([]user.User, error) {
	return s.users.ListByRole(ctx, user.RoleAdmin)
}

func (s *Service) Create(ctx context.Context, in CreateInput, actingUserID string) (question.Question, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return question.Question{}, err
	}

	admin, err := s.authorize(ctx, actingUserID)
	if err != nil {
		return question.Question{}, err
	}

	q := question.New(in, admin.ID, s.now().UTC().Truncate(time.Microsecond))

	created, err := s.questions.Create(ctx, q)
	if err != nil {
		return question.Question{}, err
	}
	if created.CreatedByName == "" {
		created.CreatedByName = admin.Name
	}

	s.log.InfoContext(ctx, "question created", "question_id", created.ID, "admin_id", admin.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, in CreateInput, actingUserID string) (question.Question, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return question.Question{}, err
	}

	admin, err := s.authorize(ctx, actingUserID)
	if err != nil {
		return question.Question{}, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return question.Question{}, err
	}

	updatedAt := question.NextUpdatedAt(current, s.now())

	next := current
	next.Question = in.Question
	next.Answer = in.Answer
	next.Category = in.Category
	next.UpdatedAt = &updatedAt

	updated, err := s.questions.Update(ctx, next)
	if err != nil {
		return question.Question{}, err
	}

	s.log.InfoContext(ctx, "question updated", "question_id", updated.ID, "admin_id", admin.ID)
	return updated, nil
}

// Delete returns the record as it was right before removal.
func (s *Service) Delete(ctx context.Context, id, actingUserID string) (question.Question, error) {
	admin, err := s.authorize(ctx, actingUserID)
	if err != nil {
		return question.Question{}, err
	}

	id, ok := utils.CanonicalUUID(id)
	if !ok {
		return question.Question{}, question.ErrNotFound
	}

	deleted, err := s.questions.Delete(ctx, id)
	if err != nil {
		return question.Question{}, err
	}

	s.log.InfoContext(ctx, "question deleted", "question_id", deleted.ID, "admin_id", admin.ID)
	return deleted, nil
}

// authorize resolves the acting user against the store on every call.
func (s *Service) authorize(ctx context.Context, actingUserID string) (user.User, error) {
	id, ok := utils.CanonicalUUID(actingUserID)
	if !ok {
		return user.User{}, question.ErrForbidden
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, question.ErrForbidden
		}
		return user.User{}, err
	}

	if !u.IsAdmin() {
		s.log.WarnContext(ctx, "non-admin mutation rejected", "user_id", u.ID)
		return user.User{}, question.ErrForbidden
	}
	return u, nil
}
