package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/qaportal/internal/domain/question"
	"github.com/geocoder89/qaportal/internal/domain/user"
)

// authorNames resolves created_by to a display name, like the SQL join does.
type authorNames interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type QuestionsRepo struct {
	mu    sync.RWMutex
	items map[string]question.Question
	users authorNames
}

func NewQuestionsRepo(users authorNames) *QuestionsRepo {
	return &QuestionsRepo{
		items: make(map[string]question.Question),
		users: users,
	}
}

func (r *QuestionsRepo) List(ctx context.Context) ([]question.Question, error) {
	return r.filter(ctx, func(question.Question) bool { return true }), nil
}

func (r *QuestionsRepo) ListByAuthor(ctx context.Context, authorID string) ([]question.Question, error) {
	return r.filter(ctx, func(q question.Question) bool { return q.CreatedBy == authorID }), nil
}

func (r *QuestionsRepo) GetByID(ctx context.Context, id string) (question.Question, error) {
	r.mu.RLock()
	q, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return question.Question{}, question.ErrNotFound
	}
	return r.withAuthor(ctx, q), nil
}

func (r *QuestionsRepo) Create(ctx context.Context, q question.Question) (question.Question, error) {
	q.CreatedByName = ""

	r.mu.Lock()
	r.items[q.ID] = copyQuestion(q)
	r.mu.Unlock()

	return r.withAuthor(ctx, q), nil
}

func (r *QuestionsRepo) Update(ctx context.Context, q question.Question) (question.Question, error) {
	r.mu.Lock()
	current, ok := r.items[q.ID]
	if !ok {
		r.mu.Unlock()
		return question.Question{}, question.ErrNotFound
	}

	current.Question = q.Question
	current.Answer = q.Answer
	current.Category = q.Category
	current.UpdatedAt = q.UpdatedAt
	current = copyQuestion(current)
	r.items[q.ID] = current
	r.mu.Unlock()

	return r.withAuthor(ctx, current), nil
}

func (r *QuestionsRepo) Delete(ctx context.Context, id string) (question.Question, error) {
	r.mu.Lock()
	q, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	r.mu.Unlock()

	if !ok {
		return question.Question{}, question.ErrNotFound
	}
	return r.withAuthor(ctx, q), nil
}

func (r *QuestionsRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *QuestionsRepo) filter(ctx context.Context, keep func(question.Question) bool) []question.Question {
	r.mu.RLock()
	out := make([]question.Question, 0, len(r.items))
	for _, q := range r.items {
		if keep(q) {
			out = append(out, q)
		}
	}
	r.mu.RUnlock()

	// newest first, id breaks ties so the order is stable
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	for i := range out {
		out[i] = r.withAuthor(ctx, out[i])
	}
	return out
}

func (r *QuestionsRepo) withAuthor(ctx context.Context, q question.Question) question.Question {
	q = copyQuestion(q)
	if r.users == nil {
		return q
	}
	if u, err := r.users.GetByID(ctx, q.CreatedBy); err == nil {
		q.CreatedByName = u.Name
	}
	return q
}

// callers must not be able to reach stored timestamps through the pointer
func copyQuestion(q question.Question) question.Question {
	if q.UpdatedAt != nil {
		t := *q.UpdatedAt
		q.UpdatedAt = &t
	}
	return q
}
