package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/qaportal/internal/domain/question"
	"github.com/geocoder89/qaportal/internal/observability"
	"gorm.io/gorm"
)

type QuestionsRepo struct {
	db   *gorm.DB
	prom *observability.Prom
}

func NewQuestionsRepo(db *gorm.DB, prom *observability.Prom) *QuestionsRepo {
	return &QuestionsRepo{db: db, prom: prom}
}

func (r questionRow) toDomain() question.Question {
	q := question.Question{
		ID:            r.ID,
		Question:      r.Question,
		Answer:        r.Answer,
		Category:      r.Category,
		CreatedBy:     r.CreatedBy,
		CreatedByName: r.Author.Name,
		CreatedAt:     r.CreatedAt.UTC(),
	}
	if r.UpdatedAt != nil {
		t := r.UpdatedAt.UTC()
		q.UpdatedAt = &t
	}
	return q
}

func (r *QuestionsRepo) List(ctx context.Context) ([]question.Question, error) {
	return r.find(ctx, "questions.list", nil)
}

func (r *QuestionsRepo) ListByAuthor(ctx context.Context, authorID string) ([]question.Question, error) {
	return r.find(ctx, "questions.list_by_author", func(tx *gorm.DB) *gorm.DB {
		return tx.Where("created_by = ?", authorID)
	})
}

func (r *QuestionsRepo) GetByID(ctx context.Context, id string) (question.Question, error) {
	return r.get(ctx, "questions.get", r.db.WithContext(ctx), id)
}

func (r *QuestionsRepo) Create(ctx context.Context, q question.Question) (question.Question, error) {
	row := questionRow{
		ID:        q.ID,
		Question:  q.Question,
		Answer:    q.Answer,
		Category:  q.Category,
		CreatedBy: q.CreatedBy,
		CreatedAt: q.CreatedAt,
	}

	err := r.prom.ObserveDB("questions.create", func() error {
		return r.db.WithContext(ctx).Omit("Author").Create(&row).Error
	})
	if err != nil {
		return question.Question{}, fmt.Errorf("questions.create: %w", err)
	}

	return r.GetByID(ctx, q.ID)
}

func (r *QuestionsRepo) Update(ctx context.Context, q question.Question) (question.Question, error) {
	var out question.Question

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var affected int64

		err := r.prom.ObserveDB("questions.update", func() error {
			res := tx.Model(&questionRow{}).
				Where("id = ?", q.ID).
				Updates(map[string]any{
					"question":   q.Question,
					"answer":     q.Answer,
					"category":   q.Category,
					"updated_at": q.UpdatedAt,
				})
			affected = res.RowsAffected
			return res.Error
		})
		if err != nil {
			return fmt.Errorf("questions.update: %w", err)
		}
		if affected == 0 {
			return question.ErrNotFound
		}

		out, err = r.get(ctx, "questions.get", tx, q.ID)
		return err
	})

	if err != nil {
		return question.Question{}, err
	}
	return out, nil
}

// Delete returns the row as it was before removal.
func (r *QuestionsRepo) Delete(ctx context.Context, id string) (question.Question, error) {
	var out question.Question

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = r.get(ctx, "questions.get", tx, id)
		if err != nil {
			return err
		}

		return r.prom.ObserveDB("questions.delete", func() error {
			return tx.Where("id = ?", id).Delete(&questionRow{}).Error
		})
	})

	if err != nil {
		if errors.Is(err, question.ErrNotFound) {
			return question.Question{}, err
		}
		return question.Question{}, fmt.Errorf("questions.delete: %w", err)
	}
	return out, nil
}

func (r *QuestionsRepo) get(ctx context.Context, op string, tx *gorm.DB, id string) (question.Question, error) {
	var row questionRow

	err := r.prom.ObserveDB(op, func() error {
		return tx.WithContext(ctx).Joins("Author").Where("questions.id = ?", id).Take(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return question.Question{}, question.ErrNotFound
		}
		return question.Question{}, fmt.Errorf("%s: %w", op, err)
	}
	return row.toDomain(), nil
}

func (r *QuestionsRepo) find(ctx context.Context, op string, scope func(*gorm.DB) *gorm.DB) ([]question.Question, error) {
	var rows []questionRow

	err := r.prom.ObserveDB(op, func() error {
		tx := r.db.WithContext(ctx).Joins("Author")
		if scope != nil {
			tx = scope(tx)
		}
		return tx.Order("questions.created_at DESC").Order("questions.id DESC").Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]question.Question, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
