package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/qaportal/internal/domain/question"
	"github.com/geocoder89/qaportal/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QuestionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewQuestionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *QuestionsRepo {
	return &QuestionsRepo{
		pool: pool,
		prom: prom,
	}
}

// every read joins the author so responses carry createdByName
const selectQuestions = `
	SELECT q.id, q.question, q.answer, q.category, q.created_by, COALESCE(u.name, ''),
	       q.created_at, q.updated_at
	FROM questions q
	LEFT JOIN users u ON u.id = q.created_by`

func scanQuestion(row pgx.Row, q *question.Question) error {
	return row.Scan(
		&q.ID,
		&q.Question,
		&q.Answer,
		&q.Category,
		&q.CreatedBy,
		&q.CreatedByName,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
}

func (r *QuestionsRepo) List(ctx context.Context) ([]question.Question, error) {
	return r.query(ctx, "questions.list",
		selectQuestions+` ORDER BY q.created_at DESC, q.id DESC`)
}

func (r *QuestionsRepo) ListByAuthor(ctx context.Context, authorID string) ([]question.Question, error) {
	return r.query(ctx, "questions.list_by_author",
		selectQuestions+` WHERE q.created_by = $1 ORDER BY q.created_at DESC, q.id DESC`, authorID)
}

func (r *QuestionsRepo) GetByID(ctx context.Context, id string) (question.Question, error) {
	var q question.Question

	err := r.prom.ObserveDB("questions.get", func() error {
		return scanQuestion(r.pool.QueryRow(ctx, selectQuestions+` WHERE q.id = $1`, id), &q)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return question.Question{}, question.ErrNotFound
		}
		return question.Question{}, fmt.Errorf("questions.get: %w", err)
	}
	return q, nil
}

func (r *QuestionsRepo) Create(ctx context.Context, q question.Question) (question.Question, error) {
	var out question.Question

	err := r.prom.ObserveDB("questions.create", func() error {
		return scanQuestion(r.pool.QueryRow(ctx, `
			WITH inserted AS (
				INSERT INTO questions (id, question, answer, category, created_by, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,NULL)
				RETURNING *
			)
			SELECT q.id, q.question, q.answer, q.category, q.created_by, COALESCE(u.name, ''),
			       q.created_at, q.updated_at
			FROM inserted q
			LEFT JOIN users u ON u.id = q.created_by`,
			q.ID, q.Question, q.Answer, q.Category, q.CreatedBy, q.CreatedAt,
		), &out)
	})

	if err != nil {
		return question.Question{}, fmt.Errorf("questions.create: %w", err)
	}
	return out, nil
}

// Update replaces the editable fields; created_by and created_at never change.
func (r *QuestionsRepo) Update(ctx context.Context, q question.Question) (question.Question, error) {
	var out question.Question

	err := r.prom.ObserveDB("questions.update", func() error {
		return scanQuestion(r.pool.QueryRow(ctx, `
			WITH updated AS (
				UPDATE questions
				SET question = $2,
				    answer = $3,
				    category = $4,
				    updated_at = $5
				WHERE id = $1
				RETURNING *
			)
			SELECT q.id, q.question, q.answer, q.category, q.created_by, COALESCE(u.name, ''),
			       q.created_at, q.updated_at
			FROM updated q
			LEFT JOIN users u ON u.id = q.created_by`,
			q.ID, q.Question, q.Answer, q.Category, q.UpdatedAt,
		), &out)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return question.Question{}, question.ErrNotFound
		}
		return question.Question{}, fmt.Errorf("questions.update: %w", err)
	}
	return out, nil
}

// Delete returns the row as it was before removal.
func (r *QuestionsRepo) Delete(ctx context.Context, id string) (question.Question, error) {
	var out question.Question

	err := r.prom.ObserveDB("questions.delete", func() error {
		return scanQuestion(r.pool.QueryRow(ctx, `
			WITH deleted AS (
				DELETE FROM questions WHERE id = $1
				RETURNING *
			)
			SELECT q.id, q.question, q.answer, q.category, q.created_by, COALESCE(u.name, ''),
			       q.created_at, q.updated_at
			FROM deleted q
			LEFT JOIN users u ON u.id = q.created_by`, id), &out)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return question.Question{}, question.ErrNotFound
		}
		return question.Question{}, fmt.Errorf("questions.delete: %w", err)
	}
	return out, nil
}

func (r *QuestionsRepo) query(ctx context.Context, op, sql string, args ...any) ([]question.Question, error) {
	out := make([]question.Question, 0)

	err := r.prom.ObserveDB(op, func() error {
		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var q question.Question
			if err := scanQuestion(rows, &q); err != nil {
				return err
			}
			out = append(out, q)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
