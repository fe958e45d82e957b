package question

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Content is the editable part of a question.
type Content struct {
	Question string
	Answer   string
	Category string
}

func (c Content) Normalize() Content {
	return Content{
		Question: strings.TrimSpace(c.Question),
		Answer:   strings.TrimSpace(c.Answer),
		Category: strings.TrimSpace(c.Category),
	}
}

func (c Content) Validate() error {
	switch {
	case c.Question == "":
		return fmt.Errorf("%w: question is required", ErrValidation)
	case c.Answer == "":
		return fmt.Errorf("%w: answer is required", ErrValidation)
	case c.Category == "":
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	return nil
}

func New(c Content, authorID string, now time.Time) Question {
	return Question{
		ID:        uuid.NewString(),
		Question:  c.Question,
		Answer:    c.Answer,
		Category:  c.Category,
		CreatedBy: authorID,
		CreatedAt: now,
	}
}

// NextUpdatedAt returns a timestamp after both created_at and any previous
// updated_at. Stores keep microseconds, so that is the step.
func NextUpdatedAt(q Question, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)

	last := q.CreatedAt
	if q.UpdatedAt != nil && q.UpdatedAt.After(last) {
		last = *q.UpdatedAt
	}

	if !now.After(last) {
		return last.Add(time.Microsecond)
	}
	return now
}
