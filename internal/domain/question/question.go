package question

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("question not found")
	ErrForbidden  = errors.New("only admins can modify questions")
	ErrValidation = errors.New("invalid question input")
)

type Question struct {
	ID            string     `json:"id"`
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	Category      string     `json:"category"`
	CreatedBy     string     `json:"createdBy"`
	CreatedByName string     `json:"createdByName,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt"` // nil until the first edit
}

// the admin id travels in the body; there is no auth header.
type CreateQuestionRequest struct {
	Question string `json:"question" binding:"required,max=5000"`
	Answer   string `json:"answer" binding:"required,max=20000"`
	Category string `json:"category" binding:"required,max=100"`
	AdminID  string `json:"adminId" binding:"required"`
}

// full replacement, same shape as create.
type UpdateQuestionRequest struct {
	Question string `json:"question" binding:"required,max=5000"`
	Answer   string `json:"answer" binding:"required,max=20000"`
	Category string `json:"category" binding:"required,max=100"`
	AdminID  string `json:"adminId" binding:"required"`
}

type DeleteQuestionRequest struct {
	AdminID string `json:"adminId" binding:"required"`
}
