package db

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/qaportal/internal/config"
	"github.com/geocoder89/qaportal/internal/domain/question"
	"github.com/geocoder89/qaportal/internal/domain/user"
	"github.com/geocoder89/qaportal/internal/security"
	"github.com/google/uuid"
)

// Seeding goes through the repositories so it works for every store driver.

type UserSeeder interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type QuestionSeeder interface {
	ListByAuthor(ctx context.Context, authorID string) ([]question.Question, error)
	Create(ctx context.Context, q question.Question) (question.Question, error)
}

// EnsureAdminUser creates the configured admin account if it does not exist yet.
// It returns the admin (existing or new); the zero User means seeding is disabled.
func EnsureAdminUser(ctx context.Context, users UserSeeder, cfg config.Config) (user.User, error) {
	if !cfg.SeedsAdmin() {
		return user.User{}, nil
	}

	existing, err := users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return user.User{}, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)

	u := user.User{
		ID:           uuid.NewString(),
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := users.Create(ctx, u)

	// another replica won the race
	if errors.Is(err, user.ErrEmailTaken) {
		return users.GetByEmail(ctx, cfg.AdminEmail)
	}

	return created, err
}

var defaultQuestions = []question.Content{
	{
		Question: "What is Salesforce?",
		Answer:   "Salesforce is a cloud-based Customer Relationship Management (CRM) platform that helps organizations manage customer interactions, sales processes, and business relationships in real-time.",
		Category: "Configuration",
	},
	{
		Question: "What is SOQL?",
		Answer:   "SOQL (Salesforce Object Query Language) is a query language that allows you to retrieve records from Salesforce using syntax similar to SQL. It can only query one object at a time.",
		Category: "SOQL",
	},
	{
		Question: "Explain Apex Triggers",
		Answer:   "Apex Triggers are pieces of code that execute before or after specific database events on a particular sObject in Salesforce. They can be used to update records, validate data, or perform business logic.",
		Category: "Apex",
	},
	{
		Question: "What is Lightning Web Components?",
		Answer:   "Lightning Web Components (LWC) is a modern web components framework for building fast and scalable web applications using standard JavaScript, HTML, and CSS.",
		Category: "Lightning",
	},
	{
		Question: "What is the difference between SOQL and SOSL?",
		Answer:   "SOQL (Salesforce Object Query Language) searches data in a single sObject, while SOSL (Salesforce Object Search Language) can search for text across multiple fields and objects simultaneously.",
		Category: "SOQL",
	},
}

// SeedQuestions adds the starter questions under the given admin unless that
// admin already authored something. Returns how many were inserted.
func SeedQuestions(ctx context.Context, questions QuestionSeeder, admin user.User) (int, error) {
	if admin.ID == "" || !admin.IsAdmin() {
		return 0, nil
	}

	existing, err := questions.ListByAuthor(ctx, admin.ID)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	base := time.Now().UTC().Truncate(time.Microsecond)

	for i, c := range defaultQuestions {
		// keep the listed order when sorting newest first
		createdAt := base.Add(-time.Duration(i) * time.Second)

		if _, err := questions.Create(ctx, question.New(c, admin.ID, createdAt)); err != nil {
			return i, err
		}
	}
	return len(defaultQuestions), nil
}
