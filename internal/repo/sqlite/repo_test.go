package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/geocoder89/qaportal/internal/domain/question"
	"github.com/geocoder89/qaportal/internal/domain/user"
	"github.com/google/uuid"
)

func newTestRepos(t *testing.T) (*UsersRepo, *QuestionsRepo) {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "qaportal.db"), false)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	return NewUsersRepo(db, nil), NewQuestionsRepo(db, nil)
}

func seedUser(t *testing.T, users *UsersRepo, email, role string) user.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	u, err := users.Create(context.Background(), user.User{
		ID:           uuid.NewString(),
		Name:         "Name " + email,
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	users, _ := newTestRepos(t)

	admin := seedUser(t, users, "admin@x.com", user.RoleAdmin)
	seedUser(t, users, "user@x.com", user.RoleUser)

	_, err := users.Create(ctx, user.User{ID: uuid.NewString(), Name: "dup", Email: "admin@x.com", PasswordHash: "h", Role: user.RoleUser})
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}

	got, err := users.GetByEmail(ctx, "admin@x.com")
	if err != nil || got.ID != admin.ID || got.Role != user.RoleAdmin {
		t.Fatalf("get by email: %+v %v", got, err)
	}

	if _, err := users.GetByEmail(ctx, "ADMIN@x.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("email lookup must be exact, got %v", err)
	}

	if _, err := users.GetByID(ctx, uuid.NewString()); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	admins, err := users.ListByRole(ctx, user.RoleAdmin)
	if err != nil || len(admins) != 1 || admins[0].ID != admin.ID {
		t.Fatalf("list admins: %+v %v", admins, err)
	}

	if err := users.UpdatePasswordHash(ctx, admin.ID, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	got, _ = users.GetByID(ctx, admin.ID)
	if got.PasswordHash != "new-hash" {
		t.Fatalf("password hash not updated")
	}
}

func TestQuestionsRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	users, questions := newTestRepos(t)
	admin := seedUser(t, users, "admin@x.com", user.RoleAdmin)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		q := question.New(question.Content{Question: "Q", Answer: "A", Category: "Apex"}, admin.ID, base.Add(time.Duration(i)*time.Minute))
		created, err := questions.Create(ctx, q)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.UpdatedAt != nil {
			t.Fatalf("new question must have nil updatedAt")
		}
		if created.CreatedByName != admin.Name {
			t.Fatalf("got author name %q, want %q", created.CreatedByName, admin.Name)
		}
		ids = append(ids, created.ID)
	}

	list, err := questions.List(ctx)
	if err != nil || len(list) != 3 {
		t.Fatalf("list: %d %v", len(list), err)
	}
	if list[0].ID != ids[2] || list[2].ID != ids[0] {
		t.Fatalf("list must be newest first")
	}

	updatedAt := base.Add(time.Hour)
	updated, err := questions.Update(ctx, question.Question{ID: ids[0], Question: "Q2", Answer: "A2", Category: "SOQL", UpdatedAt: &updatedAt})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Question != "Q2" || updated.CreatedBy != admin.ID || updated.UpdatedAt == nil || !updated.UpdatedAt.Equal(updatedAt) {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if !updated.CreatedAt.Equal(base) {
		t.Fatalf("created_at changed: %v", updated.CreatedAt)
	}

	if _, err := questions.Update(ctx, question.Question{ID: uuid.NewString(), UpdatedAt: &updatedAt}); !errors.Is(err, question.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	deleted, err := questions.Delete(ctx, ids[1])
	if err != nil || deleted.ID != ids[1] {
		t.Fatalf("delete: %+v %v", deleted, err)
	}
	if _, err := questions.GetByID(ctx, ids[1]); !errors.Is(err, question.ErrNotFound) {
		t.Fatalf("deleted question still readable: %v", err)
	}
	if _, err := questions.Delete(ctx, ids[1]); !errors.Is(err, question.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	mine, err := questions.ListByAuthor(ctx, admin.ID)
	if err != nil || len(mine) != 2 {
		t.Fatalf("list by author: %d %v", len(mine), err)
	}
	none, err := questions.ListByAuthor(ctx, uuid.NewString())
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty list for unknown author, got %d %v", len(none), err)
	}
}
