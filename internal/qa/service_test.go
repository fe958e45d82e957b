package qa_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/qaportal/internal/auth"
	"github.com/geocoder89/qaportal/internal/domain/question"
	"github.com/geocoder89/qaportal/internal/domain/user"
	"github.com/geocoder89/qaportal/internal/qa"
	"github.com/geocoder89/qaportal/internal/repo/memory"
	"github.com/google/uuid"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fixedClock hands out the same instant until advanced.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc       *qa.Service
	users     *memory.UsersRepo
	questions *memory.QuestionsRepo
	clock     *fixedClock
	admin     user.User
	member    user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	users := memory.NewUsersRepo()
	questions := memory.NewQuestionsRepo(users)
	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	admin, err := users.Create(ctx, user.User{ID: uuid.NewString(), Name: "Admin User", Email: "admin@x.com", Role: user.RoleAdmin})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	member, err := users.Create(ctx, user.User{ID: uuid.NewString(), Name: "Regular", Email: "user@x.com", Role: user.RoleUser})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return &fixture{
		svc:       qa.NewService(questions, users, qa.WithClock(clock.Now), qa.WithLogger(discard)),
		users:     users,
		questions: questions,
		clock:     clock,
		admin:     admin,
		member:    member,
	}
}

func sample() qa.CreateInput {
	return qa.CreateInput{Question: "What is Apex?", Answer: "A strongly typed language.", Category: "Apex"}
}

func TestCreate_AdminSetsAuthorAndNullUpdatedAt(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.Create(context.Background(), sample(), f.admin.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q.CreatedBy != f.admin.ID {
		t.Fatalf("got created_by %q, want %q", q.CreatedBy, f.admin.ID)
	}
	if q.UpdatedAt != nil {
		t.Fatalf("updated_at must be null on create, got %v", q.UpdatedAt)
	}
	if q.CreatedByName != "Admin User" {
		t.Fatalf("got author name %q", q.CreatedByName)
	}
	if !q.CreatedAt.Equal(f.clock.Now()) {
		t.Fatalf("got created_at %v, want %v", q.CreatedAt, f.clock.Now())
	}
}

func TestCreate_TrimsAndValidatesBeforeAuthorizing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// invalid input from a non-admin reports the validation problem
	_, err := f.svc.Create(ctx, qa.CreateInput{Question: "  ", Answer: "a", Category: "c"}, f.member.ID)
	if !errors.Is(err, question.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}

	q, err := f.svc.Create(ctx, qa.CreateInput{Question: "  q  ", Answer: " a", Category: "c "}, f.admin.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q.Question != "q" || q.Answer != "a" || q.Category != "c" {
		t.Fatalf("content was not trimmed: %+v", q)
	}
}

func TestMutations_ForbiddenWithoutAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing, err := f.svc.Create(ctx, sample(), f.admin.ID)
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}

	actors := map[string]string{
		"regular_user": f.member.ID,
		"unknown_id":   uuid.NewString(),
		"malformed_id": "not-a-uuid",
		"empty":        "",
	}

	for name, actor := range actors {
		actor := actor
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.Create(ctx, sample(), actor); !errors.Is(err, question.ErrForbidden) {
				t.Fatalf("create: got %v, want ErrForbidden", err)
			}

			edit := qa.CreateInput{Question: "changed", Answer: "changed", Category: "changed"}
			if _, err := f.svc.Update(ctx, existing.ID, edit, actor); !errors.Is(err, question.ErrForbidden) {
				t.Fatalf("update: got %v, want ErrForbidden", err)
			}

			if _, err := f.svc.Delete(ctx, existing.ID, actor); !errors.Is(err, question.ErrForbidden) {
				t.Fatalf("delete: got %v, want ErrForbidden", err)
			}

			if f.questions.Count() != 1 {
				t.Fatalf("store was mutated, count=%d", f.questions.Count())
			}
			got, _ := f.svc.Get(ctx, existing.ID)
			if got.Question != existing.Question || got.UpdatedAt != nil {
				t.Fatalf("question was mutated: %+v", got)
			}
		})
	}
}

func TestUpdate_UpdatedAtStrictlyIncreases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.Create(ctx, sample(), f.admin.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// clock does not move: updated_at must still advance
	first, err := f.svc.Update(ctx, q.ID, qa.CreateInput{Question: "v2", Answer: "a", Category: "c"}, f.admin.ID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if first.UpdatedAt == nil || !first.UpdatedAt.After(q.CreatedAt) {
		t.Fatalf("updated_at %v not after created_at %v", first.UpdatedAt, q.CreatedAt)
	}
	if first.CreatedBy != q.CreatedBy || !first.CreatedAt.Equal(q.CreatedAt) {
		t.Fatalf("update must keep authorship: %+v", first)
	}

	second, err := f.svc.Update(ctx, q.ID, qa.CreateInput{Question: "v3", Answer: "a", Category: "c"}, f.admin.ID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !second.UpdatedAt.After(*first.UpdatedAt) {
		t.Fatalf("updated_at %v not after previous %v", second.UpdatedAt, first.UpdatedAt)
	}

	f.clock.Advance(time.Hour)
	third, err := f.svc.Update(ctx, q.ID, qa.CreateInput{Question: "v4", Answer: "a", Category: "c"}, f.admin.ID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !third.UpdatedAt.Equal(f.clock.Now()) {
		t.Fatalf("got updated_at %v, want clock time %v", third.UpdatedAt, f.clock.Now())
	}
}

func TestUpdate_AnyAdminMayEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, _ := f.users.Create(ctx, user.User{ID: uuid.NewString(), Name: "Second Admin", Email: "ops@x.com", Role: user.RoleAdmin})

	q, _ := f.svc.Create(ctx, sample(), f.admin.ID)

	updated, err := f.svc.Update(ctx, q.ID, qa.CreateInput{Question: "edited", Answer: "a", Category: "c"}, other.ID)
	if err != nil {
		t.Fatalf("update by another admin: %v", err)
	}
	if updated.CreatedBy != f.admin.ID {
		t.Fatalf("created_by changed to %q", updated.CreatedBy)
	}
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{uuid.NewString(), "garbage"} {
		if _, err := f.svc.Get(ctx, id); !errors.Is(err, question.ErrNotFound) {
			t.Fatalf("get %q: got %v, want ErrNotFound", id, err)
		}
		if _, err := f.svc.Update(ctx, id, sample(), f.admin.ID); !errors.Is(err, question.ErrNotFound) {
			t.Fatalf("update %q: got %v, want ErrNotFound", id, err)
		}
		if _, err := f.svc.Delete(ctx, id, f.admin.ID); !errors.Is(err, question.ErrNotFound) {
			t.Fatalf("delete %q: got %v, want ErrNotFound", id, err)
		}
	}
}

func TestCreateDelete_ListCountsAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n, m = 5, 2

	var created []question.Question
	for i := 0; i < n; i++ {
		f.clock.Advance(time.Second)
		q, err := f.svc.Create(ctx, sample(), f.admin.ID)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		created = append(created, q)
	}

	for i := 0; i < m; i++ {
		deleted, err := f.svc.Delete(ctx, created[i].ID, f.admin.ID)
		if err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
		if deleted.ID != created[i].ID || deleted.Question != created[i].Question {
			t.Fatalf("delete must return the removed record, got %+v", deleted)
		}
	}

	list, err := f.svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != n-m {
		t.Fatalf("got %d questions, want %d", len(list), n-m)
	}
	for i := 1; i < len(list); i++ {
		if !list[i-1].CreatedAt.After(list[i].CreatedAt) {
			t.Fatalf("list not ordered newest first at %d", i)
		}
	}
	if list[0].ID != created[n-1].ID {
		t.Fatalf("newest question should come first")
	}
}

func TestListByAuthorAndAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, _ := f.users.Create(ctx, user.User{ID: uuid.NewString(), Name: "Second Admin", Email: "ops@x.com", Role: user.RoleAdmin, CreatedAt: time.Now().Add(time.Hour)})

	_, _ = f.svc.Create(ctx, sample(), f.admin.ID)
	_, _ = f.svc.Create(ctx, sample(), other.ID)

	mine, err := f.svc.ListByAuthor(ctx, f.admin.ID)
	if err != nil {
		t.Fatalf("list by author: %v", err)
	}
	if len(mine) != 1 || mine[0].CreatedBy != f.admin.ID {
		t.Fatalf("unexpected questions for author: %+v", mine)
	}

	none, err := f.svc.ListByAuthor(ctx, "not-a-uuid")
	if err != nil || len(none) != 0 {
		t.Fatalf("malformed author id: got %v, %v", none, err)
	}

	admins, err := f.svc.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("list admins: %v", err)
	}
	if len(admins) != 2 {
		t.Fatalf("got %d admins, want 2", len(admins))
	}
	for _, a := range admins {
		if a.Role != user.RoleAdmin {
			t.Fatalf("non-admin in admin list: %+v", a)
		}
	}
}

type failingUsers struct{ err error }

func (f failingUsers) GetByID(context.Context, string) (user.User, error) { return user.User{}, f.err }
func (f failingUsers) ListByRole(context.Context, string) ([]user.User, error) {
	return nil, f.err
}

func TestAuthorize_StorageErrorIsNotForbidden(t *testing.T) {
	boom := errors.New("connection refused")
	svc := qa.NewService(memory.NewQuestionsRepo(nil), failingUsers{err: boom}, qa.WithLogger(discard))

	_, err := svc.Create(context.Background(), sample(), uuid.NewString())
	if !errors.Is(err, boom) || errors.Is(err, question.ErrForbidden) {
		t.Fatalf("got %v, want storage error", err)
	}
}

func TestScenario_RegisterLoginCreate(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsersRepo()
	questions := memory.NewQuestionsRepo(users)

	authSvc := auth.NewService(users,
		auth.WithLogger(discard),
		auth.WithBootstrapAdmins(func(email string) bool { return email == "admin@x.com" }),
	)
	qaSvc := qa.NewService(questions, users, qa.WithLogger(discard))

	if _, err := authSvc.Register(ctx, "Admin User", "admin@x.com", "admin123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	sess, err := authSvc.Login(ctx, "admin@x.com", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Role != user.RoleAdmin {
		t.Fatalf("got role %q, want admin", sess.Role)
	}

	q, err := qaSvc.Create(ctx, qa.CreateInput{Question: "What is SOQL?", Answer: "Salesforce Object Query Language", Category: "SOQL"}, sess.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q.CreatedBy != sess.ID {
		t.Fatalf("got created_by %q", q.CreatedBy)
	}

	if _, err := authSvc.Login(ctx, "admin@x.com", "nope"); !errors.Is(err, user.ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}

	if _, err := qaSvc.Create(ctx, sample(), uuid.NewString()); !errors.Is(err, question.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
}
