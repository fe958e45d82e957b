package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/qaportal/internal/actorctx"
	"github.com/geocoder89/qaportal/internal/cache"
	"github.com/geocoder89/qaportal/internal/config"
	"github.com/geocoder89/qaportal/internal/domain/question"
	"github.com/geocoder89/qaportal/internal/observability"
	"github.com/geocoder89/qaportal/internal/qa"
	"github.com/geocoder89/qaportal/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuestionsService interface {
	List(ctx context.Context) ([]question.Question, error)
	Get(ctx context.Context, id string) (question.Question, error)
	ListByAuthor(ctx context.Context, authorID string) ([]question.Question, error)
	Create(ctx context.Context, in qa.CreateInput, actingUserID string) (question.Question, error)
	Update(ctx context.Context, id string, in qa.CreateInput, actingUserID string) (question.Question, error)
	Delete(ctx context.Context, id, actingUserID string) (question.Question, error)
}

type QuestionsHandler struct {
	svc   QuestionsService
	cache cache.Store
	prom  *observability.Prom
}

func NewQuestionsHandler(svc QuestionsService) *QuestionsHandler {
	return &QuestionsHandler{svc: svc}
}

// NewQuestionsHandlerWithCache caches the list endpoints. Every successful
// mutation moves the questions cache to a new generation.
func NewQuestionsHandlerWithCache(svc QuestionsService, c cache.Store, prom *observability.Prom) *QuestionsHandler {
	return &QuestionsHandler{svc: svc, cache: c, prom: prom}
}

func (h *QuestionsHandler) ListQuestions(ctx *gin.Context) {
	gen, useCache := h.generation(ctx)
	key := utils.QuestionsListCacheKey(gen)

	if body, ok := h.cached(ctx, useCache, "list", key); ok {
		RespondRawJSONWithETag(ctx, http.StatusOK, body)
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.svc.List(cctx)

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "list questions failed", "err", err)
		RespondInternal(ctx, "Could not list questions")
		return
	}

	h.respondAndStore(ctx, useCache, key, items)
}

func (h *QuestionsHandler) GetQuestionByID(ctx *gin.Context) {
	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	q, err := h.svc.Get(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, question.ErrNotFound) {
			RespondNotFound(ctx, "Question not found")
			return
		}
		slog.Default().ErrorContext(ctx.Request.Context(), "get question failed", "err", err)
		RespondInternal(ctx, "Could not fetch question")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, q)
}

func (h *QuestionsHandler) ListByAdmin(ctx *gin.Context) {
	adminID := ctx.Param("adminId")
	gen, useCache := h.generation(ctx)
	key := utils.QuestionsByAuthorCacheKey(gen, adminID)

	if body, ok := h.cached(ctx, useCache, "by_author", key); ok {
		RespondRawJSONWithETag(ctx, http.StatusOK, body)
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.svc.ListByAuthor(cctx, adminID)

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "list questions by admin failed", "err", err)
		RespondInternal(ctx, "Could not fetch questions")
		return
	}

	h.respondAndStore(ctx, useCache, key, items)
}

func (h *QuestionsHandler) CreateQuestion(ctx *gin.Context) {
	var req question.CreateQuestionRequest

	if !BindJSON(ctx, &req) {
		h.prom.Mutation("create", "invalid")
		return
	}

	ctx.Request = ctx.Request.WithContext(actorctx.WithActorID(ctx.Request.Context(), req.AdminID))

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	in := qa.CreateInput{Question: req.Question, Answer: req.Answer, Category: req.Category}

	q, err := h.svc.Create(cctx, in, req.AdminID)

	if err != nil {
		h.respondMutationError(ctx, "create", err)
		return
	}

	h.prom.Mutation("create", "ok")
	h.invalidate(ctx)

	ctx.JSON(http.StatusCreated, q)
}

func (h *QuestionsHandler) UpdateQuestion(ctx *gin.Context) {
	var req question.UpdateQuestionRequest

	if !BindJSON(ctx, &req) {
		h.prom.Mutation("update", "invalid")
		return
	}

	ctx.Request = ctx.Request.WithContext(actorctx.WithActorID(ctx.Request.Context(), req.AdminID))

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	in := qa.CreateInput{Question: req.Question, Answer: req.Answer, Category: req.Category}

	q, err := h.svc.Update(cctx, ctx.Param("id"), in, req.AdminID)

	if err != nil {
		h.respondMutationError(ctx, "update", err)
		return
	}

	h.prom.Mutation("update", "ok")
	h.invalidate(ctx)

	ctx.JSON(http.StatusOK, q)
}

func (h *QuestionsHandler) DeleteQuestion(ctx *gin.Context) {
	var req question.DeleteQuestionRequest

	if !BindJSON(ctx, &req) {
		h.prom.Mutation("delete", "invalid")
		return
	}

	ctx.Request = ctx.Request.WithContext(actorctx.WithActorID(ctx.Request.Context(), req.AdminID))

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	q, err := h.svc.Delete(cctx, ctx.Param("id"), req.AdminID)

	if err != nil {
		h.respondMutationError(ctx, "delete", err)
		return
	}

	h.prom.Mutation("delete", "ok")
	h.invalidate(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"message":  "Question deleted successfully",
		"question": q,
	})
}

func (h *QuestionsHandler) respondMutationError(ctx *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, question.ErrValidation):
		h.prom.Mutation(action, "invalid")
		RespondBadRequest(ctx, "Question, answer and category are required", gin.H{"reason": err.Error()})
	case errors.Is(err, question.ErrForbidden):
		h.prom.Mutation(action, "forbidden")
		RespondForbidden(ctx, "Only admins can modify questions")
	case errors.Is(err, question.ErrNotFound):
		h.prom.Mutation(action, "not_found")
		RespondNotFound(ctx, "Question not found")
	default:
		h.prom.Mutation(action, "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "question mutation failed", "action", action, "err", err)
		RespondInternal(ctx, "Could not "+action+" question")
	}
}

// generation is read before the store so a write that lands during the read
// leaves this response under a retired key.
func (h *QuestionsHandler) generation(ctx *gin.Context) (int64, bool) {
	if h.cache == nil {
		return 0, false
	}
	return h.cache.Generation(ctx.Request.Context(), utils.QuestionsCacheScope)
}

func (h *QuestionsHandler) cached(ctx *gin.Context, useCache bool, family, key string) ([]byte, bool) {
	if !useCache {
		return nil, false
	}

	body, ok := h.cache.Get(ctx.Request.Context(), key)
	h.prom.CacheResult(family, ok)

	return body, ok
}

func (h *QuestionsHandler) respondAndStore(ctx *gin.Context, useCache bool, key string, items []question.Question) {
	if items == nil {
		items = []question.Question{}
	}

	body, err := json.Marshal(items)
	if err != nil {
		RespondInternal(ctx, "Could not encode questions")
		return
	}

	if useCache {
		h.cache.Set(ctx.Request.Context(), key, body)
	}

	RespondRawJSONWithETag(ctx, http.StatusOK, body)
}

func (h *QuestionsHandler) invalidate(ctx *gin.Context) {
	if h.cache == nil {
		return
	}

	h.cache.Bump(ctx.Request.Context(), utils.QuestionsCacheScope)
}
