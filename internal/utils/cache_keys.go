package utils

import (
	"strconv"
	"strings"
)

// QuestionsCacheScope is bumped by every question mutation.
const QuestionsCacheScope = "questions"

const questionsCachePrefix = "questions:v2:"

func QuestionsListCacheKey(gen int64) string {
	return questionsCachePrefix + "g" + strconv.FormatInt(gen, 10) + ":list"
}

// QuestionsByAuthorCacheKey maps every spelling of the same uuid to one key.
func QuestionsByAuthorCacheKey(gen int64, authorID string) string {
	prefix := questionsCachePrefix + "g" + strconv.FormatInt(gen, 10) + ":by-author:"

	if id, ok := CanonicalUUID(strings.TrimSpace(authorID)); ok {
		return prefix + id
	}
	return prefix + strings.ToLower(strings.TrimSpace(authorID))
}
