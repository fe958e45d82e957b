package observability

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ObserveDB times fn under a logical op name. A nil Prom just runs fn.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil && !isExpectedMiss(err) {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}
	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

// a lookup that finds nothing is not a DB failure
func isExpectedMiss(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || strings.Contains(err.Error(), "no rows in result set")
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "23503":
			return "foreign_key_violation"
		case "22P02":
			return "invalid_text_representation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return "unique_violation"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return "foreign_key_violation"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	case strings.Contains(msg, "database is locked"):
		return "sqlite_busy"
	default:
		return "unknown"
	}
}
