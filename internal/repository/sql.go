package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dentalhub/internal/domain"
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
	pgCheckViolation     = "23514"
)

// setBuilder collects "column = $n" pairs for partial updates.
type setBuilder struct {
	sets []string
	args []any
}

func (b *setBuilder) add(column string, value any) {
	b.args = append(b.args, value)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func (b *setBuilder) empty() bool {
	return len(b.sets) == 0
}

// build returns the UPDATE statement keyed by id; updated_at is always touched.
func (b *setBuilder) build(table string, id int64) (string, []any) {
	b.add("updated_at", time.Now())
	args := append(b.args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(b.sets, ", "), len(args))
	return query, args
}

// whereBuilder collects AND-ed conditions with positional args.
type whereBuilder struct {
	conds []string
	args  []any
}

// add appends cond with every "?" replaced by the next positional placeholder.
func (w *whereBuilder) add(cond string, values ...any) {
	for _, v := range values {
		w.args = append(w.args, v)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the clause.
func (w *whereBuilder) page(limit, offset int) string {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	w.args = append(w.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}

func notFound(err error, target *domain.Error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func statusStrings[T ~string](statuses []T) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
