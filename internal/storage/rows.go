package storage

import (
	"database/sql"
	"strings"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

const (
	transactionColumns = `id, user_id, amount_cents, category_id, type, occurred_at, description, payment_method, location, created_at, updated_at`
	categoryColumns    = `id, user_id, name, icon, color, type, parent_id`
	budgetColumns      = `id, user_id, category_id, amount_cents, period, start_date, end_date, notifications_enabled, created_at`
)

// paymentMethodExpr mirrors aggregate.NormalizePaymentMethod.
var paymentMethodExpr = `CASE WHEN TRIM(payment_method) = '' THEN '` + aggregate.UnknownPaymentMethod + `' ELSE TRIM(payment_method) END`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx                        core.Transaction
		cents                     int64
		typ                       string
		occurred, created, update int64
	)
	err := s.Scan(&tx.ID, &tx.UserID, &cents, &tx.CategoryID, &typ, &occurred,
		&tx.Description, &tx.PaymentMethod, &tx.Location, &created, &update)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Amount = core.FromCents(cents)
	tx.Type = core.TransactionType(typ)
	tx.Date = fromUnix(occurred)
	tx.CreatedAt = fromUnix(created)
	tx.UpdatedAt = fromUnix(update)
	return tx, nil
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c   core.Category
		typ string
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color, &typ, &c.ParentID); err != nil {
		return core.Category{}, err
	}
	c.Type = core.CategoryType(typ)
	return c, nil
}

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b              core.Budget
		cents          int64
		period         string
		start, created int64
		end            sql.NullInt64
	)
	err := s.Scan(&b.ID, &b.UserID, &b.CategoryID, &cents, &period, &start, &end,
		&b.NotificationsEnabled, &created)
	if err != nil {
		return core.Budget{}, err
	}
	b.Amount = core.FromCents(cents)
	b.Period = core.Period(period)
	b.StartDate = fromUnix(start)
	b.CreatedAt = fromUnix(created)
	if end.Valid {
		t := fromUnix(end.Int64)
		b.EndDate = &t
	}
	return b, nil
}

// transactionWhere renders f as a parameterized WHERE clause.
func transactionWhere(userID string, f store.Filter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}

	if len(f.Types) > 0 {
		clauses = append(clauses, "type IN ("+placeholders(len(f.Types))+")")
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	if len(f.CategoryIDs) > 0 {
		clauses = append(clauses, "category_id IN ("+placeholders(len(f.CategoryIDs))+")")
		for _, id := range f.CategoryIDs {
			args = append(args, id)
		}
	}
	if !f.Range.Start.IsZero() {
		clauses = append(clauses, "occurred_at >= ?")
		args = append(args, toUnix(f.Range.Start))
	}
	if !f.Range.End.IsZero() {
		clauses = append(clauses, "occurred_at <= ?")
		args = append(args, toUnix(f.Range.End))
	}
	if f.MinAmount != nil {
		clauses = append(clauses, "amount_cents >= ?")
		args = append(args, core.ToCents(*f.MinAmount))
	}
	if f.MaxAmount != nil {
		clauses = append(clauses, "amount_cents <= ?")
		args = append(args, core.ToCents(*f.MaxAmount))
	}
	if f.Search != "" {
		clauses = append(clauses, `description LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Search)+"%")
	}
	return strings.Join(clauses, " AND "), args
}

func budgetWhere(f store.BudgetFilter) (string, []any) {
	clauses := []string{"1 = 1"}
	var args []any
	if f.CategoryID != "" {
		clauses = append(clauses, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if !f.ActiveAt.IsZero() {
		at := toUnix(f.ActiveAt)
		clauses = append(clauses, "start_date <= ? AND (end_date IS NULL OR end_date >= ?)")
		args = append(args, at, at)
	}
	if f.NotificationsOnly {
		clauses = append(clauses, "notifications_enabled = 1")
	}
	return strings.Join(clauses, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func nullableUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toUnix(*t)
}
