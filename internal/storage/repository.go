package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository implements store.Store over a SQLite database.
// Amounts are persisted as integer cents; instants as Unix nanoseconds (UTC).
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FindTransactions implements store.TransactionFinder
func (r *SQLiteRepository) FindTransactions(ctx context.Context, userID string, f store.Filter) ([]core.Transaction, error) {
	where, args := transactionWhere(userID, f)
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where + ` ORDER BY occurred_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// AggregateTransactions implements store.TransactionAggregator
func (r *SQLiteRepository) AggregateTransactions(ctx context.Context, userID string, f store.Filter, keys ...store.GroupKey) ([]store.Aggregate, error) {
	where, args := transactionWhere(userID, f)

	var byCategory, byMethod bool
	for _, k := range keys {
		switch k {
		case store.GroupCategory:
			byCategory = true
		case store.GroupPaymentMethod:
			byMethod = true
		default:
			return nil, core.Invalid("unsupported group key %q", k)
		}
	}

	categoryExpr := "''"
	if byCategory {
		categoryExpr = "category_id"
	}
	methodExpr := "''"
	if byMethod {
		methodExpr = paymentMethodExpr
	}

	query := fmt.Sprintf(`SELECT type, %[1]s AS cat, %[2]s AS method, SUM(amount_cents), COUNT(*)
		FROM transactions WHERE %[3]s
		GROUP BY type, cat, method
		ORDER BY type, cat, method`, categoryExpr, methodExpr, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate transactions: %w", err)
	}
	defer rows.Close()

	var out []store.Aggregate
	for rows.Next() {
		var (
			a     store.Aggregate
			typ   string
			cents int64
		)
		if err := rows.Scan(&typ, &a.CategoryID, &a.PaymentMethod, &cents, &a.Count); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		a.Type = core.TransactionType(typ)
		a.Sum = core.FromCents(cents)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregates: %w", err)
	}
	return out, nil
}

// FindTransaction implements store.TransactionWriter
func (r *SQLiteRepository) FindTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound("transaction %s not found", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// CreateTransaction implements store.TransactionWriter
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO transactions
		(id, user_id, amount_cents, category_id, type, occurred_at, description, payment_method, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, core.ToCents(tx.Amount), tx.CategoryID, string(tx.Type), toUnix(tx.Date),
		tx.Description, tx.PaymentMethod, tx.Location, toUnix(tx.CreatedAt), toUnix(tx.UpdatedAt))
	if err != nil {
		if isConstraint(err) {
			return core.Conflict("transaction %s already exists", tx.ID)
		}
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount_cents", core.ToCents(tx.Amount))
	return nil
}

// DeleteTransaction implements store.TransactionWriter
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	return r.deleteOwned(ctx, "transactions", "transaction", userID, id)
}

// FindCategory implements store.CategoryReader
func (r *SQLiteRepository) FindCategory(ctx context.Context, userID, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound("category %s not found", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// ListCategories implements store.CategoryReader
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// CreateCategory implements store.CategoryWriter
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories (id, user_id, name, icon, color, type, parent_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Icon, c.Color, string(c.Type), c.ParentID)
	if err != nil {
		if isConstraint(err) {
			return core.Conflict("category name %q already in use", c.Name)
		}
		return fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "user_id", c.UserID, "name", c.Name)
	return nil
}

// UpdateCategory implements store.CategoryWriter
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories
		SET name = ?, icon = ?, color = ?, type = ?, parent_id = ?
		WHERE id = ? AND user_id = ?`,
		c.Name, c.Icon, c.Color, string(c.Type), c.ParentID, c.ID, c.UserID)
	if err != nil {
		if isConstraint(err) {
			return core.Conflict("category name %q already in use", c.Name)
		}
		return fmt.Errorf("update category: %w", err)
	}
	return requireAffected(res, "category", c.ID)
}

// DeleteCategory implements store.CategoryWriter
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	return r.deleteOwned(ctx, "categories", "category", userID, id)
}

// CountTransactionsByCategory implements store.CategoryWriter
func (r *SQLiteRepository) CountTransactionsByCategory(ctx context.Context, userID, categoryID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ? AND category_id = ?`, userID, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", err)
	}
	return n, nil
}

// CountChildren implements store.CategoryWriter
func (r *SQLiteRepository) CountChildren(ctx context.Context, userID, categoryID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = ? AND parent_id = ?`, userID, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count child categories: %w", err)
	}
	return n, nil
}

// FindBudget implements store.BudgetReader
func (r *SQLiteRepository) FindBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.NotFound("budget %s not found", id)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// FindBudgets implements store.BudgetReader
func (r *SQLiteRepository) FindBudgets(ctx context.Context, userID string, f store.BudgetFilter) ([]core.Budget, error) {
	where, args := budgetWhere(f)
	where = "user_id = ? AND " + where
	args = append([]any{userID}, args...)
	return r.queryBudgets(ctx, where, args)
}

// ListNotifiableBudgets implements store.BudgetScanner
func (r *SQLiteRepository) ListNotifiableBudgets(ctx context.Context, at time.Time) ([]core.Budget, error) {
	where, args := budgetWhere(store.BudgetFilter{ActiveAt: at, NotificationsOnly: true})
	return r.queryBudgets(ctx, where, args)
}

// CreateBudget implements store.BudgetWriter
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO budgets
		(id, user_id, category_id, amount_cents, period, start_date, end_date, notifications_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.CategoryID, core.ToCents(b.Amount), string(b.Period),
		toUnix(b.StartDate), nullableUnix(b.EndDate), b.NotificationsEnabled, toUnix(b.CreatedAt))
	if err != nil {
		if isConstraint(err) {
			return core.Conflict("budget %s already exists", b.ID)
		}
		return fmt.Errorf("create budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget saved to SQLite", "id", b.ID, "user_id", b.UserID, "period", b.Period)
	return nil
}

// UpdateBudget implements store.BudgetWriter
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `UPDATE budgets
		SET category_id = ?, amount_cents = ?, period = ?, start_date = ?, end_date = ?, notifications_enabled = ?
		WHERE id = ? AND user_id = ?`,
		b.CategoryID, core.ToCents(b.Amount), string(b.Period), toUnix(b.StartDate),
		nullableUnix(b.EndDate), b.NotificationsEnabled, b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireAffected(res, "budget", b.ID)
}

// DeleteBudget implements store.BudgetWriter
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	return r.deleteOwned(ctx, "budgets", "budget", userID, id)
}

func (r *SQLiteRepository) queryBudgets(ctx context.Context, where string, args []any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("find budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

// deleteOwned removes one row of table by id+user. Table names are internal constants.
func (r *SQLiteRepository) deleteOwned(ctx context.Context, table, entity, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	if err := requireAffected(res, entity, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Deleted from SQLite", "entity", entity, "id", id, "user_id", userID)
	return nil
}

func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NotFound("%s %s not found", entity, id)
	}
	return nil
}

func isConstraint(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
