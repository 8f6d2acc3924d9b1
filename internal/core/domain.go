package core

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
	CategoryBoth    CategoryType = "both"

	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// MaxCategoryName is the maximum length of a category name.
const MaxCategoryName = 50

type (
	TransactionType string
	CategoryType    string
	Period          string

	Transaction struct {
		ID            string
		UserID        string
		Amount        decimal.Decimal
		CategoryID    string
		Type          TransactionType
		Date          time.Time
		Description   string
		PaymentMethod string
		Location      string
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	Category struct {
		ID       string
		UserID   string
		Name     string
		Icon     string
		Color    string
		Type     CategoryType
		ParentID string // empty when top level
	}

	Budget struct {
		ID                   string
		UserID               string
		CategoryID           string // empty for a whole-account budget
		Amount               decimal.Decimal
		Period               Period
		StartDate            time.Time
		EndDate              *time.Time // nil when open-ended
		NotificationsEnabled bool
		CreatedAt            time.Time
	}
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (c CategoryType) Valid() bool {
	switch c {
	case CategoryIncome, CategoryExpense, CategoryBoth:
		return true
	}
	return false
}

// Accepts reports whether transactions of type t may be filed under a category of type c.
func (c CategoryType) Accepts(t TransactionType) bool {
	if c == CategoryBoth {
		return true
	}
	return string(c) == string(t)
}

func (p Period) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// IsActive reports whether now falls inside [StartDate, EndDate]; a nil EndDate never expires.
func (b Budget) IsActive(now time.Time) bool {
	if now.Before(b.StartDate) {
		return false
	}
	return b.EndDate == nil || !now.After(*b.EndDate)
}

// IsCategoryScoped reports whether the budget tracks a single category.
func (b Budget) IsCategoryScoped() bool {
	return b.CategoryID != ""
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return Invalid("transaction amount must be greater than 0")
	}
	if !t.Type.Valid() {
		return Invalid("invalid transaction type %q", t.Type)
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return Invalid("transaction category is required")
	}
	if t.Date.IsZero() {
		return Invalid("transaction date is required")
	}
	return nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return Invalid("category name is required")
	}
	if len([]rune(name)) > MaxCategoryName {
		return Invalid("category name too long (max %d characters)", MaxCategoryName)
	}
	if !colorPattern.MatchString(c.Color) {
		return Invalid("invalid category color %q: must be #RRGGBB", c.Color)
	}
	if !c.Type.Valid() {
		return Invalid("invalid category type %q", c.Type)
	}
	if c.ParentID != "" && c.ParentID == c.ID {
		return Invalid("category cannot be its own parent")
	}
	return nil
}

func (b Budget) Validate() error {
	if !b.Amount.IsPositive() {
		return Invalid("budget amount must be greater than 0")
	}
	if !b.Period.Valid() {
		return Invalid("invalid budget period %q", b.Period)
	}
	if b.StartDate.IsZero() {
		return Invalid("budget start date is required")
	}
	if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
		return Invalid("end date must be after start date")
	}
	return nil
}
