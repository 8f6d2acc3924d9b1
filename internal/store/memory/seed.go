package memory

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Categories   []categoryYAML    `yaml:"categories"`
	Transactions []transactionYAML `yaml:"transactions"`
	Budgets      []budgetYAML      `yaml:"budgets"`
}

type categoryYAML struct {
	ID       string `yaml:"id"`
	UserID   string `yaml:"user_id"`
	Name     string `yaml:"name"`
	Icon     string `yaml:"icon"`
	Color    string `yaml:"color"`
	Type     string `yaml:"type"`
	ParentID string `yaml:"parent_id"`
}

type transactionYAML struct {
	ID            string `yaml:"id"`
	UserID        string `yaml:"user_id"`
	Amount        string `yaml:"amount"`
	CategoryID    string `yaml:"category_id"`
	Type          string `yaml:"type"`
	Date          string `yaml:"date"`
	Description   string `yaml:"description"`
	PaymentMethod string `yaml:"payment_method"`
	Location      string `yaml:"location"`
}

type budgetYAML struct {
	ID                   string `yaml:"id"`
	UserID               string `yaml:"user_id"`
	CategoryID           string `yaml:"category_id"`
	Amount               string `yaml:"amount"`
	Period               string `yaml:"period"`
	StartDate            string `yaml:"start_date"`
	EndDate              string `yaml:"end_date"`
	NotificationsEnabled bool   `yaml:"notifications_enabled"`
}

// NewFromFile builds a store from a YAML seed file. An empty path yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if err := s.Load(data); err != nil {
		return nil, fmt.Errorf("load seed file %s: %w", path, err)
	}
	return s, nil
}

// Load decodes YAML seed data and appends it to the store. Every record is
// validated; the first invalid one aborts the load.
func (s *Store) Load(data []byte) error {
	var in seedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&in); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}

	cats := make([]core.Category, 0, len(in.Categories))
	for _, c := range in.Categories {
		cat := core.Category{
			ID: c.ID, UserID: c.UserID, Name: c.Name, Icon: c.Icon,
			Color: c.Color, Type: core.CategoryType(c.Type), ParentID: c.ParentID,
		}
		if err := cat.Validate(); err != nil {
			return fmt.Errorf("category %s: %w", c.ID, err)
		}
		cats = append(cats, cat)
	}

	txs := make([]core.Transaction, 0, len(in.Transactions))
	for _, t := range in.Transactions {
		amount, err := decimal.NewFromString(t.Amount)
		if err != nil {
			return fmt.Errorf("transaction %s amount: %w", t.ID, err)
		}
		date, err := parseSeedTime(t.Date)
		if err != nil {
			return fmt.Errorf("transaction %s date: %w", t.ID, err)
		}
		tx := core.Transaction{
			ID: t.ID, UserID: t.UserID, Amount: amount, CategoryID: t.CategoryID,
			Type: core.TransactionType(t.Type), Date: date, Description: t.Description,
			PaymentMethod: t.PaymentMethod, Location: t.Location,
			CreatedAt: date, UpdatedAt: date,
		}
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		txs = append(txs, tx)
	}

	budgets := make([]core.Budget, 0, len(in.Budgets))
	for _, b := range in.Budgets {
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			return fmt.Errorf("budget %s amount: %w", b.ID, err)
		}
		start, err := parseSeedTime(b.StartDate)
		if err != nil {
			return fmt.Errorf("budget %s start_date: %w", b.ID, err)
		}
		budget := core.Budget{
			ID: b.ID, UserID: b.UserID, CategoryID: b.CategoryID, Amount: amount,
			Period: core.Period(b.Period), StartDate: start,
			NotificationsEnabled: b.NotificationsEnabled, CreatedAt: start,
		}
		if b.EndDate != "" {
			end, err := parseSeedEnd(b.EndDate)
			if err != nil {
				return fmt.Errorf("budget %s end_date: %w", b.ID, err)
			}
			budget.EndDate = &end
		}
		if err := budget.Validate(); err != nil {
			return fmt.Errorf("budget %s: %w", b.ID, err)
		}
		budgets = append(budgets, budget)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, cats...)
	s.transactions = append(s.transactions, txs...)
	s.budgets = append(s.budgets, budgets...)
	return nil
}

func parseSeedTime(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

// parseSeedEnd treats a bare date as the end of that day.
func parseSeedEnd(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return time.Parse(time.RFC3339, v)
}
