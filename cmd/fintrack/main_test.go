package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"AMQP_URL", "SQLITE_DB_PATH", "GOOGLE_SPREADSHEET_ID", "CACHE_SWEEP_INTERVAL",
		"CACHE_MAX_ENTRIES", "NOTIFIER_INTERVAL", "NOTIFY_WARNING_PERCENT", "NOTIFY_DEDUP_WINDOW"} {
		t.Setenv(k, "")
	}
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SEED_FILE", filepath.Join("..", "..", "internal", "store", "memory", "testdata", "seed.yaml"))
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runApp(t, args...)
	return out, err
}

func runApp(t *testing.T, args ...string) (string, *app, error) {
	t.Helper()
	var out bytes.Buffer
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := execute(context.Background(), root, a)
	return out.String(), a, err
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		end     bool
		want    time.Time
		wantErr bool
	}{
		{"", false, time.Time{}, false},
		{"2024-01-31", false, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), false},
		{"2024-01-31", true, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), false},
		{"2024-01-31T10:00:00Z", true, time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC), false},
		{"31/01/2024", false, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDate(tt.in, tt.end)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDate(%q) error = %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q, %v) = %v, want %v", tt.in, tt.end, got, tt.want)
			}
		})
	}
}

func TestRequiresUser(t *testing.T) {
	testEnv(t)
	if _, err := run(t, "overview"); err == nil {
		t.Fatal("expected an error without --user")
	}
}

func TestOverview(t *testing.T) {
	testEnv(t)
	out, err := run(t, "--user", "u1", "overview", "--from", "2024-01-01", "--to", "2024-01-31")
	if err != nil {
		t.Fatal(err)
	}

	var res struct {
		Summary struct {
			Income       string
			Expense      string
			ExpenseCount int
		}
		TopCategories []struct {
			Category struct {
				Name string
			}
		}
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.Summary.Income != "5000000" || res.Summary.Expense != "200000" || res.Summary.ExpenseCount != 2 {
		t.Errorf("summary = %+v", res.Summary)
	}
	if len(res.TopCategories) != 1 || res.TopCategories[0].Category.Name != "Food" {
		t.Errorf("top categories = %+v", res.TopCategories)
	}
}

func TestReportCSV(t *testing.T) {
	testEnv(t)
	out, err := run(t, "--user", "u1", "report", "--from", "2024-01-01", "--to", "2024-01-31",
		"--group-by", "paymentMethod", "--expense", "--format", "csv")
	if err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v\n%s", err, out)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2 expenses\n%s", len(records), out)
	}
	methods := map[string]bool{records[1][5]: true, records[2][5]: true}
	if !methods["card"] || !methods["Unknown"] {
		t.Errorf("payment methods = %v", methods)
	}
}

func TestReportRejectsUnknownFormat(t *testing.T) {
	testEnv(t)
	if _, err := run(t, "--user", "u1", "report", "--format", "xml"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
	if _, err := run(t, "--user", "u1", "report", "--group-by", "week"); err == nil {
		t.Fatal("expected an error for an unknown grouping")
	}
}

func TestBudgetCommands(t *testing.T) {
	testEnv(t)

	out, err := run(t, "--user", "u1", "budget", "insights")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Summary") {
		t.Errorf("insights output = %s", out)
	}

	if _, err := run(t, "--user", "u2", "budget", "progress", "b1"); err == nil {
		t.Error("another user's budget must not be readable")
	}
}

func TestTransactionAdd(t *testing.T) {
	testEnv(t)

	out, err := run(t, "--user", "u1", "tx", "add", "--amount", "12,50", "--category", "food", "--date", "2024-01-05")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"12.5"`) {
		t.Errorf("tx output = %s", out)
	}

	if _, err := run(t, "--user", "u1", "tx", "add", "--amount", "10", "--category", "food", "--type", "income"); err == nil {
		t.Error("income into an expense category should fail")
	}
}

func TestCategoryDeleteBlockedByTransactions(t *testing.T) {
	testEnv(t)
	if _, err := run(t, "--user", "u1", "category", "delete", "food"); err == nil {
		t.Fatal("category with transactions must not be deletable")
	}
}

func TestCategoryStats(t *testing.T) {
	testEnv(t)

	out, err := run(t, "--user", "u1", "category", "stats", "food", "--from", "2024-01-04")
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		Category struct {
			Name string
		}
		Expense          string
		TransactionCount int
		Recent           []struct {
			ID string
		}
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.Category.Name != "Food" || res.Expense != "50000" || res.TransactionCount != 1 {
		t.Errorf("stats = %+v", res)
	}
	if len(res.Recent) != 1 || res.Recent[0].ID != "t3" {
		t.Errorf("recent = %+v", res.Recent)
	}

	if _, err := run(t, "--user", "u1", "category", "stats", "other-food"); err == nil {
		t.Error("another user's category must not be readable")
	}
}

func TestFailedCommandStillClosesBackend(t *testing.T) {
	testEnv(t)
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SEED_FILE", "")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "fintrack.db"))

	_, a, err := runApp(t, "--user", "u1", "budget", "progress", "missing")
	if err == nil {
		t.Fatal("expected not found for a missing budget")
	}
	if a.backend == nil || !a.closed {
		t.Fatalf("backend opened = %v, closed = %v", a.backend != nil, a.closed)
	}
	if err := a.close(); err != nil {
		t.Errorf("second close = %v", err)
	}
}
