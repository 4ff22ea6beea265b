package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/inventory-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestItemsMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_items"), []string{
		"CREATE TABLE IF NOT EXISTS items",
		"CONSTRAINT items_name_key UNIQUE (name)",
		"CHECK (quantity >= 0)",
		"CHECK (price >= 0)",
		"CHECK (reorder_level >= 0)",
		"reorder_level integer NOT NULL DEFAULT 10",
		"category varchar(100) NOT NULL DEFAULT 'General'",
		"DROP TABLE IF EXISTS items",
	})
}

func TestTransactionsMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_inventory_transactions"), []string{
		"CREATE TABLE IF NOT EXISTS inventory_transactions",
		"FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE",
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL",
		"CHECK (transaction_type IN ('IN', 'OUT', 'ADJUST'))",
		"CHECK (quantity = abs(delta))",
		"DROP TABLE IF EXISTS inventory_transactions",
	})
}

func TestAlertsMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_inventory_alerts"), []string{
		"CREATE TABLE IF NOT EXISTS inventory_alerts",
		"FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE",
		"CHECK (alert_type IN ('LOW_STOCK', 'OUT_OF_STOCK', 'OVERSTOCK'))",
		"WHERE is_resolved = false",
		"DROP TABLE IF EXISTS inventory_alerts",
	})
}

func TestValidateDirAcceptsMigrations(t *testing.T) {
	count, err := migrate.ValidateDir("migrations")
	if err != nil {
		t.Fatalf("expected migrations to validate: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 migrations, got %d", count)
	}
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"create_items.sql":                "-- +goose Up\nSELECT 1;\n-- +goose Down\n",
		"20250101000000_reversed.sql":     "-- +goose Down\nSELECT 1;\n-- +goose Up\nSELECT 1;\n",
		"20250101000001_empty_up.sql":     "-- +goose Up\n\n-- +goose Down\nSELECT 1;\n",
		"20250101000001_duplicate.sql":    "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n",
		"20250101000002_missing_down.sql": "-- +goose Up\nSELECT 1;\n",
		"20250101000003_fine.sql":         "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n",
		"notes.txt":                       "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	count, err := migrate.ValidateDir(dir)
	if count != 6 {
		t.Fatalf("expected 6 sql files, got %d", count)
	}
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"create_items.sql", "reversed", "empty_up", "already used", "missing_down"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
	if strings.Contains(err.Error(), "20250101000003_fine.sql") {
		t.Errorf("valid migration reported: %v", err)
	}
}
