package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const poolTestPrefix = "db:pool_test"

func TestNewPool_Rejects(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"unknown scheme", "invalid://not-a-valid-database-url"},
		{"bad pool setting", "postgres://localhost:5432/journal?pool_max_conns=many"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			pool, err := NewPool(ctx, tt.url)
			if err == nil {
				if pool != nil {
					pool.Close()
				}
				t.Fatalf("%s - expected error for %q", poolTestPrefix, tt.url)
			}
			if pool != nil {
				t.Errorf("%s - expected nil pool on error", poolTestPrefix)
			}
		})
	}
}

// The journal migration must create every column the repository selects.
func TestJournalMigration_CoversRepositoryColumns(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_operation_journal.sql"))
	if err != nil {
		t.Fatalf("%s - read migration: %v", poolTestPrefix, err)
	}
	schema := string(data)
	if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS operation_journal") {
		t.Fatalf("%s - migration does not create operation_journal", poolTestPrefix)
	}
	for _, col := range strings.Split(operationColumns, ",") {
		col = strings.TrimSpace(col)
		if !strings.Contains(schema, "\n    "+col+" ") {
			t.Errorf("%s - column %q missing from journal migration", poolTestPrefix, col)
		}
	}
}
