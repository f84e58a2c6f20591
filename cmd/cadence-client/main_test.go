package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/morezero/cadence-client/pkg/db"
)

const mainTestPrefix = "cmd/cadence-client:main_test"

func TestUsage_ContainsCommands(t *testing.T) {
	required := []string{"connect", "ping", "domain register", "domain describe", "domain update",
		"cancel", "journal", "migrate up", "migrate status", "clear", "CADENCE_PROXY_URL", "DATABASE_URL"}
	for _, word := range required {
		if !strings.Contains(usage, word) {
			t.Errorf("%s - usage should contain %q", mainTestPrefix, word)
		}
	}
}

func TestParseDomainFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    domainFlags
		wantErr bool
	}{
		{"defaults", nil, domainFlags{retention: 7}, false},
		{"all flags", []string{"-description", "orders", "-owner", "ops@example.com", "-retention", "30", "-metrics"},
			domainFlags{description: "orders", owner: "ops@example.com", retention: 30, metrics: true}, false},
		{"negative retention", []string{"-retention", "-1"}, domainFlags{}, true},
		{"unknown flag", []string{"-colour", "blue"}, domainFlags{}, true},
		{"stray argument", []string{"extra"}, domainFlags{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDomainFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("%s - err = %v, wantErr %v", mainTestPrefix, err, tt.wantErr)
			}
			if err == nil && *got != tt.want {
				t.Errorf("%s - flags = %+v, want %+v", mainTestPrefix, *got, tt.want)
			}
		})
	}
}

func TestParseJournalFlags(t *testing.T) {
	p, err := parseJournalFlags([]string{"-operation", "ping", "-error-type", "timeout", "-limit", "5"})
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
	}
	want := db.ListOperationsParams{Operation: "ping", ErrorType: "timeout", Limit: 5}
	if p != want {
		t.Errorf("%s - params = %+v, want %+v", mainTestPrefix, p, want)
	}
	if _, err := parseJournalFlags([]string{"-limit", "many"}); err == nil {
		t.Errorf("%s - expected error for non-numeric limit", mainTestPrefix)
	}
}

func TestPrintOperations(t *testing.T) {
	boom := "boom"
	ops := []db.Operation{
		{Operation: "domain.describe", RequestID: 3, ErrorType: "generic", Error: &boom, DurationMs: 12,
			StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Operation: "ping", RequestID: 4, ErrorType: "none", DurationMs: 1,
			StartedAt: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC)},
	}
	var out bytes.Buffer
	if err := printOperations(&out, ops); err != nil {
		t.Fatalf("%s - printOperations failed: %v", mainTestPrefix, err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("%s - expected header plus 2 rows, got:\n%s", mainTestPrefix, out.String())
	}
	if !strings.Contains(lines[1], "domain.describe") || !strings.Contains(lines[1], "boom") {
		t.Errorf("%s - row = %q", mainTestPrefix, lines[1])
	}
	if !strings.HasPrefix(lines[2], "2026-01-02T03:04:06.000Z") {
		t.Errorf("%s - row = %q", mainTestPrefix, lines[2])
	}
}
