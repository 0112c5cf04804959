package database

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

// validResourceTypes must match the ENUM on audit_log.resource_type and the
// resource constants in the audit plugin.
var validResourceTypes = []string{"campaign", "template", "contact", "email", "session"}

// migrationsDir returns the absolute path to db/migrations/ from the project root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	dir := filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("migrations directory not found at %s: %v", dir, err)
	}
	return dir
}

// TestMigrations_Paired checks every up migration has a down migration and
// that versions are unique.
func TestMigrations_Paired(t *testing.T) {
	dir := migrationsDir(t)
	ups, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}
	if len(ups) == 0 {
		t.Fatal("no migration files found")
	}

	seen := make(map[string]string)
	for _, up := range ups {
		base := filepath.Base(up)
		version, _, _ := strings.Cut(base, "_")
		if prev, ok := seen[version]; ok {
			t.Errorf("version %s used by both %s and %s", version, prev, base)
		}
		seen[version] = base

		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := os.Stat(down); err != nil {
			t.Errorf("%s has no matching down migration", base)
		}
	}
}

// TestMigrations_AuditResourceEnum validates that the audit_log ENUM lists
// exactly the resource types the audit plugin writes. A mismatch fails
// inserts with "Data truncated for column 'resource_type'" (Error 1265).
func TestMigrations_AuditResourceEnum(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(migrationsDir(t), "000001_create_audit_log.up.sql"))
	if err != nil {
		t.Fatalf("reading audit migration: %v", err)
	}

	enumPattern := regexp.MustCompile(`resource_type\s+ENUM\(([^)]*)\)`)
	m := enumPattern.FindStringSubmatch(string(data))
	if m == nil {
		t.Fatal("resource_type ENUM not found")
	}

	var got []string
	for _, v := range strings.Split(m[1], ",") {
		got = append(got, strings.Trim(strings.TrimSpace(v), "'"))
	}
	if strings.Join(got, ",") != strings.Join(validResourceTypes, ",") {
		t.Errorf("resource_type ENUM = %v, want %v", got, validResourceTypes)
	}
}
