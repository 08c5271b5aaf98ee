package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetters(t *testing.T) {
	t.Setenv("CFG_INT", "42")
	t.Setenv("CFG_BAD_INT", "-3")
	t.Setenv("CFG_BOOL", "yes")
	t.Setenv("CFG_DUR", "90s")
	t.Setenv("CFG_DUR_SECONDS", "15")
	t.Setenv("CFG_LIST", " a, ,b ")
	t.Setenv("CFG_PORT", "70000")

	if got := Int("CFG_INT", 1); got != 42 {
		t.Fatalf("Int: expected 42, got %d", got)
	}
	if got := Int("CFG_BAD_INT", 7); got != 7 {
		t.Fatalf("Int: expected fallback 7, got %d", got)
	}
	if !Bool("CFG_BOOL", false) {
		t.Fatal("Bool: expected true")
	}
	if Bool("CFG_MISSING_BOOL", false) {
		t.Fatal("Bool: expected fallback false")
	}
	if got := Duration("CFG_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("Duration: expected 90s, got %s", got)
	}
	if got := Duration("CFG_DUR_SECONDS", time.Second); got != 15*time.Second {
		t.Fatalf("Duration: expected 15s, got %s", got)
	}
	if got := List("CFG_LIST", ""); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: unexpected %v", got)
	}
	if _, err := Port("CFG_PORT", "8080"); err == nil {
		t.Fatal("Port: expected error for out of range port")
	}
	if _, err := RequiredString("CFG_NOT_SET"); err == nil {
		t.Fatal("RequiredString: expected error")
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CFG_DOTENV_NEW=from-file\nCFG_DOTENV_SET=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("CFG_DOTENV_SET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("CFG_DOTENV_NEW") })

	LoadDotEnv(path, filepath.Join(dir, "missing.env"))

	if got := os.Getenv("CFG_DOTENV_NEW"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("CFG_DOTENV_SET"); got != "from-env" {
		t.Fatalf("expected process env to win, got %q", got)
	}
}
