package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iqtestim/iqadmin/internal/cli/config"
	"github.com/iqtestim/iqadmin/internal/cli/tokenstore"
)

// setupTestEnv moves the test into an isolated working directory and points
// HOME at a temp dir so userconfig writes never touch the real one.
func setupTestEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(originalDir) })

	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestInitCreatesConfig(t *testing.T) {
	dir := setupTestEnv(t)

	if err := runInit(nil, []string{"admin.example.com"}); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, err := config.Load(filepath.Join(dir, config.ConfigFileName))
	if err != nil {
		t.Fatalf("expected config file after init: %v", err)
	}
	if len(cfg.Servers) != 1 {
		t.Fatalf("expected 1 server, got %d", len(cfg.Servers))
	}
	if cfg.Servers[0].Addr != "admin.example.com" || cfg.Servers[0].Alias != "production" {
		t.Errorf("unexpected server entry: %+v", cfg.Servers[0])
	}
}

func TestInitAppendsServer(t *testing.T) {
	dir := setupTestEnv(t)

	if err := runInit(nil, []string{"admin.example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := runInit(nil, []string{"staging.example.com"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(filepath.Join(dir, config.ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(cfg.Servers))
	}
	if cfg.Servers[1].Alias != "server-2" {
		t.Errorf("expected alias server-2, got %s", cfg.Servers[1].Alias)
	}
}

func TestInitSkipsDuplicateServer(t *testing.T) {
	dir := setupTestEnv(t)

	if err := runInit(nil, []string{"admin.example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := runInit(nil, []string{"admin.example.com"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(filepath.Join(dir, config.ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Servers) != 1 {
		t.Errorf("duplicate init should not add a server, got %d", len(cfg.Servers))
	}
}

func TestGetSelectedServerRequiresConfig(t *testing.T) {
	setupTestEnv(t)

	if _, err := getSelectedServer(""); err == nil {
		t.Error("expected error when no iqadmin.json exists")
	}
}

func TestGetSelectedServerSingleServer(t *testing.T) {
	setupTestEnv(t)

	if err := runInit(nil, []string{"admin.example.com"}); err != nil {
		t.Fatal(err)
	}

	server, err := getSelectedServer("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.Addr != "admin.example.com" {
		t.Errorf("unexpected server: %+v", server)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	setupTestEnv(t)

	if err := runInit(nil, []string{"admin.example.com"}); err != nil {
		t.Fatal(err)
	}

	tokens := tokenstore.NewMemory()
	if err := tokens.Save("admin.example.com", "some-token"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := runLogout("", tokens); err != nil {
			t.Fatalf("logout attempt %d failed: %v", i+1, err)
		}
	}

	if _, ok := tokens.Read("admin.example.com"); ok {
		t.Error("token should be cleared after logout")
	}
}
