package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := &Config{
		Servers: []Server{
			{Addr: "admin.example.com", Alias: "production"},
			{Addr: "staging.example.com", Alias: "staging"},
		},
	}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(loaded.Servers))
	}
	if loaded.Servers[0].Addr != "admin.example.com" || loaded.Servers[0].Alias != "production" {
		t.Errorf("unexpected first server: %+v", loaded.Servers[0])
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error for invalid JSON")
	}
}

func TestFindConfigFileSearchesUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	configPath := filepath.Join(root, ConfigFileName)
	if err := Save(configPath, &Config{Servers: []Server{{Addr: "x", Alias: "y"}}}); err != nil {
		t.Fatal(err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(originalDir)

	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("expected to find config in ancestor directory: %v", err)
	}
	// Resolve symlinks, macOS tempdirs live behind /private
	wantResolved, _ := filepath.EvalSymlinks(configPath)
	foundResolved, _ := filepath.EvalSymlinks(found)
	if foundResolved != wantResolved {
		t.Errorf("found %s, want %s", found, configPath)
	}
}

func TestGetServerByAlias(t *testing.T) {
	cfg := &Config{
		Servers: []Server{
			{Addr: "a.example.com", Alias: "production"},
		},
	}

	server, err := cfg.GetServerByAlias("production")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if server.Addr != "a.example.com" {
		t.Errorf("unexpected server: %+v", server)
	}

	if _, err := cfg.GetServerByAlias("missing"); err == nil {
		t.Error("expected error for unknown alias")
	}
}

func TestGetDefaultServer(t *testing.T) {
	empty := &Config{}
	if _, err := empty.GetDefaultServer(); err == nil {
		t.Error("expected error for empty server list")
	}

	cfg := &Config{Servers: []Server{{Addr: "first", Alias: "one"}, {Addr: "second", Alias: "two"}}}
	server, err := cfg.GetDefaultServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.Addr != "first" {
		t.Errorf("expected first server, got %+v", server)
	}
}
