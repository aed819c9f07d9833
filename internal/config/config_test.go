package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := &Config{
		ListenAddr: "127.0.0.1:9999",
		Actors: []Actor{
			{ID: "alice", Name: "Alice", Token: "tok-a"},
			{ID: "bob", Name: "Bob", Token: "tok-b"},
		},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("ListenAddr = %q", loaded.ListenAddr)
	}
	if len(loaded.Actors) != 2 || loaded.Actors[1].Token != "tok-b" {
		t.Errorf("Actors = %+v", loaded.Actors)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(""), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.ListenAddr != def.ListenAddr {
		t.Errorf("ListenAddr = %q, want default %q", cfg.ListenAddr, def.ListenAddr)
	}
	if cfg.SnapshotLimit != def.SnapshotLimit || cfg.PollIntervalMS != def.PollIntervalMS {
		t.Errorf("limits = %d/%d, want defaults", cfg.SnapshotLimit, cfg.PollIntervalMS)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.ListenAddr != Default().ListenAddr {
		t.Errorf("ListenAddr = %q, want default", cfg.ListenAddr)
	}
}

func TestSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
