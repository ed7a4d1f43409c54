package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LocalPort != DefaultLocalPort {
		t.Errorf("LocalPort = %d, want default %d", cfg.LocalPort, DefaultLocalPort)
	}
	if cfg.LobbyDomain != DefaultLobbyDomain {
		t.Errorf("LobbyDomain = %q, want default %q", cfg.LobbyDomain, DefaultLobbyDomain)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flo.toml")
	want := ClientConfig{
		LocalPort:        9999,
		UserDataPath:     "/home/user/flo",
		InstallationPath: "/opt/warcraft3",
		LobbyDomain:      "lobby.example.net",
	}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestEnvOverridesApplyAndAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flo.toml")
	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv("FLO_LOCAL_PORT", "4242")
	t.Setenv("FLO_LOBBY_DOMAIN", "override.example")
	t.Setenv("FLO_USER_DATA_PATH", "/data")
	t.Setenv("FLO_INSTALLATION_PATH", "/install")

	first, err := Load(path)
	if err != nil {
		t.Fatalf("Load (1st): %v", err)
	}
	second, err := Load(path)
	if err != nil {
		t.Fatalf("Load (2nd): %v", err)
	}

	if first != second {
		t.Errorf("env override not idempotent: %+v != %+v", first, second)
	}
	if first.LocalPort != 4242 {
		t.Errorf("LocalPort override not applied: got %d", first.LocalPort)
	}
	if first.LobbyDomain != "override.example" {
		t.Errorf("LobbyDomain override not applied: got %q", first.LobbyDomain)
	}
}

func TestConfigPathEnvOverridesPath(t *testing.T) {
	dir := t.TempDir()
	actual := filepath.Join(dir, "real.toml")
	if err := Save(actual, ClientConfig{LocalPort: 1, LobbyDomain: "x"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv(ConfigPathEnv, actual)

	cfg, err := Load(filepath.Join(dir, "ignored.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LocalPort != 1 {
		t.Errorf("expected config loaded from %s, got %+v", actual, cfg)
	}
}
