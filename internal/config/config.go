// Package config loads the client's ClientConfig from flo.toml and applies
// FLO_* environment overrides, following the env-override-path idiom of
// config.LoadLoginServer.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ConfigPathEnv overrides the path flo.toml is loaded from, mirroring the
// teacher's LA2GO_LOGIN_CONFIG-style path override.
const ConfigPathEnv = "FLO_CONFIG_PATH"

const defaultConfigPath = "flo.toml"

// DefaultLocalPort is the compiled-in local control socket port, used when
// flo.toml omits local_port and FLO_LOCAL_PORT is unset.
const DefaultLocalPort = 21115

// DefaultLobbyDomain is the compiled-in lobby server hostname.
const DefaultLobbyDomain = "lobby.flo.example"

// ClientConfig is the coordinator's configuration, loaded once at startup
// and treated as immutable thereafter.
type ClientConfig struct {
	LocalPort        uint16 `toml:"local_port"`
	UserDataPath     string `toml:"user_data_path,omitempty"`
	InstallationPath string `toml:"installation_path,omitempty"`
	LobbyDomain      string `toml:"lobby_domain"`
}

// Default returns the compiled-in defaults, used when flo.toml is absent.
func Default() ClientConfig {
	return ClientConfig{
		LocalPort:   DefaultLocalPort,
		LobbyDomain: DefaultLobbyDomain,
	}
}

// Load reads flo.toml from path (or the FLO_CONFIG_PATH override, or
// defaultConfigPath if path is empty), then applies FLO_* environment
// overrides. A missing file is not an error: defaults are returned as the
// base before env overrides are applied.
func Load(path string) (ClientConfig, error) {
	if path == "" {
		path = defaultConfigPath
	}
	if override := os.Getenv(ConfigPathEnv); override != "" {
		path = override
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, decodeErr := toml.Decode(string(data), &cfg); decodeErr != nil {
			return ClientConfig{}, fmt.Errorf("parsing %s: %w", path, decodeErr)
		}
	case os.IsNotExist(err):
		// no file on disk: defaults stand, env can still override below.
	default:
		return ClientConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnv(&cfg)

	return cfg, nil
}

// Save writes cfg to path as TOML, matching the teacher's config.Save shape.
func Save(path string, cfg ClientConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// applyEnv layers FLO_LOCAL_PORT, FLO_USER_DATA_PATH, FLO_INSTALLATION_PATH
// and FLO_LOBBY_DOMAIN on top of cfg's file-loaded values. Idempotent:
// applying it twice with the same environment produces the same result.
func applyEnv(cfg *ClientConfig) {
	if v := os.Getenv("FLO_LOCAL_PORT"); v != "" {
		var port uint16
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.LocalPort = port
		}
	}
	if v := os.Getenv("FLO_USER_DATA_PATH"); v != "" {
		cfg.UserDataPath = v
	}
	if v := os.Getenv("FLO_INSTALLATION_PATH"); v != "" {
		cfg.InstallationPath = v
	}
	if v := os.Getenv("FLO_LOBBY_DOMAIN"); v != "" {
		cfg.LobbyDomain = v
	}
}
