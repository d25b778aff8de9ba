// Package config implements component K (spec.md §2 expansion): a
// YAML-backed environment loaded once at startup plus a small JSON
// general config that can be read and rewritten while the service
// runs. Grounded on the teacher's pkg/storage.ConfigEnv/ConfigGeneral
// (same two-tier shape: immutable environment, mutable general
// config persisted next to it).
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v2"
)

// Env stores the process-wide configuration that does not change once
// loaded: binary locations, directories, the debug server's port.
type Env struct {
	Port        string `yaml:"port"`
	FFmpegBin   string `yaml:"ffmpegBin"`
	FFprobeBin  string `yaml:"ffprobeBin"`

	HomeDir  string `yaml:"homeDir"`
	CacheDir string `yaml:"cacheDir"` // log.db, uistate.db

	ConfigDir string
}

// NewEnv parses envYAML (the contents of env.yaml, located at
// envPath) and fills in defaults the same way the teacher's
// NewConfigEnv does, then validates that the binaries and directories
// it names are usable.
func NewEnv(envPath string, envYAML []byte) (*Env, error) {
	var env Env
	if err := yaml.Unmarshal(envYAML, &env); err != nil {
		return nil, fmt.Errorf("could not unmarshal env.yaml: %w", err)
	}

	env.ConfigDir = filepath.Dir(envPath)

	if env.Port == "" {
		env.Port = "2021"
	}
	if env.FFmpegBin == "" {
		env.FFmpegBin = "/usr/bin/ffmpeg"
	}
	if env.FFprobeBin == "" {
		env.FFprobeBin = "/usr/bin/ffprobe"
	}
	if env.HomeDir == "" {
		env.HomeDir = filepath.Dir(env.ConfigDir)
	}
	if env.CacheDir == "" {
		env.CacheDir = env.HomeDir + "/cache"
	}

	if !pathExists(env.FFmpegBin) {
		return nil, fmt.Errorf("ffmpegBin %q does not exist", env.FFmpegBin)
	}
	if !pathExists(env.FFprobeBin) {
		return nil, fmt.Errorf("ffprobeBin %q does not exist", env.FFprobeBin)
	}
	if !filepath.IsAbs(env.FFmpegBin) {
		return nil, fmt.Errorf("ffmpegBin %q is not an absolute path", env.FFmpegBin)
	}
	if !filepath.IsAbs(env.FFprobeBin) {
		return nil, fmt.Errorf("ffprobeBin %q is not an absolute path", env.FFprobeBin)
	}
	if !filepath.IsAbs(env.HomeDir) {
		return nil, fmt.Errorf("homeDir %q is not an absolute path", env.HomeDir)
	}
	if !filepath.IsAbs(env.CacheDir) {
		return nil, fmt.Errorf("cacheDir %q is not an absolute path", env.CacheDir)
	}

	return &env, nil
}

// PrepareEnvironment creates the directories Env names, if absent.
func (env *Env) PrepareEnvironment() error {
	if err := os.MkdirAll(env.CacheDir, 0o700); err != nil {
		return fmt.Errorf("could not create cache directory %v: %w", env.CacheDir, err)
	}
	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// General stores the values that are read frequently and can be
// changed at runtime: thumbnail cache capacity and the UI theme
// preference (persisted UI state uses pkg/uistate instead; this is
// the one remaining general setting the teacher's GeneralConfig named
// that still applies here).
type General struct {
	CacheMaxEntries int     `json:"cacheMaxEntries"`
	CacheDirBudgetGB float64 `json:"cacheDirBudgetGb"`
	Theme           string  `json:"theme"`
}

// Manager owns General, mediating reads/writes through a mutex and
// persisting every Set to disk, same as the teacher's ConfigGeneral.
type Manager struct {
	mu     sync.Mutex
	config General
	path   string
}

// NewManager loads general.json from dir, generating a default file
// if one doesn't exist yet.
func NewManager(dir string) (*Manager, error) {
	path := filepath.Join(dir, "general.json")

	if !pathExists(path) {
		if err := writeDefaultGeneral(path); err != nil {
			return nil, fmt.Errorf("could not generate general config: %w", err)
		}
	}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read general config: %w", err)
	}

	var general General
	if err := json.Unmarshal(raw, &general); err != nil {
		return nil, fmt.Errorf("could not parse general config: %w", err)
	}

	return &Manager{config: general, path: path}, nil
}

func writeDefaultGeneral(path string) error {
	defaults := General{
		CacheMaxEntries:  512,
		CacheDirBudgetGB: 10,
		Theme:            "default",
	}
	raw, err := json.MarshalIndent(defaults, "", "    ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, raw, 0o600)
}

// Get returns the current general config.
func (m *Manager) Get() General {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set replaces the general config and persists it to disk.
func (m *Manager) Set(newConfig General) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := json.MarshalIndent(newConfig, "", "    ")
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(m.path, raw, 0o600); err != nil {
		return fmt.Errorf("could not write general config: %w", err)
	}
	m.config = newConfig
	return nil
}
