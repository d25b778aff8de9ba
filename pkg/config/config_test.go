package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func newTestEnv(t *testing.T) (string, string) {
	homeDir := t.TempDir()
	configDir := filepath.Join(homeDir, "configs")
	require.NoError(t, os.MkdirAll(configDir, 0o700))

	ffmpegBin := filepath.Join(homeDir, "ffmpeg")
	ffprobeBin := filepath.Join(homeDir, "ffprobe")
	require.NoError(t, ioutil.WriteFile(ffmpegBin, []byte{}, 0o600))
	require.NoError(t, ioutil.WriteFile(ffprobeBin, []byte{}, 0o600))

	return filepath.Join(configDir, "env.yaml"), homeDir
}

func TestNewEnvDefaults(t *testing.T) {
	envPath, homeDir := newTestEnv(t)

	envYAML, err := yaml.Marshal(Env{
		FFmpegBin:  filepath.Join(homeDir, "ffmpeg"),
		FFprobeBin: filepath.Join(homeDir, "ffprobe"),
	})
	require.NoError(t, err)

	env, err := NewEnv(envPath, envYAML)
	require.NoError(t, err)

	require.Equal(t, "2021", env.Port)
	require.Equal(t, homeDir, env.HomeDir)
	require.Equal(t, filepath.Join(homeDir, "cache"), env.CacheDir)
	require.Equal(t, filepath.Dir(envPath), env.ConfigDir)
}

func TestNewEnvMissingFFmpegBin(t *testing.T) {
	envPath, homeDir := newTestEnv(t)

	envYAML, err := yaml.Marshal(Env{
		FFmpegBin:  filepath.Join(homeDir, "does-not-exist"),
		FFprobeBin: filepath.Join(homeDir, "ffprobe"),
	})
	require.NoError(t, err)

	_, err = NewEnv(envPath, envYAML)
	require.Error(t, err)
}

func TestNewEnvRelativeBin(t *testing.T) {
	envPath, homeDir := newTestEnv(t)

	envYAML, err := yaml.Marshal(Env{
		FFmpegBin:  "ffmpeg",
		FFprobeBin: filepath.Join(homeDir, "ffprobe"),
	})
	require.NoError(t, err)

	_, err = NewEnv(envPath, envYAML)
	require.Error(t, err)
}

func TestPrepareEnvironment(t *testing.T) {
	envPath, homeDir := newTestEnv(t)

	envYAML, err := yaml.Marshal(Env{
		FFmpegBin:  filepath.Join(homeDir, "ffmpeg"),
		FFprobeBin: filepath.Join(homeDir, "ffprobe"),
	})
	require.NoError(t, err)

	env, err := NewEnv(envPath, envYAML)
	require.NoError(t, err)

	require.NoError(t, env.PrepareEnvironment())

	info, err := os.Stat(env.CacheDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func newTestGeneral(t *testing.T) string {
	return t.TempDir()
}

func TestNewManagerGeneratesDefault(t *testing.T) {
	dir := newTestGeneral(t)

	m, err := NewManager(dir)
	require.NoError(t, err)

	got := m.Get()
	require.Equal(t, 512, got.CacheMaxEntries)
	require.Equal(t, "default", got.Theme)

	_, err = os.Stat(filepath.Join(dir, "general.json"))
	require.NoError(t, err)
}

func TestManagerSetPersists(t *testing.T) {
	dir := newTestGeneral(t)

	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, m.Set(General{CacheMaxEntries: 1024, Theme: "dark"}))
	require.Equal(t, 1024, m.Get().CacheMaxEntries)

	m2, err := NewManager(dir)
	require.NoError(t, err)
	require.Equal(t, 1024, m2.Get().CacheMaxEntries)
	require.Equal(t, "dark", m2.Get().Theme)
}
