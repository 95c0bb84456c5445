package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfig_ActiveProfile(t *testing.T) {
	cfg := &UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Host: "http://localhost:8080", Output: "table"},
			"staging": {Host: "https://staging.example.com", Output: "json", SchemaDir: "/data/schemas"},
		},
	}

	tests := []struct {
		name     string
		override string
		wantHost string
		wantErr  string
	}{
		{name: "uses current profile", wantHost: "http://localhost:8080"},
		{name: "override to staging", override: "staging", wantHost: "https://staging.example.com"},
		{name: "nonexistent profile", override: "nonexistent", wantErr: `profile "nonexistent" not found`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := cfg.ActiveProfile(tt.override)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, p.Host)
		})
	}
}

func TestUserConfig_MissingCurrentProfile(t *testing.T) {
	cfg := &UserConfig{CurrentProfile: "gone", Profiles: map[string]Profile{}}
	p, err := cfg.ActiveProfile("")
	require.NoError(t, err)
	assert.Equal(t, Profile{}, p)
}

func TestSaveAndLoadUserConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := LoadUserConfig()
	require.ErrorIs(t, err, os.ErrNotExist)

	want := &UserConfig{
		CurrentProfile: "prod",
		Profiles: map[string]Profile{
			"prod": {Host: "https://merge.example.com", SchemaDir: "/srv/schemas"},
		},
	}
	require.NoError(t, SaveUserConfig(want))

	info, err := os.Stat(ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Equal(t, filepath.Join(ConfigDir(), "config.yaml"), ConfigPath())

	got, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadUserConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.MkdirAll(ConfigDir(), 0o700))
	require.NoError(t, os.WriteFile(ConfigPath(), []byte("profiles: [unterminated"), 0o600))

	_, err := LoadUserConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
