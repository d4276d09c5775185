package profile

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFromEnvDefaults(t *testing.T) {
	clearEnvVars(t)

	profile := &Profile{}
	profile.FromEnv()

	assert.Equal(t, "", profile.Secret)
	assert.Equal(t, 30*24*time.Hour, profile.SessionTTL)
	assert.Equal(t, 4, profile.GraphConcurrency)
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		check    func(t *testing.T, p *Profile)
	}{
		{
			name:     "NOTEGRAPH_SECRET",
			envVar:   "NOTEGRAPH_SECRET",
			envValue: "s3cret",
			check:    func(t *testing.T, p *Profile) { assert.Equal(t, "s3cret", p.Secret) },
		},
		{
			name:     "NOTEGRAPH_SESSION_TTL",
			envVar:   "NOTEGRAPH_SESSION_TTL",
			envValue: "2h",
			check:    func(t *testing.T, p *Profile) { assert.Equal(t, 2*time.Hour, p.SessionTTL) },
		},
		{
			name:     "invalid NOTEGRAPH_SESSION_TTL falls back",
			envVar:   "NOTEGRAPH_SESSION_TTL",
			envValue: "soon",
			check:    func(t *testing.T, p *Profile) { assert.Equal(t, defaultSessionTTL, p.SessionTTL) },
		},
		{
			name:     "NOTEGRAPH_GRAPH_CONCURRENCY",
			envVar:   "NOTEGRAPH_GRAPH_CONCURRENCY",
			envValue: "9",
			check:    func(t *testing.T, p *Profile) { assert.Equal(t, 9, p.GraphConcurrency) },
		},
		{
			name:     "NOTEGRAPH_INSTANCE_URL",
			envVar:   "NOTEGRAPH_INSTANCE_URL",
			envValue: "https://notes.example.com",
			check:    func(t *testing.T, p *Profile) { assert.Equal(t, "https://notes.example.com", p.InstanceURL) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv(tt.envVar, tt.envValue)

			profile := &Profile{}
			profile.FromEnv()
			tt.check(t, profile)
		})
	}
}

func TestProfileFromEnvKeepsExplicitValues(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("NOTEGRAPH_SECRET", "from-env")

	profile := &Profile{Secret: "from-flag"}
	profile.FromEnv()
	assert.Equal(t, "from-flag", profile.Secret)
}

func TestProfileValidate(t *testing.T) {
	t.Run("defaults sqlite dsn into data dir", func(t *testing.T) {
		dir := t.TempDir()
		profile := &Profile{Mode: "dev", Data: dir}
		require.NoError(t, profile.Validate())
		assert.Equal(t, "sqlite", profile.Driver)
		assert.Equal(t, filepath.Join(dir, "notegraph_dev.db"), profile.DSN)
	})

	t.Run("unknown mode becomes demo", func(t *testing.T) {
		profile := &Profile{Mode: "staging", Data: t.TempDir()}
		require.NoError(t, profile.Validate())
		assert.Equal(t, "demo", profile.Mode)
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		profile := &Profile{Mode: "dev", Driver: "postgres", Data: t.TempDir()}
		require.Error(t, profile.Validate())
	})

	t.Run("unsupported driver", func(t *testing.T) {
		profile := &Profile{Mode: "dev", Driver: "mysql", Data: t.TempDir()}
		require.Error(t, profile.Validate())
	})

	t.Run("prod requires secret", func(t *testing.T) {
		profile := &Profile{Mode: "prod", Data: t.TempDir()}
		require.Error(t, profile.Validate())

		profile = &Profile{Mode: "prod", Data: t.TempDir(), Secret: "x"}
		require.NoError(t, profile.Validate())
	})

	t.Run("missing data dir", func(t *testing.T) {
		profile := &Profile{Mode: "dev", Data: filepath.Join(t.TempDir(), "missing")}
		require.Error(t, profile.Validate())
	})
}

func TestIsDev(t *testing.T) {
	assert.True(t, (&Profile{Mode: "dev"}).IsDev())
	assert.True(t, (&Profile{Mode: "demo"}).IsDev())
	assert.False(t, (&Profile{Mode: "prod"}).IsDev())
}

func clearEnvVars(t *testing.T) {
	for _, envVar := range []string{
		"NOTEGRAPH_SECRET",
		"NOTEGRAPH_INSTANCE_URL",
		"NOTEGRAPH_SESSION_TTL",
		"NOTEGRAPH_GRAPH_CONCURRENCY",
	} {
		t.Setenv(envVar, "")
	}
}
