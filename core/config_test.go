package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte("TEST_DATABASE_NAME=kozi_test\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("TEST_DATABASE_NAME") })

	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, conf *Config)
		wantErr bool
	}{
		{
			name: "defaults",
			check: func(t *testing.T, conf *Config) {
				assert.Equal(t, "DEV", conf.Env)
				assert.Equal(t, "Kozi", conf.AppName)
				assert.True(t, conf.Debug)
				assert.False(t, conf.TestMode)
				assert.Equal(t, ":8000", conf.Server.Address)
				assert.Equal(t, 5*time.Second, conf.Server.ShutdownTimeout)
				assert.Equal(t, BackendSQLX, conf.Database.Backend)
				assert.Equal(t, "localhost:5432", conf.Database.Address())
				assert.Equal(t, "console", conf.Email.Backend)
				assert.True(t, conf.Email.NotifyVenues)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"ENV":                   "qa",
				"QA_DEBUG":              "false",
				"QA_SERVER_ADDRESS":     ":9000",
				"QA_DATABASE_BACKEND":   BackendGorm,
				"QA_DATABASE_ENGINE":    "sqlite",
				"QA_EMAIL_NOTIFYVENUES": "false",
			},
			check: func(t *testing.T, conf *Config) {
				assert.Equal(t, "QA", conf.Env)
				assert.False(t, conf.Debug)
				assert.Equal(t, ":9000", conf.Server.Address)
				assert.Equal(t, BackendGorm, conf.Database.Backend)
				assert.Equal(t, "sqlite", conf.Database.Engine)
				assert.False(t, conf.Email.NotifyVenues)
			},
		},
		{
			name: "dotenv file",
			env:  map[string]string{"ENV": "test"},
			check: func(t *testing.T, conf *Config) {
				assert.True(t, conf.TestMode)
				assert.Equal(t, "kozi_test", conf.Database.Name)
			},
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"ENV": "qa", "QA_DATABASE_BACKEND": "mongo"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KOZI_CONFIG_DIR", dir)
			t.Setenv("ENV", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			conf, err := NewConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, conf)
		})
	}
}
