package logsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kozi/core"
)

func TestNewZapLogger(t *testing.T) {
	tests := []struct {
		name    string
		log     core.LogConfig
		wantErr bool
	}{
		{name: "console", log: core.LogConfig{Format: "console", Level: "debug"}},
		{name: "json", log: core.LogConfig{Format: "json", Level: "warn"}},
		{name: "default level", log: core.LogConfig{Format: "json"}},
		{name: "bad level", log: core.LogConfig{Level: "loud"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewZapLogger(&core.Config{AppName: "Kozi", Log: tt.log})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewZapLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew(t *testing.T) {
	conf := &core.Config{AppName: "Kozi", Debug: true, Log: core.LogConfig{Format: "json", Level: "error"}}
	logger, err := New(conf)
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, logger)

	conf.RollbarToken = "token"
	logger, err = New(conf)
	require.NoError(t, err)
	rl, ok := logger.(*RollbarLogger)
	require.True(t, ok)
	// disabled in debug mode: nothing leaves the process
	rl.Info("info", "key", "value")
}
