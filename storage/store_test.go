package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/curriculum"
	"github.com/trezcool/kozi/services/logger"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		db      core.DatabaseConfig
		wantErr bool
	}{
		{name: "memory", db: core.DatabaseConfig{Backend: core.BackendMemory}},
		{name: "gorm sqlite", db: core.DatabaseConfig{Backend: core.BackendGorm, Engine: "sqlite", Path: ":memory:"}},
		{name: "unknown backend", db: core.DatabaseConfig{Backend: "mongo"}, wantErr: true},
		{name: "unknown gorm engine", db: core.DatabaseConfig{Backend: core.BackendGorm, Engine: "oracle"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, err := Open(ctx, &core.Config{Database: tt.db}, logsvc.NewNopLogger(), false)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, s.Close()) }()
			assert.Nil(t, s.SQL)

			sub, err := s.Curriculum.CreateSubject(ctx, curriculum.Subject{Name: "Algebra"})
			require.NoError(t, err)
			got, err := s.Curriculum.GetSubject(ctx, sub.ID)
			require.NoError(t, err)
			assert.Equal(t, sub, got)
		})
	}
}
