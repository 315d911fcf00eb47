package monolith

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/whitelist-sync/internal/config"
	"github.com/fd1az/whitelist-sync/internal/di"
	"github.com/fd1az/whitelist-sync/internal/logger"
)

type recordingModule struct {
	name       string
	calls      *[]string
	startupErr error
}

func (m recordingModule) RegisterServices(c di.Container) error {
	*m.calls = append(*m.calls, "register:"+m.name)
	return nil
}

func (m recordingModule) Startup(ctx context.Context, mono Monolith) error {
	*m.calls = append(*m.calls, "start:"+m.name)
	return m.startupErr
}

func TestApp_RegistersThenStartsModulesInOrder(t *testing.T) {
	var calls []string
	var a App = NewWithProvider(&config.Config{}, logger.NewNop(), nil)

	modules := []Module{
		recordingModule{name: "wallet", calls: &calls},
		recordingModule{name: "block", calls: &calls},
	}

	require.NoError(t, a.RegisterModules(modules...))
	require.NoError(t, a.StartModules(context.Background(), modules...))
	require.NoError(t, a.Close())

	assert.Equal(t, []string{"register:wallet", "register:block", "start:wallet", "start:block"}, calls)
	assert.True(t, a.Services().Has(ConfigService))
	assert.True(t, a.Services().Has(LoggerService))
}

func TestApp_StartModulesStopsAtFirstError(t *testing.T) {
	var calls []string
	a := NewWithProvider(&config.Config{}, logger.NewNop(), nil)
	boom := errors.New("boom")

	err := a.StartModules(context.Background(),
		recordingModule{name: "wallet", calls: &calls, startupErr: boom},
		recordingModule{name: "block", calls: &calls},
	)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"start:wallet"}, calls)
}
