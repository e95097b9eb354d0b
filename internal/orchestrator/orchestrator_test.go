package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanridge/ordinator/internal/apienvelope"
	"github.com/oceanridge/ordinator/internal/config"
	"github.com/oceanridge/ordinator/internal/schedenv"
)

func emptyConfig() *config.SystemConfigurations {
	return &config.SystemConfigurations{
		ActorSpecifications: make(map[string]config.ActorSpecification),
		ThrottleTable:       make(config.ThrottleTable),
	}
}

func TestSpawnAssetRejectsAssetWithNoActorSpecification(t *testing.T) {
	o := New(emptyConfig(), t.TempDir(), nil)
	env := schedenv.NewEnvironment(nil, nil)

	err := o.SpawnAsset(context.Background(), "PLATFORM-7", env)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apienvelope.ErrUnknownAsset))
}

func TestHandleRejectsUnknownAsset(t *testing.T) {
	o := New(emptyConfig(), t.TempDir(), nil)

	_, err := o.Handle(context.Background(), apienvelope.SystemMessage{
		Kind:      apienvelope.KindStrategic,
		Strategic: &apienvelope.StrategicRequest{Asset: "PLATFORM-7", Msg: apienvelope.StrategicStatus},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apienvelope.ErrUnknownAsset))
	assert.Equal(t, 2, apienvelope.ExitCode(err))
}

func TestDespawnAssetRejectsUnknownAsset(t *testing.T) {
	o := New(emptyConfig(), t.TempDir(), nil)

	err := o.DespawnAsset("PLATFORM-7")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apienvelope.ErrUnknownAsset))
}

func TestHandleRejectsUnknownMessageKind(t *testing.T) {
	o := New(emptyConfig(), t.TempDir(), nil)

	_, err := o.Handle(context.Background(), apienvelope.SystemMessage{Kind: "bogus"})
	require.Error(t, err)
	assert.Equal(t, 3, apienvelope.ExitCode(err))
}

func TestExportRejectsUnknownAsset(t *testing.T) {
	o := New(emptyConfig(), t.TempDir(), nil)

	_, err := o.Export("PLATFORM-7")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apienvelope.ErrUnknownAsset))
}
