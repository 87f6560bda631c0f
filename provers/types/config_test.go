package types

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("ROOT", "")
	t.Setenv("MAX_RWS", "")
	t.Setenv("CHUNK_RWS", "")

	config := NewConfig()
	require.Equal(t, ".", config.RootDir)
	require.Equal(t, 1<<20, config.MaxRws)
	require.Equal(t, 1<<10, config.ChunkRws)
	require.False(t, config.Prove)
	require.NoError(t, config.Validate())
}

func TestNewConfigEnvAndArgs(t *testing.T) {
	t.Setenv("ROOT", "/tmp/zk")
	t.Setenv("CHUNK_RWS", "64")
	t.Setenv("ALLOW_MISSING_BASE_FEE", "true")

	config := NewConfig("--max-rws", "512", "--prove", "--trace", "/data/trace.json", "--log-level", "warn")
	require.Equal(t, "/tmp/zk", config.RootDir)
	require.Equal(t, 64, config.ChunkRws)
	require.Equal(t, 512, config.MaxRws)
	require.True(t, config.AllowMissingBaseFee)
	require.True(t, config.Prove)

	require.Equal(t, "/data/trace.json", config.Path(config.TracePath))
	require.Equal(t, filepath.Join("/tmp/zk", ".build"), config.BuildDir())

	var buf bytes.Buffer
	log := config.LoggerTo(&buf)
	require.Equal(t, zerolog.WarnLevel, log.GetLevel())
	log.Info().Msg("hidden")
	require.Empty(t, buf.String())
}

func TestNewConfigInvalid(t *testing.T) {
	require.Panics(t, func() { NewConfig("--chunk-rws") })
	require.Panics(t, func() { NewConfig("--chunk-rws", "many") })

	config := NewConfig("--chunk-rws", "1")
	require.Error(t, config.Validate())
}
