package circuit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/kysee/zk-arith/builder"
	"github.com/kysee/zk-arith/publicdata"
	"github.com/kysee/zk-arith/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	rootDir = mustGetRootDir()

	gnarkLogger = zerolog.New(os.Stdout).Level(zerolog.DebugLevel).With().Timestamp().Logger()
)

func loadBlock(t testing.TB) (*types.BlockTrace, *builder.Block) {
	traceFile, err := os.ReadFile(filepath.Join(rootDir, "data/block-trace.json"))
	require.NoError(t, err, "Failed to read block trace")
	var trace types.BlockTrace
	require.NoError(t, json.Unmarshal(traceFile, &trace), "Failed to parse block-trace.json")

	block, err := builder.BuildFromTrace(&trace, builder.Options{Logger: gnarkLogger})
	require.NoError(t, err, "Failed to build block")
	return &trace, block
}

func loadPublicData(t testing.TB) *publicdata.PublicData {
	trace, block := loadBlock(t)
	protocol := publicdata.ProtocolFromTrace(&trace.Protocol)
	protocol.BlockHash = block.Context.BlockHash
	return publicdata.Encode(block.Context, protocol)
}

func mustGetRootDir() string {
	root, err := projectRoot(".")
	if err != nil {
		panic(err)
	}
	return root
}

// projectRoot finds the project root directory by searching for go.mod file
// starting from the given startPath (default: current directory)
func projectRoot(startPath ...string) (string, error) {
	start := "."
	if len(startPath) > 0 {
		start = startPath[0]
	}

	currentPath, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(currentPath, "go.mod")); err == nil {
			return currentPath, nil
		}
		parentPath := filepath.Dir(currentPath)
		if parentPath == currentPath {
			return "", fmt.Errorf("not found project root dir")
		}
		currentPath = parentPath
	}
}
