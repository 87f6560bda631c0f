package prover

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kysee/zk-arith/types"
)

// FileFetcher implements Fetcher by reading from a local JSON file
type FileFetcher struct {
	FilePath string
}

// NewFileFetcher creates a new FileFetcher with the given file path
func NewFileFetcher(filePath string) *FileFetcher {
	return &FileFetcher{
		FilePath: filePath,
	}
}

// Trace reads and parses the block trace from the file
func (f *FileFetcher) Trace() (*types.BlockTrace, error) {
	data, err := os.ReadFile(f.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", f.FilePath, err)
	}

	var trace types.BlockTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &trace, nil
}
