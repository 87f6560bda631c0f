package main

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/consensys/gnark/logger"
	"github.com/kysee/zk-arith/provers"
	"github.com/kysee/zk-arith/provers/types"
)

func main() {
	config := types.NewConfig(os.Args[1:]...)
	if err := config.Validate(); err != nil {
		println("error", err.Error())
		return
	}

	if err := SetupCircuits(config); err != nil {
		println("error", err.Error())
	}
}

// SetupCircuits compiles every circuit of the configured chunk budget, runs
// the groth16 setup and exports a Solidity verifier for each.
func SetupCircuits(config *types.Config) error {
	logger.Disable()

	circuits := prover.Circuits(config.ChunkRws)
	names := make([]string, 0, len(circuits))
	for name := range circuits {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		keys, err := prover.SetupCircuit(config.BuildDir(), name, circuits[name])
		if err != nil {
			return err
		}

		path := config.Path(filepath.Join("verifiers/pi/contracts", name+"Verifier.sol"))
		if err := prover.ExportSolidity(keys.VK, path); err != nil {
			return err
		}
		println("✅ Solidity verifier generate to", path)
	}
	return nil
}
