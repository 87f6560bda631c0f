package main

import (
	"os"
	"path/filepath"

	"github.com/kysee/zk-arith/provers"
	"github.com/kysee/zk-arith/provers/types"
)

// Regenerates the Solidity verifiers from keys already saved in .build, so
// that contracts always match the proving keys in use.
func main() {
	config := types.NewConfig(os.Args[1:]...)
	if config.RootDir == "." {
		config.RootDir = "../.."
	}

	for _, name := range []string{prover.PublicInputCircuitName, prover.RwFingerprintCircuitName(config.ChunkRws)} {
		vk, err := prover.LoadVerifyingKey(config.BuildDir(), name)
		if err != nil {
			panic(err)
		}

		path := filepath.Join("contracts", name+"Verifier.sol")
		if err := prover.ExportSolidity(vk, path); err != nil {
			panic(err)
		}
		println("✅ Solidity verifier generated:", path)
	}
}
